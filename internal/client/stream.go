package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Static errors for err113 compliance.
var (
	ErrMalformedCollection = errors.New("the collection is not a JSON object with an item array")
)

const collectionItemKey = "item"

// Stream retrieves one page of the collection and yields its items one at a
// time, decoding each only when it is reached. The declared total is
// recorded before the first item is yielded. Iteration stops at the first
// error, which is yielded with the zero value.
func (c *Client[T]) Stream(ctx context.Context, opts *simplyrestful.ListOptions) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		resp, target, err := c.requestCollection(ctx, opts)
		if err != nil {
			yield(zero, err)

			return
		}

		var envelope struct {
			Total *simplyrestful.Total `json:"total"`
		}

		err = json.Unmarshal(resp.Body, &envelope)
		if err != nil {
			yield(zero, fmt.Errorf("failed to decode the collection at %s: %w", target, err))

			return
		}

		c.lastTotal.Store((&simplyrestful.Collection[T]{Total: envelope.Total}).DeclaredTotal())

		err = streamItems(ctx, json.NewDecoder(bytes.NewReader(resp.Body)), yield)

		switch {
		case err == nil:
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			yield(zero, err)
		default:
			yield(zero, fmt.Errorf("failed to decode the collection at %s: %w", target, err))
		}
	}
}

// streamItems walks the top level object and yields the elements of its item
// array. It returns nil when the consumer stops early.
func streamItems[T any](ctx context.Context, decoder *json.Decoder, yield func(T, error) bool) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}

	if token != json.Delim('{') {
		return ErrMalformedCollection
	}

	for decoder.More() {
		key, err := decoder.Token()
		if err != nil {
			return err
		}

		if key != collectionItemKey {
			var skipped json.RawMessage

			err = decoder.Decode(&skipped)
			if err != nil {
				return err
			}

			continue
		}

		token, err := decoder.Token()
		if err != nil {
			return err
		}

		if token == nil {
			continue
		}

		if token != json.Delim('[') {
			return ErrMalformedCollection
		}

		for decoder.More() {
			err = ctx.Err()
			if err != nil {
				return err
			}

			var item T

			err = decoder.Decode(&item)
			if err != nil {
				return err
			}

			if !yield(item, nil) {
				return nil
			}
		}

		_, err = decoder.Token()
		if err != nil {
			return err
		}
	}

	return nil
}
