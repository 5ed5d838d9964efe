package commands

import (
	"context"
	"fmt"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// pagedClient serves a collection of size documents. With ignoreStart set it
// answers every request with the first page.
type pagedClient struct {
	simplyrestful.ResourceClient[simplyrestful.Document]

	size        int
	total       int64
	ignoreStart bool
	selfless    bool
	requests    int
}

func (c *pagedClient) Stream(ctx context.Context, opts *simplyrestful.ListOptions) iter.Seq2[simplyrestful.Document, error] {
	c.requests++

	start := opts.PageStart
	if c.ignoreStart {
		start = 0
	}

	return func(yield func(simplyrestful.Document, error) bool) {
		for i := start; i < c.size && i < start+opts.PageSize; i++ {
			doc := simplyrestful.Document{"name": fmt.Sprintf("widget-%d", i)}
			if !c.selfless {
				doc["self"] = map[string]interface{}{"href": fmt.Sprintf("/widgets/%d", i)}
			}

			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (c *pagedClient) TotalAmountOfLastRetrievedCollection() int64 {
	return c.total
}

func TestListAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		client   *pagedClient
		pageSize int
		docs     int
		requests int
	}{
		{
			name:     "short last page",
			client:   &pagedClient{size: 7, total: simplyrestful.UnknownTotal},
			pageSize: 3,
			docs:     7,
			requests: 3,
		},
		{
			name:     "declared total",
			client:   &pagedClient{size: 6, total: 6},
			pageSize: 3,
			docs:     6,
			requests: 2,
		},
		{
			name:     "page start ignored",
			client:   &pagedClient{size: 10, total: simplyrestful.UnknownTotal, ignoreStart: true},
			pageSize: 3,
			docs:     3,
			requests: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			docs, err := listAll(context.Background(), tt.client, &simplyrestful.ListOptions{PageSize: tt.pageSize})
			require.NoError(t, err)
			assert.Len(t, docs, tt.docs)
			assert.Equal(t, tt.requests, tt.client.requests)
		})
	}
}

func TestListAll_PageLimit(t *testing.T) {
	t.Parallel()

	client := &pagedClient{size: 10, total: simplyrestful.UnknownTotal, ignoreStart: true, selfless: true}

	_, err := listAll(context.Background(), client, &simplyrestful.ListOptions{PageSize: 2})
	require.ErrorIs(t, err, constants.ErrTooManyPages)
	assert.Equal(t, constants.MaxListPages, client.requests)
}
