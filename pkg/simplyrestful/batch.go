package simplyrestful

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrTransactionFailed        = errors.New("transaction failed")
)

// OperationType names what a batch operation does.
type OperationType string

// Supported batch operation types.
const (
	OperationCreate OperationType = "create"
	OperationRead   OperationType = "read"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// BatchOperation represents a single operation in a batch. Create and update
// use Resource; read and delete use Identifier, which is a full URI unless
// ByUUID is set.
type BatchOperation[T APIResource] struct {
	ID         string
	Type       OperationType
	Resource   T
	Identifier string
	ByUUID     bool
	Options    *RequestOptions
	Callback   func(result *BatchResult[T])
}

// BatchResult represents the result of a batch operation.
type BatchResult[T APIResource] struct {
	ID      string
	Success bool
	// Location is the URI of the created resource.
	Location string
	// Resource is the resource that was read.
	Resource T
	// Deleted is true when a delete operation removed the resource.
	Deleted  bool
	Error    error
	Duration time.Duration
}

// BatchExecutor runs operations against one resource client concurrently.
type BatchExecutor[T APIResource] struct {
	client      ResourceClient[T]
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor. A non-positive concurrency
// falls back to the default.
func NewBatchExecutor[T APIResource](client ResourceClient[T], concurrency int) *BatchExecutor[T] {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	if concurrency > constants.MaxConcurrencyLimit {
		concurrency = constants.MaxConcurrencyLimit
	}

	return &BatchExecutor[T]{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for each operation.
func (b *BatchExecutor[T]) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are returned in the order of
// the operations. The error aggregates every failed operation.
func (b *BatchExecutor[T]) Execute(ctx context.Context, operations []BatchOperation[T]) ([]BatchResult[T], error) {
	results := make([]BatchResult[T], len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation[T]) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			results[index] = *b.run(ctx, operation)
		}(index, operation)
	}

	waitGroup.Wait()

	var merr *multierror.Error

	for _, result := range results {
		if result.Error != nil {
			merr = multierror.Append(merr, fmt.Errorf("operation %s: %w", result.ID, result.Error))
		}
	}

	return results, merr.ErrorOrNil()
}

// run executes one operation under the per-operation timeout and reports
// the result to its callback.
func (b *BatchExecutor[T]) run(ctx context.Context, operation BatchOperation[T]) *BatchResult[T] {
	opCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	result := b.executeOperation(opCtx, operation)
	result.Duration = time.Since(start)

	if operation.Callback != nil {
		operation.Callback(result)
	}

	return result
}

func (b *BatchExecutor[T]) executeOperation(ctx context.Context, operation BatchOperation[T]) *BatchResult[T] {
	result := &BatchResult[T]{ID: operation.ID}

	switch operation.Type {
	case OperationCreate:
		result.Location, result.Error = b.client.Create(ctx, operation.Resource, operation.Options)
	case OperationRead:
		if operation.ByUUID {
			result.Resource, result.Error = b.client.ReadWithUUID(ctx, operation.Identifier, operation.Options)
		} else {
			result.Resource, result.Error = b.client.Read(ctx, operation.Identifier, operation.Options)
		}
	case OperationUpdate:
		result.Error = b.client.Update(ctx, operation.Resource, operation.Options)
	case OperationDelete:
		if operation.ByUUID {
			result.Deleted, result.Error = b.client.DeleteWithUUID(ctx, operation.Identifier, operation.Options)
		} else {
			result.Deleted, result.Error = b.client.Delete(ctx, operation.Identifier, operation.Options)
		}
	default:
		result.Error = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	result.Success = result.Error == nil

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder[T APIResource] struct {
	operations []BatchOperation[T]
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder[T APIResource]() *BatchBuilder[T] {
	return &BatchBuilder[T]{
		operations: make([]BatchOperation[T], 0),
	}
}

// AddCreate adds a creation operation.
func (b *BatchBuilder[T]) AddCreate(id string, resource T) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationCreate, Resource: resource})
}

// AddRead adds a read of the resource at uri.
func (b *BatchBuilder[T]) AddRead(id, uri string) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationRead, Identifier: uri})
}

// AddReadWithUUID adds a read of the resource with the given UUID.
func (b *BatchBuilder[T]) AddReadWithUUID(id, uuid string) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationRead, Identifier: uuid, ByUUID: true})
}

// AddUpdate adds an update operation. The resource must carry its self link.
func (b *BatchBuilder[T]) AddUpdate(id string, resource T) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationUpdate, Resource: resource})
}

// AddDelete adds a deletion of the resource at uri.
func (b *BatchBuilder[T]) AddDelete(id, uri string) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationDelete, Identifier: uri})
}

// AddDeleteWithUUID adds a deletion of the resource with the given UUID.
func (b *BatchBuilder[T]) AddDeleteWithUUID(id, uuid string) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: OperationDelete, Identifier: uuid, ByUUID: true})
}

// AddOperation adds a custom operation.
func (b *BatchBuilder[T]) AddOperation(operation BatchOperation[T]) *BatchBuilder[T] {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder[T]) Build() []BatchOperation[T] {
	return b.operations
}

// BatchTransaction runs operations one at a time, in the order they were
// added, and stops at the first failure. With rollback on, it then deletes
// the resources it created, newest first. Updates and deletes cannot be
// undone.
type BatchTransaction[T APIResource] struct {
	operations []BatchOperation[T]
	executor   *BatchExecutor[T]
	rollback   bool
}

// NewBatchTransaction creates a transaction running its operations through
// executor. Only the executor's client and timeout are used; the transaction
// never runs operations concurrently.
func NewBatchTransaction[T APIResource](executor *BatchExecutor[T]) *BatchTransaction[T] {
	return &BatchTransaction[T]{
		executor:   executor,
		operations: make([]BatchOperation[T], 0),
		rollback:   true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction[T]) Add(operation BatchOperation[T]) *BatchTransaction[T] {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction[T]) SetRollback(rollback bool) *BatchTransaction[T] {
	t.rollback = rollback

	return t
}

// Execute runs the operations in order. The results cover the operations that
// ran, up to and including the one that failed.
func (t *BatchTransaction[T]) Execute(ctx context.Context) ([]BatchResult[T], error) {
	results := make([]BatchResult[T], 0, len(t.operations))

	for _, operation := range t.operations {
		result := t.executor.run(ctx, operation)
		results = append(results, *result)

		if result.Success {
			continue
		}

		err := fmt.Errorf("operation %s: %w", result.ID, result.Error)
		if !t.rollback {
			return results, err
		}

		rollbackErr := t.performRollback(ctx, results)
		if rollbackErr != nil {
			err = multierror.Append(err, rollbackErr)
		}

		return results, fmt.Errorf("%w after %d of %d operations: %w", ErrTransactionFailed, len(results), len(t.operations), err)
	}

	return results, nil
}

func (t *BatchTransaction[T]) performRollback(ctx context.Context, results []BatchResult[T]) error {
	var merr *multierror.Error

	for i := len(results) - 1; i >= 0; i-- {
		result := results[i]
		if !result.Success || t.operations[i].Type != OperationCreate || result.Location == "" {
			continue
		}

		undo := t.executor.run(ctx, BatchOperation[T]{
			ID:         "rollback_" + result.ID,
			Type:       OperationDelete,
			Identifier: result.Location,
			Options:    t.operations[i].Options,
		})
		if undo.Error != nil {
			merr = multierror.Append(merr, fmt.Errorf("operation %s: %w", undo.ID, undo.Error))
		}
	}

	return merr.ErrorOrNil()
}
