/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"math"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
)

// DefaultBatchSize is the number of records a cursor asks the server for per
// round trip unless changed with SetBatchSize.
const DefaultBatchSize = 100

// opener issues the backing read. It runs once, on first consumption.
type opener func(ctx context.Context, batchSize int32) (*driver.Cursor, error)

// Cursor converts documents from a driver cursor into records of T.
type Cursor[T any] struct {
	category string
	open     opener

	batchSize int
	started   bool
	closed    bool

	cursor  *driver.Cursor
	peeked  bool
	hasNext bool
}

var _ datastore.Cursor[struct{}] = (*Cursor[struct{}])(nil)

func newCursor[T any](category string, open opener) *Cursor[T] {
	return &Cursor[T]{category: category, open: open, batchSize: DefaultBatchSize}
}

// SetBatchSize changes the round-trip size. It fails once the cursor has
// been consumed.
func (c *Cursor[T]) SetBatchSize(n int) error {
	if c.started {
		return errors.NewIllegalStateError("batch size cannot change after the cursor was consumed")
	}
	if n <= 0 {
		return errors.NewValidationError("batchSize", "must be > 0")
	}
	if n > math.MaxInt32 {
		return errors.NewValidationError("batchSize", "must not exceed 2147483647")
	}
	c.batchSize = n
	return nil
}

// BatchSize returns the round-trip size.
func (c *Cursor[T]) BatchSize() int {
	return c.batchSize
}

// HasNext reports whether another record is available. The first call
// issues the read.
func (c *Cursor[T]) HasNext(ctx context.Context) (bool, error) {
	if c.closed {
		return false, nil
	}
	c.started = true
	if c.peeked {
		return c.hasNext, nil
	}
	if c.cursor == nil {
		cur, err := c.open(ctx, int32(c.batchSize))
		if err != nil {
			c.closed = true
			return false, err
		}
		c.cursor = cur
	}

	c.hasNext = c.cursor.Next(ctx)
	c.peeked = true
	if !c.hasNext {
		if err := c.cursor.Err(); err != nil {
			return false, errors.NewStorageError("read", c.category, err)
		}
	}
	return c.hasNext, nil
}

// Next returns the next record. Calling it on an exhausted cursor is an
// IllegalStateError.
func (c *Cursor[T]) Next(ctx context.Context) (*T, error) {
	more, err := c.HasNext(ctx)
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, errors.NewIllegalStateError("cursor over %q is exhausted", c.category)
	}
	c.peeked = false

	var doc bson.D
	if err := c.cursor.Decode(&doc); err != nil {
		return nil, errors.NewStorageError("decode", c.category, err)
	}
	return FromDocument[T](doc)
}

// Close releases the server-side cursor. It is safe to call more than once.
func (c *Cursor[T]) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cursor == nil {
		return nil
	}
	if err := c.cursor.Close(ctx); err != nil {
		return errors.NewStorageError("close cursor", c.category, err)
	}
	return nil
}

// staticCursor serves precomputed documents, used for aggregate results.
func staticCursor[T any](category string, docs ...bson.D) *Cursor[T] {
	return newCursor[T](category, func(context.Context, int32) (*driver.Cursor, error) {
		items := make([]any, len(docs))
		for i, d := range docs {
			items[i] = d
		}
		cur, err := driver.NewCursorFromDocuments(items, nil, nil)
		if err != nil {
			return nil, errors.NewStorageError("read", category, err)
		}
		return cur, nil
	})
}
