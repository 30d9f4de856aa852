/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/storagemodels"
)

type record struct {
	N int
}

// sliceCursor replays a fixed sequence; failAt makes Next fail at that index.
type sliceCursor struct {
	items     []record
	pos       int
	failAt    int
	batchSize int
	closed    bool
}

func (c *sliceCursor) HasNext(ctx context.Context) (bool, error) {
	return c.pos < len(c.items), nil
}

func (c *sliceCursor) Next(ctx context.Context) (*record, error) {
	i := c.pos
	c.pos++
	if i == c.failAt {
		return nil, fmt.Errorf("bad record %d", i)
	}
	r := c.items[i]
	return &r, nil
}

func (c *sliceCursor) SetBatchSize(n int) error {
	c.batchSize = n
	return nil
}

func (c *sliceCursor) BatchSize() int { return c.batchSize }

func (c *sliceCursor) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

func newCursor(n, failAt int) *sliceCursor {
	c := &sliceCursor{failAt: failAt}
	for i := 0; i < n; i++ {
		c.items = append(c.items, record{N: i})
	}
	return c
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	t.Run("DrainsAll", func(t *testing.T) {
		cursor := newCursor(5, -1)
		var progress []storagemodels.StreamProgress

		var got []int
		for r := range datastore.Stream[record](ctx, cursor,
			storagemodels.WithBatchSize(2),
			storagemodels.WithProgressHandler(2, func(p storagemodels.StreamProgress) {
				progress = append(progress, p)
			}),
		) {
			require.NoError(t, r.Error)
			got = append(got, r.Item.N)
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
		assert.Equal(t, 2, cursor.batchSize)
		assert.True(t, cursor.closed)
		require.NotEmpty(t, progress)
		assert.Equal(t, int64(5), progress[len(progress)-1].ItemsProcessed)
	})

	t.Run("StopsOnErrorByDefault", func(t *testing.T) {
		cursor := newCursor(5, 2)
		var items, errs int
		for r := range datastore.Stream[record](ctx, cursor) {
			if r.Error != nil {
				errs++
				continue
			}
			items++
		}
		assert.Equal(t, 2, items)
		assert.Equal(t, 1, errs)
	})

	t.Run("ErrorHandlerContinues", func(t *testing.T) {
		cursor := newCursor(5, 2)
		var items, errs int
		for r := range datastore.Stream[record](ctx, cursor,
			storagemodels.WithErrorHandler(func(error) bool { return true })) {
			if r.Error != nil {
				errs++
				continue
			}
			items++
		}
		assert.Equal(t, 4, items)
		assert.Equal(t, 1, errs)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		cursor := newCursor(100, -1)
		for range datastore.Stream[record](cctx, cursor, storagemodels.WithBufferSize(0)) {
		}
		assert.True(t, cursor.closed)
		assert.Less(t, cursor.pos, 100)
	})
}

func TestZeroBytes(t *testing.T) {
	secret := []byte("hunter2")
	datastore.ZeroBytes(secret)
	assert.Equal(t, make([]byte, 7), secret)
}
