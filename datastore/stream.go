/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"time"

	"github.com/suparena/statstore/storagemodels"
)

// Stream drains a cursor into a channel on a goroutine owned by the caller's
// request. The channel is closed when the cursor is exhausted, the context is
// cancelled, or an error is not accepted by the error handler. The cursor is
// closed before the channel.
func Stream[T any](ctx context.Context, cursor Cursor[T], opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go streamWorker(ctx, cursor, options, resultCh)
	return resultCh
}

func streamWorker[T any](
	ctx context.Context,
	cursor Cursor[T],
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)
	defer cursor.Close(context.WithoutCancel(ctx))

	var index int64
	startTime := time.Now()
	progress := storagemodels.StreamProgress{StartTime: startTime}

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress.ItemsProcessed = index
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(index) / elapsed
		}
		options.ProgressHandler(progress)
	}
	defer reportProgress()

	send := func(r storagemodels.StreamResult[T]) bool {
		select {
		case resultCh <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// fail reports an error and tells whether streaming may go on.
	fail := func(err error) bool {
		progress.Errors++
		ok := send(storagemodels.StreamResult[T]{
			Error: err,
			Meta:  storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
		})
		return ok && options.ErrorHandler != nil && options.ErrorHandler(err)
	}

	if options.BatchSize > 0 {
		if err := cursor.SetBatchSize(options.BatchSize); err != nil {
			fail(err)
			return
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		more, err := cursor.HasNext(ctx)
		if err != nil {
			// The cursor cannot advance past a failed fetch.
			fail(err)
			return
		}
		if !more {
			return
		}
		item, err := cursor.Next(ctx)
		if err != nil {
			if !fail(err) {
				return
			}
			index++
			continue
		}
		if !send(storagemodels.StreamResult[T]{
			Item: item,
			Meta: storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
		}) {
			return
		}
		index++
		if options.ProgressEvery > 0 && index%options.ProgressEvery == 0 {
			reportProgress()
		}
	}
}
