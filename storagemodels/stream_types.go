/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult represents a single record drained from a cursor
type StreamResult[T any] struct {
	Item  *T         // The converted record, nil when Error is set
	Error error      // Record-specific error, if any
	Meta  StreamMeta // Metadata about this record
}

// StreamMeta contains metadata about a streamed record
type StreamMeta struct {
	Index     int64     // Record index in stream (0-based)
	Timestamp time.Time // When the record was read
}

// StreamOptions configures cursor streaming
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	BatchSize       int                  // Cursor batch size, 0 keeps the driver default
	ProgressEvery   int64                // Report progress every N records (default: 1000)
	ProgressHandler func(StreamProgress) // Optional progress callback
	ErrorHandler    func(error) bool     // Return true to continue, false to stop
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64     // Total records processed
	Errors         int       // Accumulated non-fatal errors
	StartTime      time.Time // When streaming started
	CurrentRate    float64   // Records per second
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:    100,
		ProgressEvery: 1000,
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithBatchSize sets the cursor batch size before the first read
func WithBatchSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BatchSize = size
	}
}

// WithProgressHandler sets a progress callback invoked every n records and once at the end
func WithProgressHandler(every int64, handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		if every > 0 {
			opts.ProgressEvery = every
		}
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}
