/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/logger"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of parsed descriptors a Factory keeps.
const DefaultCacheSize = 128

// Factory prepares statements and caches parsed descriptors. It is safe
// for concurrent use.
type Factory struct {
	cache *lru.Cache
	log   *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.log = logger.For(log, logger.ComponentStatements)
	}
}

// NewFactory creates a factory caching up to size parsed descriptors.
func NewFactory(size int, opts ...FactoryOption) (*Factory, error) {
	if size <= 0 {
		return nil, errors.NewValidationError("cacheSize", "must be > 0")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	f := &Factory{cache: cache, log: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

type cacheKey struct {
	category string
	record   reflect.Type
	text     string
}

// Len returns the number of cached descriptors.
func (f *Factory) Len() int {
	return f.cache.Len()
}

// Purge drops every cached descriptor.
func (f *Factory) Purge() {
	f.cache.Purge()
}

// Prepare parses desc, or reuses a cached parse, and binds it to stmts.
// stmts must serve the descriptor's category.
func Prepare[T any](f *Factory, stmts datastore.StatementFactory[T], desc Descriptor[T]) (*PreparedStatement[T], error) {
	if desc.Category == nil {
		return nil, errors.NewDescriptorParsingError(desc.Text, "descriptor has no category")
	}
	if got := stmts.Category().Name(); got != desc.Category.Name() {
		return nil, errors.NewIllegalStateError("statements for %q cannot serve descriptor of %q", got, desc.Category.Name())
	}
	parsed, err := lookup(f, desc)
	if err != nil {
		return nil, err
	}
	return newPrepared(parsed, stmts), nil
}

func lookup[T any](f *Factory, desc Descriptor[T]) (*Parsed[T], error) {
	key := cacheKey{
		category: desc.Category.Name(),
		record:   reflect.TypeOf((*T)(nil)).Elem(),
		text:     desc.Text,
	}
	if v, ok := f.cache.Get(key); ok {
		if parsed, ok := v.(*Parsed[T]); ok && parsed.desc.Category == desc.Category {
			return parsed, nil
		}
	}

	parsed, err := Parse(desc)
	if err != nil {
		f.log.Debug("descriptor rejected", zap.String("descriptor", desc.Text), zap.Error(err))
		return nil, err
	}
	f.cache.Add(key, parsed)
	f.log.Debug("descriptor parsed",
		zap.String("descriptor", desc.Text), zap.String("kind", parsed.kind.String()), zap.Int("params", parsed.NumParams()))
	return parsed, nil
}
