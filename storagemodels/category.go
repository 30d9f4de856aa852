/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"reflect"
	"strings"
)

// CategoryInfo is the type-erased view of a Category that backends use for
// registration and bookkeeping.
type CategoryInfo interface {
	Name() string
	Keys() []Keyed
	Key(name string) (Keyed, bool)
	// IndexedKeys returns the keys of the compound index in declaration order.
	IndexedKeys() []Keyed
	DataType() reflect.Type
	// IsAggregate reports whether the category is a virtual view over another
	// category's collection that yields aggregate results.
	IsAggregate() bool
}

// Category identifies a named collection of homogeneous records of type T.
type Category[T any] struct {
	name      string
	keys      []Keyed
	byName    map[string]Keyed
	indexed   []Keyed
	dataType  reflect.Type
	aggregate bool
}

// NewCategory creates a category definition. Key names must be unique.
func NewCategory[T any](name string, keys ...Keyed) (*Category[T], error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("category name must not be empty")
	}
	dataType := reflect.TypeOf((*T)(nil)).Elem()
	if dataType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("category %q: data type %s is not a struct", name, dataType)
	}

	c := &Category[T]{
		name:     name,
		keys:     make([]Keyed, 0, len(keys)),
		byName:   make(map[string]Keyed, len(keys)),
		dataType: dataType,
	}
	for _, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("category %q: nil key", name)
		}
		if _, dup := c.byName[k.Name()]; dup {
			return nil, fmt.Errorf("category %q: duplicate key %q", name, k.Name())
		}
		c.keys = append(c.keys, k)
		c.byName[k.Name()] = k
		if k.Indexed() {
			c.indexed = append(c.indexed, k)
		}
	}
	return c, nil
}

// MustCategory is like NewCategory but panics on an invalid definition. It is
// meant for package-level category variables.
func MustCategory[T any](name string, keys ...Keyed) *Category[T] {
	c, err := NewCategory[T](name, keys...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Category[T]) Name() string {
	return c.name
}

func (c *Category[T]) Keys() []Keyed {
	out := make([]Keyed, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Category[T]) Key(name string) (Keyed, bool) {
	k, ok := c.byName[name]
	return k, ok
}

func (c *Category[T]) IndexedKeys() []Keyed {
	out := make([]Keyed, len(c.indexed))
	copy(out, c.indexed)
	return out
}

func (c *Category[T]) DataType() reflect.Type {
	return c.dataType
}

func (c *Category[T]) IsAggregate() bool {
	return c.aggregate
}

func (c *Category[T]) String() string {
	names := make([]string, len(c.keys))
	for i, k := range c.keys {
		names[i] = k.Name()
	}
	return fmt.Sprintf("Category{%s %s [%s]}", c.name, c.dataType, strings.Join(names, ", "))
}

// AggregateResult constrains the result types of aggregate queries.
type AggregateResult interface {
	AggregateCount | AggregateDistinct
}

// AdaptCategory derives the aggregate view of a category. The view shares
// name and keys with the source category, so aggregate queries read the
// source collection, but its records are of type A. Registering the view is
// a no-op.
func AdaptCategory[A AggregateResult, T any](c *Category[T]) *Category[A] {
	return &Category[A]{
		name:      c.name,
		keys:      c.keys,
		byName:    c.byName,
		indexed:   c.indexed,
		dataType:  reflect.TypeOf((*A)(nil)).Elem(),
		aggregate: true,
	}
}
