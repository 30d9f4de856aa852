/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statstore

import (
	goerrors "errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/statement"
)

// TypedDescriptors holds the statement descriptors registered for record type T
type TypedDescriptors[T any] struct {
	mu          sync.RWMutex
	descriptors []statement.Descriptor[T]
	texts       map[string]bool
}

// NewTypedDescriptors creates an empty descriptor set for type T
func NewTypedDescriptors[T any]() *TypedDescriptors[T] {
	return &TypedDescriptors[T]{
		texts: make(map[string]bool),
	}
}

// Register adds descriptors. Registering the same category and text twice is
// an AlreadyExistsError; nothing is added in that case.
func (td *TypedDescriptors[T]) Register(descs ...statement.Descriptor[T]) error {
	td.mu.Lock()
	defer td.mu.Unlock()

	batch := make(map[string]bool, len(descs))
	for _, d := range descs {
		if d.Category == nil {
			return errors.NewValidationError("category", "descriptor without category: "+d.Text)
		}
		id := d.Category.Name() + "\x00" + d.Text
		if td.texts[id] || batch[id] {
			return errors.NewAlreadyExistsError("descriptor", d.Text)
		}
		batch[id] = true
	}

	for id := range batch {
		td.texts[id] = true
	}
	td.descriptors = append(td.descriptors, descs...)
	return nil
}

// List returns the registered descriptors in registration order
func (td *TypedDescriptors[T]) List() []statement.Descriptor[T] {
	td.mu.RLock()
	defer td.mu.RUnlock()

	out := make([]statement.Descriptor[T], len(td.descriptors))
	copy(out, td.descriptors)
	return out
}

// Len returns the number of registered descriptors
func (td *TypedDescriptors[T]) Len() int {
	td.mu.RLock()
	defer td.mu.RUnlock()
	return len(td.descriptors)
}

// validate parses every descriptor and collects the failures
func (td *TypedDescriptors[T]) validate() error {
	var errs []error
	for _, d := range td.List() {
		if _, err := statement.Parse(d); err != nil {
			errs = append(errs, err)
		}
	}
	return goerrors.Join(errs...)
}

type descriptorSet interface {
	validate() error
	Len() int
}

// DescriptorRegistry keeps one TypedDescriptors per record type. DAOs
// register their descriptors while wiring; DbService validates all of them
// once connected.
type DescriptorRegistry struct {
	mu   sync.RWMutex
	sets map[reflect.Type]descriptorSet
}

// NewDescriptorRegistry creates an empty registry
func NewDescriptorRegistry() *DescriptorRegistry {
	return &DescriptorRegistry{
		sets: make(map[reflect.Type]descriptorSet),
	}
}

// DescriptorsFor returns the descriptor set for type T, creating it if necessary
func DescriptorsFor[T any](r *DescriptorRegistry) *TypedDescriptors[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if set, exists := r.sets[typ]; exists {
		return set.(*TypedDescriptors[T])
	}

	set := NewTypedDescriptors[T]()
	r.sets[typ] = set
	return set
}

// RegisterDescriptors is a convenience function to register descriptors for type T
func RegisterDescriptors[T any](r *DescriptorRegistry, descs ...statement.Descriptor[T]) error {
	return DescriptorsFor[T](r).Register(descs...)
}

// ListDescriptors is a convenience function to list the descriptors of type T
func ListDescriptors[T any](r *DescriptorRegistry) []statement.Descriptor[T] {
	return DescriptorsFor[T](r).List()
}

// Len returns the number of descriptors over all types
func (r *DescriptorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.sets {
		n += set.Len()
	}
	return n
}

// Validate parses every registered descriptor. Failures are joined, ordered
// by record type name.
func (r *DescriptorRegistry) Validate() error {
	r.mu.RLock()
	types := make([]reflect.Type, 0, len(r.sets))
	for typ := range r.sets {
		types = append(types, typ)
	}
	sets := make(map[reflect.Type]descriptorSet, len(r.sets))
	for typ, set := range r.sets {
		sets[typ] = set
	}
	r.mu.RUnlock()

	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })

	var errs []error
	for _, typ := range types {
		if err := sets[typ].validate(); err != nil {
			errs = append(errs, fmt.Errorf("descriptors for %s: %w", typ, err))
		}
	}
	return goerrors.Join(errs...)
}
