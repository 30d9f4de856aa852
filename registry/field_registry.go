/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/statstore/errors"
)

// PersistTag is the struct tag marking a field as persistent.
const PersistTag = "persist"

// FieldDescriptor describes one persistent field of a record type.
type FieldDescriptor struct {
	Name  string // Document field name
	Field string // Go field name
	Index []int  // Index sequence for reflect.Value.FieldByIndex
	Type  reflect.Type
}

// TypeDescriptor is the persistent field table of a record type. It is built
// once per type and shared; callers must not modify it.
type TypeDescriptor struct {
	Type   reflect.Type
	Fields []FieldDescriptor
	byName map[string]int
}

// Field looks up a persistent field by its document name.
func (d *TypeDescriptor) Field(name string) (FieldDescriptor, bool) {
	i, ok := d.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return d.Fields[i], true
}

// Names returns the document field names in declaration order.
func (d *TypeDescriptor) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

var (
	descriptors = make(map[reflect.Type]*TypeDescriptor)
	mu          sync.RWMutex
)

// Describe returns the persistent field table for struct type t, building and
// caching it on first use.
func Describe(t reflect.Type) (*TypeDescriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.NewConversionError(typeName(t), "", "not a struct type")
	}

	mu.RLock()
	d, ok := descriptors[t]
	mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := build(t)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := descriptors[t]; ok {
		return existing, nil
	}
	descriptors[t] = d
	return d, nil
}

// DescribeType is the generic form of Describe.
func DescribeType[T any]() (*TypeDescriptor, error) {
	return Describe(reflect.TypeOf((*T)(nil)).Elem())
}

func build(t reflect.Type) (*TypeDescriptor, error) {
	d := &TypeDescriptor{Type: t, byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, ok := sf.Tag.Lookup(PersistTag)
		if !ok || name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if !sf.IsExported() {
			return nil, errors.NewConversionError(t.String(), name, "persistent field "+sf.Name+" is not exported")
		}
		if name == "_id" {
			return nil, errors.NewConversionError(t.String(), name, "the _id field is reserved")
		}
		if _, dup := d.byName[name]; dup {
			return nil, errors.NewConversionError(t.String(), name, "duplicate persistent field name")
		}
		d.byName[name] = len(d.Fields)
		d.Fields = append(d.Fields, FieldDescriptor{
			Name:  name,
			Field: sf.Name,
			Index: sf.Index,
			Type:  sf.Type,
		})
	}
	return d, nil
}

// DescribedTypes lists the types with a cached descriptor, sorted by name.
func DescribedTypes() []reflect.Type {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]reflect.Type, 0, len(descriptors))
	for t := range descriptors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
