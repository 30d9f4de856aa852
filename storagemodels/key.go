/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"reflect"
)

// Keyed is the type-erased view of a Key, used wherever keys of different
// value types are held together (category key sets, sort lists, set lists).
type Keyed interface {
	// Name is the document field name.
	Name() string
	// ValueType is the Go type of the values stored under this key.
	ValueType() reflect.Type
	// Indexed reports whether the key takes part in the category index.
	Indexed() bool
}

// Key is a named, typed field identifier.
type Key[V any] struct {
	name    string
	indexed bool
}

// NewKey creates a key that does not take part in category indexing.
func NewKey[V any](name string) Key[V] {
	return Key[V]{name: name}
}

// NewIndexedKey creates a key that is part of the category's compound index.
func NewIndexedKey[V any](name string) Key[V] {
	return Key[V]{name: name, indexed: true}
}

func (k Key[V]) Name() string {
	return k.name
}

func (k Key[V]) ValueType() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}

func (k Key[V]) Indexed() bool {
	return k.indexed
}

func (k Key[V]) String() string {
	return fmt.Sprintf("Key[%s]{%s}", k.ValueType(), k.name)
}

// SameKey reports whether two keys are equal by name and value type. The
// indexing flag does not take part in key equality.
func SameKey(a, b Keyed) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name() == b.Name() && a.ValueType() == b.ValueType()
}

// Well-known keys shared by all categories.
var (
	// AgentIDKey identifies the agent that wrote a record. Every Add must carry it.
	AgentIDKey = NewIndexedKey[string]("agentId")
	// VMIDKey identifies the monitored virtual machine.
	VMIDKey = NewIndexedKey[string]("vmId")
	// TimestampKey is the record's sample time in milliseconds since the epoch.
	TimestampKey = NewKey[int64]("timeStamp")
)
