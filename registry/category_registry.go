/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"sync"

	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/storagemodels"
)

// Categories maps category names to the first definition registered under
// that name. Each storage engine owns one, so engines on different databases
// may hold different definitions under the same name.
type Categories struct {
	mu     sync.RWMutex
	byName map[string]storagemodels.CategoryInfo
}

// NewCategories returns an empty category registry.
func NewCategories() *Categories {
	return &Categories{byName: make(map[string]storagemodels.CategoryInfo)}
}

// Register records a category definition by name. Registering an equivalent
// definition again is a no-op. A definition with other keys or another data
// type under a taken name is rejected with an AlreadyExistsError.
func (r *Categories) Register(c storagemodels.CategoryInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[c.Name()]; ok {
		if sameCategory(existing, c) {
			return nil
		}
		return errors.NewAlreadyExistsError("category", c.Name())
	}
	r.byName[c.Name()] = c
	return nil
}

// Lookup returns the category registered under name.
func (r *Categories) Lookup(name string) (storagemodels.CategoryInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	if !ok {
		return nil, errors.NewNotFoundError("category", name)
	}
	return c, nil
}

// Names returns the registered names in sorted order.
func (r *Categories) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sameCategory compares definitions structurally: data type and keys. An
// aggregate view matches its source regardless of data type.
func sameCategory(a, b storagemodels.CategoryInfo) bool {
	if a == b {
		return true
	}
	if !a.IsAggregate() && !b.IsAggregate() && a.DataType() != b.DataType() {
		return false
	}
	ak, bk := a.Keys(), b.Keys()
	if len(ak) != len(bk) {
		return false
	}
	for i := range ak {
		if !storagemodels.SameKey(ak[i], bk[i]) {
			return false
		}
	}
	return true
}
