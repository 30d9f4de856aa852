/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement

import (
	"fmt"

	"github.com/suparena/statstore/storagemodels"
)

// Descriptor is the text of a prepared statement bound to the category it
// operates on. The category token in Text must name Category.
type Descriptor[T any] struct {
	Category *storagemodels.Category[T]
	Text     string
}

// NewDescriptor pairs a category with descriptor text.
func NewDescriptor[T any](category *storagemodels.Category[T], text string) Descriptor[T] {
	return Descriptor[T]{Category: category, Text: text}
}

func (d Descriptor[T]) String() string {
	name := "<nil>"
	if d.Category != nil {
		name = d.Category.Name()
	}
	return fmt.Sprintf("Descriptor{category=%s, text=%q}", name, d.Text)
}

// Kind is the statement type a descriptor starts with.
type Kind int

const (
	KindQuery Kind = iota
	KindQueryCount
	KindQueryDistinct
	KindAdd
	KindReplace
	KindUpdate
	KindRemove
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "QUERY"
	case KindQueryCount:
		return "QUERY-COUNT"
	case KindQueryDistinct:
		return "QUERY-DISTINCT"
	case KindAdd:
		return "ADD"
	case KindReplace:
		return "REPLACE"
	case KindUpdate:
		return "UPDATE"
	case KindRemove:
		return "REMOVE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsQuery reports whether statements of this kind read records.
func (k Kind) IsQuery() bool {
	return k == KindQuery || k == KindQueryCount || k == KindQueryDistinct
}

// ParamKind is the value type of a free parameter.
type ParamKind byte

const (
	ParamString  ParamKind = 's'
	ParamInt     ParamKind = 'i'
	ParamLong    ParamKind = 'l'
	ParamBoolean ParamKind = 'b'
	ParamDouble  ParamKind = 'd'
	ParamPojo    ParamKind = 'p'
)

// ParamType is the declared type of a free parameter such as ?s or ?l[.
type ParamType struct {
	Kind ParamKind
	List bool
}

func (p ParamType) String() string {
	if p.List {
		return "?" + string(p.Kind) + "["
	}
	return "?" + string(p.Kind)
}

func parseParamType(tok string) (ParamType, bool) {
	if len(tok) < 2 || len(tok) > 3 || tok[0] != '?' {
		return ParamType{}, false
	}
	kind := ParamKind(tok[1])
	switch kind {
	case ParamString, ParamInt, ParamLong, ParamBoolean, ParamDouble, ParamPojo:
	default:
		return ParamType{}, false
	}
	if len(tok) == 3 {
		if tok[2] != '[' {
			return ParamType{}, false
		}
		return ParamType{Kind: kind, List: true}, true
	}
	return ParamType{Kind: kind}, true
}
