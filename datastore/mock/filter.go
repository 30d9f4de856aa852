/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches evaluates a filter in the query dialect against one document. The
// supported operators are the ones the storage engine emits: implicit
// equality, $ne, $lt, $lte, $gt, $gte, $in, $nin, $exists, $and, $or and $not.
func matches(doc bson.D, filter bson.D) (bool, error) {
	for _, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch cond.Key {
		case "$and", "$or":
			ok, err = matchLogical(doc, cond.Key, cond.Value)
		default:
			if strings.HasPrefix(cond.Key, "$") {
				return false, fmt.Errorf("unknown top level operator: %s", cond.Key)
			}
			value, present := lookup(doc, cond.Key)
			ok, err = matchField(value, present, cond.Value)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLogical(doc bson.D, op string, operand any) (bool, error) {
	clauses, ok := asArray(operand)
	if !ok || len(clauses) == 0 {
		return false, fmt.Errorf("%s must be a nonempty array", op)
	}
	for _, c := range clauses {
		sub, ok := c.(bson.D)
		if !ok {
			return false, fmt.Errorf("%s argument's entries must be objects", op)
		}
		hit, err := matches(doc, sub)
		if err != nil {
			return false, err
		}
		if op == "$or" && hit {
			return true, nil
		}
		if op == "$and" && !hit {
			return false, nil
		}
	}
	return op == "$and", nil
}

func matchField(value any, present bool, cond any) (bool, error) {
	ops, isOps := operatorDoc(cond)
	if !isOps {
		return present && equalsOrContains(value, cond), nil
	}
	for _, op := range ops {
		ok, err := matchOperator(value, present, op.Key, op.Value)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOperator(value any, present bool, op string, arg any) (bool, error) {
	switch op {
	case "$ne":
		return !present || !equalsOrContains(value, arg), nil
	case "$lt", "$lte", "$gt", "$gte":
		if !present {
			return false, nil
		}
		c, ok := compare(value, arg)
		if !ok {
			return false, nil
		}
		switch op {
		case "$lt":
			return c < 0, nil
		case "$lte":
			return c <= 0, nil
		case "$gt":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "$in", "$nin":
		set, ok := asArray(arg)
		if !ok {
			return false, fmt.Errorf("%s needs an array", op)
		}
		found := false
		for _, candidate := range set {
			if present && equalsOrContains(value, candidate) {
				found = true
				break
			}
		}
		if op == "$in" {
			return found, nil
		}
		return !found, nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return false, fmt.Errorf("$exists needs a boolean")
		}
		return present == want, nil
	case "$not":
		inner, ok := operatorDoc(arg)
		if !ok {
			return false, fmt.Errorf("$not needs a regex or a document")
		}
		hit, err := matchField(value, present, inner)
		return !hit, err
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

// operatorDoc reports whether v is an operator document such as {$gt: 5}.
func operatorDoc(v any) (bson.D, bool) {
	d, ok := v.(bson.D)
	if !ok || len(d) == 0 || !strings.HasPrefix(d[0].Key, "$") {
		return nil, false
	}
	return d, true
}

func lookup(doc bson.D, path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	for _, e := range doc {
		if e.Key != head {
			continue
		}
		if !nested {
			return e.Value, true
		}
		sub, ok := e.Value.(bson.D)
		if !ok {
			return nil, false
		}
		return lookup(sub, rest)
	}
	return nil, false
}

// equalsOrContains applies equality, matching array fields by any element.
func equalsOrContains(value, arg any) bool {
	if valuesEqual(value, arg) {
		return true
	}
	if arr, ok := asArray(value); ok {
		for _, el := range arr {
			if valuesEqual(el, arg) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// compare orders two scalars of the same type class. Numbers compare by value
// regardless of width.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case nil:
		if b == nil {
			return 0, true
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmpOrdered(boolRank(x), boolRank(y)), true
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case float32:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC().Truncate(time.Millisecond)
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(x))
		for i, e := range x {
			out[i] = bson.E{Key: e.Key, Value: normalize(e.Value)}
		}
		return out
	default:
		return v
	}
}

func asArray(v any) ([]any, bool) {
	switch x := v.(type) {
	case bson.A:
		return x, true
	case []any:
		return x, true
	default:
		return nil, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[V int | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortDocs orders documents by a sort specification of field: 1|-1 pairs.
// Missing fields sort before present ones.
func sortDocs(docs []bson.D, spec bson.D) error {
	for _, e := range spec {
		if dir := directionOf(e.Value); dir == 0 {
			return fmt.Errorf("invalid sort direction for %q: %v", e.Key, e.Value)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, e := range spec {
			a, aok := lookup(docs[i], e.Key)
			b, bok := lookup(docs[j], e.Key)
			var c int
			switch {
			case !aok && !bok:
				c = 0
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				c, _ = compare(a, b)
			}
			if c != 0 {
				return c*directionOf(e.Value) < 0
			}
		}
		return false
	})
	return nil
}

func directionOf(v any) int {
	switch x := normalize(v).(type) {
	case float64:
		if x > 0 {
			return 1
		}
		if x < 0 {
			return -1
		}
	}
	return 0
}
