/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/registry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// idField is the driver's document identity; it never maps to a record field.
const idField = "_id"

var timeType = reflect.TypeOf(time.Time{})

// ToDocument converts a record into a document holding its persistent fields
// in declaration order. Nil pointers, slices, maps and interfaces are
// omitted. Nested structs become nested documents.
func ToDocument(pojo any) (bson.D, error) {
	v := reflect.ValueOf(pojo)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errors.NewConversionError(fmt.Sprintf("%T", pojo), "", "nil record")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.NewConversionError(fmt.Sprintf("%T", pojo), "", "not a struct")
	}
	return encodeStruct(v)
}

// EncodeValue converts a single field value the way ToDocument converts
// record fields. A nil value encodes to nil.
func EncodeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	encoded, _, err := encodeValue(reflect.ValueOf(value))
	return encoded, err
}

func encodeStruct(v reflect.Value) (bson.D, error) {
	desc, err := registry.Describe(v.Type())
	if err != nil {
		return nil, err
	}
	doc := make(bson.D, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		value, present, err := encodeValue(v.FieldByIndex(f.Index))
		if err != nil {
			return nil, wrapField(err, v.Type(), f.Name)
		}
		if present {
			doc = append(doc, bson.E{Key: f.Name, Value: value})
		}
	}
	return doc, nil
}

func encodeValue(v reflect.Value) (any, bool, error) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, false, nil
		}
		return encodeValue(v.Elem())
	case reflect.Bool:
		return v.Bool(), true, nil
	case reflect.String:
		return v.String(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, false, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), true, nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), true, nil
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time), true, nil
		}
		doc, err := encodeStruct(v)
		return doc, err == nil, err
	case reflect.Slice:
		if v.IsNil() {
			return nil, false, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), v.Bytes()...), true, nil
		}
		return encodeSequence(v)
	case reflect.Array:
		return encodeSequence(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, false, nil
		}
		return encodeMap(v)
	default:
		return nil, false, fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

func encodeSequence(v reflect.Value) (any, bool, error) {
	arr := make(bson.A, v.Len())
	for i := 0; i < v.Len(); i++ {
		el, present, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, false, fmt.Errorf("element %d: %w", i, err)
		}
		if present {
			arr[i] = el
		}
	}
	return arr, true, nil
}

func encodeMap(v reflect.Value) (any, bool, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, false, fmt.Errorf("map key type %s is not a string", v.Type().Key())
	}
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		el, present, err := encodeValue(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
		if err != nil {
			return nil, false, fmt.Errorf("key %q: %w", k, err)
		}
		if present {
			doc = append(doc, bson.E{Key: k, Value: el})
		}
	}
	return doc, true, nil
}

// FromDocument converts a document into a new record of type T. Every
// document key other than _id must map to a persistent field of T.
func FromDocument[T any](doc bson.D) (*T, error) {
	out := new(T)
	if err := DecodeInto(doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto fills the struct target points to from doc.
func DecodeInto(doc bson.D, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return errors.NewConversionError(fmt.Sprintf("%T", target), "", "target must be a non-nil struct pointer")
	}
	return decodeStruct(doc, v.Elem())
}

func decodeStruct(doc bson.D, v reflect.Value) error {
	desc, err := registry.Describe(v.Type())
	if err != nil {
		return err
	}
	for _, e := range doc {
		if e.Key == idField {
			continue
		}
		f, ok := desc.Field(e.Key)
		if !ok {
			return errors.NewConversionError(v.Type().String(), e.Key, "document key has no persistent field")
		}
		value, err := decodeValue(e.Value, f.Type)
		if err != nil {
			return wrapField(err, v.Type(), f.Name)
		}
		v.FieldByIndex(f.Index).Set(value)
	}
	return nil
}

func decodeValue(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := decodeValue(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Interface:
		plain := plainValue(raw)
		if plain == nil {
			return reflect.Zero(t), nil
		}
		pv := reflect.ValueOf(plain)
		if !pv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", raw, t)
		}
		out := reflect.New(t).Elem()
		out.Set(pv)
		return out, nil
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(b).Convert(t), nil
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		return reflect.ValueOf(s).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
		}
		out.SetInt(n)
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := toInt64(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.New(t).Elem()
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
		}
		out.SetUint(uint64(n))
		return out, nil
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat64(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.New(t).Elem()
		out.SetFloat(f)
		return out, nil
	case reflect.Struct:
		if t == timeType {
			switch x := raw.(type) {
			case time.Time:
				return reflect.ValueOf(x), nil
			case primitive.DateTime:
				return reflect.ValueOf(x.Time().UTC()), nil
			}
			return reflect.Value{}, mismatch(raw, t)
		}
		doc, ok := raw.(bson.D)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.New(t).Elem()
		if err := decodeStruct(doc, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			switch x := raw.(type) {
			case []byte:
				return reflect.ValueOf(append([]byte(nil), x...)).Convert(t), nil
			case primitive.Binary:
				return reflect.ValueOf(append([]byte(nil), x.Data...)).Convert(t), nil
			}
		}
		arr, ok := asSequence(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.MakeSlice(t, len(arr), len(arr))
		for i, el := range arr {
			ev, err := decodeValue(el, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Array:
		arr, ok := asSequence(raw)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		if len(arr) != t.Len() {
			return reflect.Value{}, fmt.Errorf("sequence of %d elements does not fit %s", len(arr), t)
		}
		out := reflect.New(t).Elem()
		for i, el := range arr {
			ev, err := decodeValue(el, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("map key type %s is not a string", t.Key())
		}
		doc, ok := raw.(bson.D)
		if !ok {
			return reflect.Value{}, mismatch(raw, t)
		}
		out := reflect.MakeMapWithSize(t, len(doc))
		for _, e := range doc {
			ev, err := decodeValue(e.Value, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %q: %w", e.Key, err)
			}
			out.SetMapIndex(reflect.ValueOf(e.Key).Convert(t.Key()), ev)
		}
		return out, nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

// plainValue turns driver container types into plain Go values for
// interface-typed fields.
func plainValue(raw any) any {
	switch x := raw.(type) {
	case bson.A:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = plainValue(el)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Binary:
		return append([]byte(nil), x.Data...)
	default:
		return raw
	}
}

func asSequence(raw any) ([]any, bool) {
	switch x := raw.(type) {
	case bson.A:
		return x, true
	case []any:
		return x, true
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, false
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
}

func toInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

func toFloat64(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func mismatch(raw any, t reflect.Type) error {
	return fmt.Errorf("cannot store %T in %s", raw, t)
}

func wrapField(err error, t reflect.Type, field string) error {
	if errors.IsConversionError(err) {
		return err
	}
	return errors.NewConversionError(t.String(), field, err.Error())
}
