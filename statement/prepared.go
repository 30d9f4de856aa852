/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement

import (
	"context"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// PreparedStatement is a parsed descriptor plus the values bound to its
// free parameters. Bound values survive executions. A PreparedStatement is
// not safe for concurrent use.
type PreparedStatement[T any] struct {
	parsed *Parsed[T]
	stmts  datastore.StatementFactory[T]
	values []boundValue
	err    error
}

type boundValue struct {
	set   bool
	typ   ParamType
	value any
}

func newPrepared[T any](parsed *Parsed[T], stmts datastore.StatementFactory[T]) *PreparedStatement[T] {
	return &PreparedStatement[T]{
		parsed: parsed,
		stmts:  stmts,
		values: make([]boundValue, parsed.NumParams()),
	}
}

// Parsed returns the parsed descriptor.
func (ps *PreparedStatement[T]) Parsed() *Parsed[T] {
	return ps.parsed
}

func (ps *PreparedStatement[T]) bind(index int, typ ParamType, value any) {
	if index < 0 || index >= len(ps.values) {
		ps.err = errors.NewIllegalStateError("parameter index %d out of range; %q has %d parameters",
			index, ps.parsed.desc.Text, len(ps.values))
		return
	}
	ps.values[index] = boundValue{set: true, typ: typ, value: value}
}

func (ps *PreparedStatement[T]) SetString(index int, v string) {
	ps.bind(index, ParamType{Kind: ParamString}, v)
}

func (ps *PreparedStatement[T]) SetStringList(index int, v []string) {
	ps.bind(index, ParamType{Kind: ParamString, List: true}, append([]string(nil), v...))
}

func (ps *PreparedStatement[T]) SetInt(index int, v int) {
	ps.bind(index, ParamType{Kind: ParamInt}, v)
}

func (ps *PreparedStatement[T]) SetIntList(index int, v []int) {
	ps.bind(index, ParamType{Kind: ParamInt, List: true}, append([]int(nil), v...))
}

func (ps *PreparedStatement[T]) SetLong(index int, v int64) {
	ps.bind(index, ParamType{Kind: ParamLong}, v)
}

func (ps *PreparedStatement[T]) SetLongList(index int, v []int64) {
	ps.bind(index, ParamType{Kind: ParamLong, List: true}, append([]int64(nil), v...))
}

func (ps *PreparedStatement[T]) SetBoolean(index int, v bool) {
	ps.bind(index, ParamType{Kind: ParamBoolean}, v)
}

func (ps *PreparedStatement[T]) SetBooleanList(index int, v []bool) {
	ps.bind(index, ParamType{Kind: ParamBoolean, List: true}, append([]bool(nil), v...))
}

func (ps *PreparedStatement[T]) SetDouble(index int, v float64) {
	ps.bind(index, ParamType{Kind: ParamDouble}, v)
}

func (ps *PreparedStatement[T]) SetDoubleList(index int, v []float64) {
	ps.bind(index, ParamType{Kind: ParamDouble, List: true}, append([]float64(nil), v...))
}

// SetPojo binds a struct value to a ?p parameter.
func (ps *PreparedStatement[T]) SetPojo(index int, v any) {
	ps.bind(index, ParamType{Kind: ParamPojo}, v)
}

// SetPojoList binds a slice of structs to a ?p[ parameter.
func (ps *PreparedStatement[T]) SetPojoList(index int, v any) {
	ps.bind(index, ParamType{Kind: ParamPojo, List: true}, v)
}

// ExecuteQuery runs a QUERY, QUERY-COUNT or QUERY-DISTINCT statement.
func (ps *PreparedStatement[T]) ExecuteQuery(ctx context.Context) (datastore.Cursor[T], error) {
	if !ps.parsed.kind.IsQuery() {
		return nil, errors.NewIllegalStateError("%s is not a query; use Execute", ps.parsed.kind)
	}
	b, err := ps.binding()
	if err != nil {
		return nil, err
	}

	var q datastore.Query[T]
	switch ps.parsed.kind {
	case KindQueryCount, KindQueryDistinct:
		fn := storagemodels.AggregateFunctionCount
		if ps.parsed.kind == KindQueryDistinct {
			fn = storagemodels.AggregateFunctionDistinct
		}
		aq, err := ps.stmts.CreateAggregateQuery(fn)
		if err != nil {
			return nil, err
		}
		if name := ps.parsed.aggregateKey; name != "" {
			aq.SetAggregateKey(b.key(name))
		}
		q = aq
	default:
		q = ps.stmts.CreateQuery()
	}

	if err := b.patchWhere(q.Where); err != nil {
		return nil, err
	}
	for _, m := range ps.parsed.sort {
		name, err := b.keyName(m.key)
		if err != nil {
			return nil, err
		}
		q.Sort(b.key(name), m.direction)
	}
	if lim := ps.parsed.limit; lim != nil {
		v, err := b.value(*lim)
		if err != nil {
			return nil, err
		}
		q.Limit(v.(int))
	}
	return q.Execute(ctx)
}

// Execute runs an ADD, REPLACE, UPDATE or REMOVE statement and returns the
// number of records affected.
func (ps *PreparedStatement[T]) Execute(ctx context.Context) (int, error) {
	if ps.parsed.kind.IsQuery() {
		return 0, errors.NewIllegalStateError("%s is a query; use ExecuteQuery", ps.parsed.kind)
	}
	b, err := ps.binding()
	if err != nil {
		return 0, err
	}

	switch ps.parsed.kind {
	case KindAdd:
		pojo, err := ps.pojo(b)
		if err != nil {
			return 0, err
		}
		add := ps.stmts.CreateAdd()
		add.SetPojo(pojo)
		return add.Apply(ctx)
	case KindReplace:
		pojo, err := ps.pojo(b)
		if err != nil {
			return 0, err
		}
		replace := ps.stmts.CreateReplace()
		replace.SetPojo(pojo)
		if err := b.patchWhere(replace.Where); err != nil {
			return 0, err
		}
		return replace.Apply(ctx)
	case KindUpdate:
		update := ps.stmts.CreateUpdate()
		for _, pair := range ps.parsed.set {
			v, err := b.value(pair.value)
			if err != nil {
				return 0, err
			}
			update.Set(b.key(pair.key.literal.(string)), v)
		}
		if err := b.patchWhere(update.Where); err != nil {
			return 0, err
		}
		return update.Apply(ctx)
	default:
		remove := ps.stmts.CreateRemove()
		if err := b.patchWhere(remove.Where); err != nil {
			return 0, err
		}
		return remove.Apply(ctx)
	}
}

// binding checks every parameter is bound with its declared type.
func (ps *PreparedStatement[T]) binding() (*binding, error) {
	if ps.err != nil {
		return nil, ps.err
	}
	for i, declared := range ps.parsed.params {
		got := ps.values[i]
		if !got.set {
			return nil, errors.NewIllegalStateError("parameter %d (%s) of %q is not bound", i, declared, ps.parsed.desc.Text)
		}
		if got.typ != declared {
			return nil, errors.NewIllegalStateError("parameter %d of %q is declared %s but bound as %s",
				i, ps.parsed.desc.Text, declared, got.typ)
		}
	}
	return &binding{
		category: ps.parsed.desc.Category,
		values:   ps.values,
		where:    ps.parsed.where,
	}, nil
}

// pojo converts the SET list into a record through the strict converter.
func (ps *PreparedStatement[T]) pojo(b *binding) (*T, error) {
	doc := make(bson.D, 0, len(ps.parsed.set))
	for _, pair := range ps.parsed.set {
		name := pair.key.literal.(string)
		v, err := b.value(pair.value)
		if err != nil {
			return nil, err
		}
		encoded, err := mongo.EncodeValue(v)
		if err != nil {
			return nil, errors.NewConversionError(b.category.Name(), name, err.Error())
		}
		doc = append(doc, bson.E{Key: name, Value: encoded})
	}
	return mongo.FromDocument[T](doc)
}

// binding resolves terms against bound values for one execution.
type binding struct {
	category storagemodels.CategoryInfo
	values   []boundValue
	where    whereNode
}

func (b *binding) value(t term) (any, error) {
	if !t.isParam() {
		return t.literal, nil
	}
	return b.values[t.param].value, nil
}

func (b *binding) keyName(t term) (string, error) {
	v, err := b.value(t)
	if err != nil {
		return "", err
	}
	name, ok := v.(string)
	if !ok || name == "" {
		return "", errors.NewIllegalStateError("key parameter %d must be a non-empty string", t.param)
	}
	return name, nil
}

// key returns the category's key of that name, or an untyped key for names
// outside the category.
func (b *binding) key(name string) storagemodels.Keyed {
	if k, ok := b.category.Key(name); ok {
		return k
	}
	return storagemodels.NewKey[any](name)
}

func (b *binding) patchWhere(apply func(query.Expression)) error {
	if b.where == nil {
		return nil
	}
	expr, err := b.where.build(b)
	if err != nil {
		return err
	}
	apply(expr)
	return nil
}

func (n *comparisonNode) build(b *binding) (query.Expression, error) {
	name, err := b.keyName(n.key)
	if err != nil {
		return nil, err
	}
	v, err := b.value(n.value)
	if err != nil {
		return nil, err
	}
	return query.Compare(b.key(name), n.operator, v), nil
}

func (n *logicalNode) build(b *binding) (query.Expression, error) {
	left, err := n.left.build(b)
	if err != nil {
		return nil, err
	}
	right, err := n.right.build(b)
	if err != nil {
		return nil, err
	}
	return &query.BinaryLogicalExpression{Left: left, Operator: n.operator, Right: right}, nil
}

func (n *notNode) build(b *binding) (query.Expression, error) {
	operand, err := n.operand.build(b)
	if err != nil {
		return nil, err
	}
	return query.NotOf(operand), nil
}
