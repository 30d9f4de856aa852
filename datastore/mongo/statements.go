/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/metrics"
	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// StatementFactory creates statements for one category of a Storage.
type StatementFactory[T any] struct {
	storage  *Storage
	category *storagemodels.Category[T]
}

var _ datastore.StatementFactory[storagemodels.SchemaInfo] = (*StatementFactory[storagemodels.SchemaInfo])(nil)

// NewStatementFactory binds statements for category to s. The category must
// be registered before any statement is executed.
func NewStatementFactory[T any](s *Storage, category *storagemodels.Category[T]) *StatementFactory[T] {
	return &StatementFactory[T]{storage: s, category: category}
}

// Category returns the bound category.
func (f *StatementFactory[T]) Category() *storagemodels.Category[T] {
	return f.category
}

// CreateQuery returns a query over the category.
func (f *StatementFactory[T]) CreateQuery() datastore.Query[T] {
	return &Query[T]{base: base[T]{storage: f.storage, category: f.category}}
}

// CreateAggregateQuery returns a COUNT or DISTINCT query. The category must
// be an aggregate view whose record type matches fn.
func (f *StatementFactory[T]) CreateAggregateQuery(fn storagemodels.AggregateFunction) (datastore.AggregateQuery[T], error) {
	if !f.category.IsAggregate() {
		return nil, errors.NewIllegalStateError("category %q is not an aggregate view", f.category.Name())
	}
	var zero T
	switch fn {
	case storagemodels.AggregateFunctionCount:
		if _, ok := any(zero).(storagemodels.AggregateCount); !ok {
			return nil, errors.NewIllegalStateError("COUNT produces AggregateCount, not %T", zero)
		}
	case storagemodels.AggregateFunctionDistinct:
		if _, ok := any(zero).(storagemodels.AggregateDistinct); !ok {
			return nil, errors.NewIllegalStateError("DISTINCT produces AggregateDistinct, not %T", zero)
		}
	default:
		return nil, errors.NewValidationError("function", "unknown aggregate function "+fn.String())
	}
	return &AggregateQuery[T]{Query: Query[T]{base: base[T]{storage: f.storage, category: f.category}}, function: fn}, nil
}

// CreateAdd returns an insert statement.
func (f *StatementFactory[T]) CreateAdd() datastore.Add[T] {
	return &Add[T]{base: base[T]{storage: f.storage, category: f.category}}
}

// CreateReplace returns an upsert statement.
func (f *StatementFactory[T]) CreateReplace() datastore.Replace[T] {
	return &Replace[T]{base: base[T]{storage: f.storage, category: f.category}}
}

// CreateUpdate returns a partial update statement.
func (f *StatementFactory[T]) CreateUpdate() datastore.Update[T] {
	return &Update[T]{base: base[T]{storage: f.storage, category: f.category}}
}

// CreateRemove returns a delete statement.
func (f *StatementFactory[T]) CreateRemove() datastore.Remove[T] {
	return &Remove[T]{base: base[T]{storage: f.storage, category: f.category}}
}

type base[T any] struct {
	storage  *Storage
	category *storagemodels.Category[T]
}

func (b *base[T]) Category() *storagemodels.Category[T] {
	return b.category
}

func (b *base[T]) collection() (datastore.Collection, error) {
	return b.storage.collection(b.category.Name())
}

func (b *base[T]) filter(expr query.Expression) (bson.D, error) {
	if expr == nil {
		return bson.D{}, nil
	}
	return Translate(expr)
}

func (b *base[T]) fail(operation string, err error) error {
	metrics.IncError(operation)
	b.storage.log.Warn("statement failed",
		zap.String("operation", operation), zap.String("category", b.category.Name()), zap.Error(err))
	return errors.NewStorageError(operation, b.category.Name(), err)
}

// Query reads records in an optional order up to an optional limit.
type Query[T any] struct {
	base[T]
	where query.Expression
	sort  bson.D
	limit int
}

// Where sets the filter. A later call replaces an earlier one.
func (q *Query[T]) Where(expr query.Expression) {
	q.where = expr
}

// Sort appends a sort key. Keys apply in the order they were added.
func (q *Query[T]) Sort(key storagemodels.Keyed, direction storagemodels.SortDirection) {
	q.sort = append(q.sort, bson.E{Key: key.Name(), Value: int(direction)})
}

// Limit caps the number of records. Zero or less means no limit.
func (q *Query[T]) Limit(n int) {
	q.limit = n
}

// Execute returns a cursor over the matching records. The read is issued
// when the cursor is first consumed.
func (q *Query[T]) Execute(ctx context.Context) (datastore.Cursor[T], error) {
	if q.category.IsAggregate() {
		return nil, errors.NewIllegalStateError("category %q is an aggregate view; use an aggregate query", q.category.Name())
	}
	return q.execute(ctx)
}

func (q *Query[T]) execute(context.Context) (*Cursor[T], error) {
	coll, err := q.collection()
	if err != nil {
		return nil, err
	}
	filter, err := q.filter(q.where)
	if err != nil {
		return nil, err
	}
	metrics.IncStatement(metrics.StatementQuery, q.category.Name())

	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(append(bson.D(nil), q.sort...))
	}
	if q.limit > 0 {
		opts.SetLimit(int64(q.limit))
	}
	return newCursor[T](q.category.Name(), func(ctx context.Context, batchSize int32) (*driver.Cursor, error) {
		opts.SetBatchSize(batchSize)
		cur, err := coll.Find(ctx, filter, opts)
		if err != nil {
			return nil, q.fail("find", err)
		}
		return cur, nil
	}), nil
}

// Add inserts one record.
type Add[T any] struct {
	base[T]
	pojo *T
}

// SetPojo sets the record to insert.
func (a *Add[T]) SetPojo(pojo *T) {
	a.pojo = pojo
}

// Apply inserts the record. The record must carry a non-empty agent
// identity.
func (a *Add[T]) Apply(ctx context.Context) (int, error) {
	if a.pojo == nil {
		return 0, errors.NewValidationError("pojo", "required")
	}
	coll, err := a.collection()
	if err != nil {
		return 0, err
	}
	doc, err := ToDocument(a.pojo)
	if err != nil {
		return 0, err
	}
	if !hasAgentID(doc) {
		return 0, errors.NewValidationError(storagemodels.AgentIDKey.Name(),
			"required on every record added to "+a.category.Name())
	}

	metrics.IncStatement(metrics.StatementAdd, a.category.Name())
	if err := coll.InsertOne(ctx, doc); err != nil {
		return 0, a.fail("add", err)
	}
	return 1, nil
}

func hasAgentID(doc bson.D) bool {
	for _, e := range doc {
		if e.Key == storagemodels.AgentIDKey.Name() {
			s, ok := e.Value.(string)
			return ok && s != ""
		}
	}
	return false
}

// Replace upserts one record keyed by its where-clause.
type Replace[T any] struct {
	base[T]
	pojo  *T
	where query.Expression
}

// SetPojo sets the replacement record.
func (r *Replace[T]) SetPojo(pojo *T) {
	r.pojo = pojo
}

// Where sets the key of the record to replace.
func (r *Replace[T]) Where(expr query.Expression) {
	r.where = expr
}

// Apply replaces the first matching record or inserts one.
func (r *Replace[T]) Apply(ctx context.Context) (int, error) {
	if r.where == nil {
		return 0, errors.NewIllegalStateError("replace on %q needs a where-clause", r.category.Name())
	}
	if r.pojo == nil {
		return 0, errors.NewIllegalStateError("replace on %q needs a record", r.category.Name())
	}
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}
	filter, err := r.filter(r.where)
	if err != nil {
		return 0, err
	}
	doc, err := ToDocument(r.pojo)
	if err != nil {
		return 0, err
	}

	metrics.IncStatement(metrics.StatementReplace, r.category.Name())
	if err := coll.ReplaceOne(ctx, filter, doc, true); err != nil {
		return 0, r.fail("replace", err)
	}
	return 1, nil
}

// Update sets individual fields on matching records.
type Update[T any] struct {
	base[T]
	where query.Expression
	set   bson.D
	err   error
}

// Where sets the filter.
func (u *Update[T]) Where(expr query.Expression) {
	u.where = expr
}

// Set records a field assignment. Setting the same key twice keeps the last
// value.
func (u *Update[T]) Set(key storagemodels.Keyed, value any) {
	encoded, err := EncodeValue(value)
	if err != nil {
		u.err = errors.NewConversionError(u.category.Name(), key.Name(), err.Error())
		return
	}
	for i := range u.set {
		if u.set[i].Key == key.Name() {
			u.set[i].Value = encoded
			return
		}
	}
	u.set = append(u.set, bson.E{Key: key.Name(), Value: encoded})
}

// Apply updates every matching record and returns how many changed.
func (u *Update[T]) Apply(ctx context.Context) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	if u.where == nil {
		return 0, errors.NewIllegalStateError("update on %q needs a where-clause", u.category.Name())
	}
	if len(u.set) == 0 {
		return 0, errors.NewIllegalStateError("update on %q sets no fields", u.category.Name())
	}
	coll, err := u.collection()
	if err != nil {
		return 0, err
	}
	filter, err := u.filter(u.where)
	if err != nil {
		return 0, err
	}

	metrics.IncStatement(metrics.StatementUpdate, u.category.Name())
	n, err := coll.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: u.set}})
	if err != nil {
		return 0, u.fail("update", err)
	}
	return int(n), nil
}

// Remove deletes matching records.
type Remove[T any] struct {
	base[T]
	where query.Expression
}

// Where sets the filter. Without one every record is removed.
func (r *Remove[T]) Where(expr query.Expression) {
	r.where = expr
}

// Apply deletes and returns how many records were removed.
func (r *Remove[T]) Apply(ctx context.Context) (int, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}
	filter, err := r.filter(r.where)
	if err != nil {
		return 0, err
	}

	metrics.IncStatement(metrics.StatementRemove, r.category.Name())
	n, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, r.fail("remove", err)
	}
	return int(n), nil
}
