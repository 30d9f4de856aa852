/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
)

// Statement is a built operation bound to a category. Statements belong to
// the caller that created them and are not safe for concurrent use.
type Statement[T any] interface {
	Category() *storagemodels.Category[T]
}

// Query reads records of a category.
type Query[T any] interface {
	Statement[T]
	Where(expr query.Expression)
	Sort(key storagemodels.Keyed, direction storagemodels.SortDirection)
	Limit(n int)
	Execute(ctx context.Context) (Cursor[T], error)
}

// AggregateQuery computes COUNT or DISTINCT over the source collection of an
// aggregate category.
type AggregateQuery[T any] interface {
	Query[T]
	// SetAggregateKey selects the key DISTINCT collects, or the key COUNT
	// requires to be present.
	SetAggregateKey(key storagemodels.Keyed)
}

// DataModifyingStatement changes stored records. Apply returns the number of
// records affected.
type DataModifyingStatement[T any] interface {
	Statement[T]
	Apply(ctx context.Context) (int, error)
}

// Add inserts one record. The record must carry the agent identity.
type Add[T any] interface {
	DataModifyingStatement[T]
	SetPojo(pojo *T)
}

// Replace upserts one record keyed by its where-clause.
type Replace[T any] interface {
	DataModifyingStatement[T]
	SetPojo(pojo *T)
	Where(expr query.Expression)
}

// Update sets individual fields on every record matching its where-clause.
type Update[T any] interface {
	DataModifyingStatement[T]
	Where(expr query.Expression)
	Set(key storagemodels.Keyed, value any)
}

// Remove deletes records matching its where-clause, or all records when no
// clause is set.
type Remove[T any] interface {
	DataModifyingStatement[T]
	Where(expr query.Expression)
}

// Cursor is a lazy, single-pass, forward-only sequence of records.
type Cursor[T any] interface {
	HasNext(ctx context.Context) (bool, error)
	Next(ctx context.Context) (*T, error)
	// SetBatchSize may only be called before the first HasNext or Next.
	SetBatchSize(n int) error
	BatchSize() int
	Close(ctx context.Context) error
}

// StatementFactory creates statements for one category.
type StatementFactory[T any] interface {
	Category() *storagemodels.Category[T]
	CreateQuery() Query[T]
	CreateAggregateQuery(fn storagemodels.AggregateFunction) (AggregateQuery[T], error)
	CreateAdd() Add[T]
	CreateReplace() Replace[T]
	CreateUpdate() Update[T]
	CreateRemove() Remove[T]
}
