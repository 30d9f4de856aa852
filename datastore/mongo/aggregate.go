/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/metrics"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// AggregateQuery runs COUNT or DISTINCT against the collection behind an
// aggregate view. Its result is a cursor over a single record.
type AggregateQuery[T any] struct {
	Query[T]
	function storagemodels.AggregateFunction
	key      storagemodels.Keyed
}

// SetAggregateKey selects the key DISTINCT collects, or the key COUNT
// requires to be present.
func (q *AggregateQuery[T]) SetAggregateKey(key storagemodels.Keyed) {
	q.key = key
}

// Function returns the aggregate function.
func (q *AggregateQuery[T]) Function() storagemodels.AggregateFunction {
	return q.function
}

// Execute computes the aggregate eagerly.
func (q *AggregateQuery[T]) Execute(ctx context.Context) (datastore.Cursor[T], error) {
	if q.key != nil {
		if _, ok := q.category.Key(q.key.Name()); !ok {
			return nil, errors.NewValidationError("aggregateKey",
				"unknown key "+q.key.Name()+" for category "+q.category.Name())
		}
	}
	coll, err := q.collection()
	if err != nil {
		return nil, err
	}
	filter, err := q.filter(q.where)
	if err != nil {
		return nil, err
	}
	metrics.IncStatement(metrics.StatementAggregate, q.category.Name())

	var result any
	switch q.function {
	case storagemodels.AggregateFunctionCount:
		if q.key != nil {
			filter = append(filter, bson.E{Key: q.key.Name(), Value: bson.D{{Key: "$exists", Value: true}}})
		}
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return nil, q.fail("count", err)
		}
		result = &storagemodels.AggregateCount{Count: n}
	case storagemodels.AggregateFunctionDistinct:
		if q.key == nil {
			return nil, errors.NewIllegalStateError("DISTINCT on %q needs an aggregate key", q.category.Name())
		}
		values, err := coll.Distinct(ctx, q.key.Name(), filter)
		if err != nil {
			return nil, q.fail("distinct", err)
		}
		kept := make([]any, 0, len(values))
		for _, v := range values {
			if v != nil {
				kept = append(kept, v)
			}
		}
		result = &storagemodels.AggregateDistinct{Key: q.key.Name(), Values: kept}
	}

	doc, err := ToDocument(result)
	if err != nil {
		return nil, err
	}
	return staticCursor[T](q.category.Name(), doc), nil
}
