/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// SchemaInfoCategoryName is the collection that records category registrations.
const SchemaInfoCategoryName = "schema-info"

var (
	SchemaNameKey      = NewIndexedKey[string]("name")
	SchemaTimestampKey = NewKey[int64]("timestamp")

	// SchemaInfoCategory is the bookkeeping category. It is registered
	// internally and never produces a SchemaInfo record for itself.
	SchemaInfoCategory = MustCategory[SchemaInfo](SchemaInfoCategoryName, SchemaNameKey, SchemaTimestampKey)
)

// SchemaInfo records when a category was last registered.
type SchemaInfo struct {
	Name      string `persist:"name"`
	Timestamp int64  `persist:"timestamp"`
}

// AggregateCount is the single synthetic row produced by a COUNT query.
type AggregateCount struct {
	Count int64 `persist:"count"`
}

// AggregateDistinct carries the distinct values of one key. Null values are
// never included.
type AggregateDistinct struct {
	Key    string `persist:"aggregateKey"`
	Values []any  `persist:"values"`
}

// SortDirection orders query results by a key.
type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

func (d SortDirection) String() string {
	if d == Descending {
		return "DSC"
	}
	return "ASC"
}

// Sort is one member of a query's sort list.
type Sort struct {
	Key       Keyed
	Direction SortDirection
}

// AggregateFunction selects the aggregate computed by an aggregate query.
type AggregateFunction int

const (
	AggregateFunctionCount AggregateFunction = iota
	AggregateFunctionDistinct
)

func (f AggregateFunction) String() string {
	switch f {
	case AggregateFunctionCount:
		return "COUNT"
	case AggregateFunctionDistinct:
		return "DISTINCT"
	default:
		return "UNKNOWN"
	}
}
