/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	hostKey = storagemodels.NewKey[string]("host")
	loadKey = storagemodels.NewKey[float64]("load")
)

func TestTranslateComparison(t *testing.T) {
	tests := []struct {
		name string
		expr query.Expression
		want bson.D
	}{
		{
			name: "EqualsIsImplicit",
			expr: query.Equal(hostKey, "web-1"),
			want: bson.D{{Key: "host", Value: "web-1"}},
		},
		{
			name: "NotEqual",
			expr: query.NotEqual(hostKey, "web-1"),
			want: bson.D{{Key: "host", Value: bson.D{{Key: "$ne", Value: "web-1"}}}},
		},
		{
			name: "LessThan",
			expr: query.Less(loadKey, 1.5),
			want: bson.D{{Key: "load", Value: bson.D{{Key: "$lt", Value: 1.5}}}},
		},
		{
			name: "LessThanOrEqual",
			expr: query.LessOrEqual(loadKey, 1.5),
			want: bson.D{{Key: "load", Value: bson.D{{Key: "$lte", Value: 1.5}}}},
		},
		{
			name: "GreaterThan",
			expr: query.Greater(storagemodels.TimestampKey, int64(1234)),
			want: bson.D{{Key: "timeStamp", Value: bson.D{{Key: "$gt", Value: int64(1234)}}}},
		},
		{
			name: "GreaterThanOrEqual",
			expr: query.GreaterOrEqual(storagemodels.TimestampKey, int64(1234)),
			want: bson.D{{Key: "timeStamp", Value: bson.D{{Key: "$gte", Value: int64(1234)}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mongo.Translate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateSetMembership(t *testing.T) {
	got, err := mongo.Translate(query.InSet(hostKey, "c", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "host", Value: bson.D{{Key: "$in", Value: bson.A{"c", "a", "b"}}}}}, got)

	got, err = mongo.Translate(query.NotInSet(hostKey, "x"))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "host", Value: bson.D{{Key: "$nin", Value: bson.A{"x"}}}}}, got)
}

func TestTranslateLogical(t *testing.T) {
	left := query.Equal(hostKey, "web-1")
	right := query.Greater(loadKey, 2.0)

	got, err := mongo.Translate(query.AndOf(left, right))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "host", Value: "web-1"}},
		bson.D{{Key: "load", Value: bson.D{{Key: "$gt", Value: 2.0}}}},
	}}}, got)

	got, err = mongo.Translate(query.OrOf(left, right))
	require.NoError(t, err)
	assert.Equal(t, "$or", got[0].Key)
}

func TestTranslateNot(t *testing.T) {
	t.Run("Comparison", func(t *testing.T) {
		got, err := mongo.Translate(query.NotOf(query.Greater(loadKey, 2.0)))
		require.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "load", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$gt", Value: 2.0}}}}}}, got)
	})

	t.Run("SetMembership", func(t *testing.T) {
		got, err := mongo.Translate(query.NotOf(query.InSet(hostKey, "a")))
		require.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "host", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$in", Value: bson.A{"a"}}}}}}}, got)
	})

	t.Run("LogicalIsRewrittenShallowly", func(t *testing.T) {
		inner := query.AndOf(query.Greater(loadKey, 1.0), query.Less(loadKey, 2.0))
		got, err := mongo.Translate(query.NotOf(inner))
		require.NoError(t, err)

		translatedInner, err := mongo.Translate(inner)
		require.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "$and", Value: bson.D{{Key: "$not", Value: translatedInner[0].Value}}}}, got)
	})

	t.Run("EqualsRejected", func(t *testing.T) {
		_, err := mongo.Translate(query.NotOf(query.Equal(hostKey, "web-1")))
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("NestedEqualsRejected", func(t *testing.T) {
		_, err := mongo.Translate(query.NotOf(query.NotOf(query.Equal(hostKey, "web-1"))))
		assert.Error(t, err)
	})
}

func TestTranslateNil(t *testing.T) {
	_, err := mongo.Translate(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = mongo.Translate(query.AndOf(query.Equal(hostKey, "a"), nil))
	assert.Error(t, err)
}
