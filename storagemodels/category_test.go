/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/storagemodels"
)

type cpuStat struct {
	AgentID   string  `persist:"agentId"`
	Host      string  `persist:"host"`
	Timestamp int64   `persist:"timeStamp"`
	Usage     float64 `persist:"usage"`
}

var (
	hostKey  = storagemodels.NewIndexedKey[string]("host")
	usageKey = storagemodels.NewKey[float64]("usage")
)

func TestNewCategory(t *testing.T) {
	t.Run("IndexedKeysInDeclarationOrder", func(t *testing.T) {
		cat, err := storagemodels.NewCategory[cpuStat]("cpu-stats",
			storagemodels.AgentIDKey, hostKey, storagemodels.TimestampKey, usageKey)
		require.NoError(t, err)

		assert.Equal(t, "cpu-stats", cat.Name())
		assert.Len(t, cat.Keys(), 4)
		indexed := cat.IndexedKeys()
		require.Len(t, indexed, 2)
		assert.Equal(t, "agentId", indexed[0].Name())
		assert.Equal(t, "host", indexed[1].Name())
		assert.Equal(t, reflect.TypeOf(cpuStat{}), cat.DataType())
		assert.False(t, cat.IsAggregate())

		k, ok := cat.Key("usage")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeOf(float64(0)), k.ValueType())
		_, ok = cat.Key("missing")
		assert.False(t, ok)
	})

	t.Run("DuplicateKeyName", func(t *testing.T) {
		_, err := storagemodels.NewCategory[cpuStat]("cpu-stats", hostKey, storagemodels.NewKey[int]("host"))
		assert.Error(t, err)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := storagemodels.NewCategory[cpuStat]("  ", hostKey)
		assert.Error(t, err)
	})

	t.Run("NonStructType", func(t *testing.T) {
		_, err := storagemodels.NewCategory[int]("ints")
		assert.Error(t, err)
	})

	t.Run("KeysAreCopied", func(t *testing.T) {
		cat := storagemodels.MustCategory[cpuStat]("cpu-stats", hostKey)
		keys := cat.Keys()
		keys[0] = usageKey
		assert.Equal(t, "host", cat.Keys()[0].Name())
	})
}

func TestAdaptCategory(t *testing.T) {
	cat := storagemodels.MustCategory[cpuStat]("cpu-stats", storagemodels.AgentIDKey, hostKey)

	counts := storagemodels.AdaptCategory[storagemodels.AggregateCount](cat)
	assert.Equal(t, cat.Name(), counts.Name())
	assert.True(t, counts.IsAggregate())
	assert.Equal(t, reflect.TypeOf(storagemodels.AggregateCount{}), counts.DataType())
	assert.Len(t, counts.Keys(), 2)

	distinct := storagemodels.AdaptCategory[storagemodels.AggregateDistinct](cat)
	assert.Equal(t, reflect.TypeOf(storagemodels.AggregateDistinct{}), distinct.DataType())
}

func TestSameKey(t *testing.T) {
	assert.True(t, storagemodels.SameKey(storagemodels.NewKey[string]("host"), hostKey))
	assert.False(t, storagemodels.SameKey(storagemodels.NewKey[int]("host"), hostKey))
	assert.False(t, storagemodels.SameKey(usageKey, hostKey))
	assert.False(t, storagemodels.SameKey(nil, hostKey))
	assert.True(t, storagemodels.SameKey(nil, nil))
}

func TestSortDirectionString(t *testing.T) {
	assert.Equal(t, "ASC", storagemodels.Ascending.String())
	assert.Equal(t, "DSC", storagemodels.Descending.String())
	assert.Equal(t, "COUNT", storagemodels.AggregateFunctionCount.String())
	assert.Equal(t, "DISTINCT", storagemodels.AggregateFunctionDistinct.String())
}
