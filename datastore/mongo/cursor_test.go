/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/errors"
)

func TestCursor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stmts := f.cpu(t)
	agent := uuid.NewString()
	add(t, stmts, cpuStat{AgentID: agent, Timestamp: 1})

	cursor, err := stmts.CreateQuery().Execute(ctx)
	require.NoError(t, err)

	assert.True(t, errors.IsValidationError(cursor.SetBatchSize(0)))
	assert.True(t, errors.IsValidationError(cursor.SetBatchSize(-1)))
	assert.True(t, errors.IsValidationError(cursor.SetBatchSize(math.MaxInt32+1)))
	assert.Equal(t, mongo.DefaultBatchSize, cursor.BatchSize(), "rejected sizes leave the default")
	require.NoError(t, cursor.SetBatchSize(math.MaxInt32))
	assert.Equal(t, math.MaxInt32, cursor.BatchSize())

	more, err := cursor.HasNext(ctx)
	require.NoError(t, err)
	require.True(t, more)
	more, err = cursor.HasNext(ctx)
	require.NoError(t, err)
	require.True(t, more, "HasNext does not consume")

	rec, err := cursor.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, agent, rec.AgentID)

	more, err = cursor.HasNext(ctx)
	require.NoError(t, err)
	assert.False(t, more)
	_, err = cursor.Next(ctx)
	assert.True(t, errors.IsIllegalState(err))

	require.NoError(t, cursor.Close(ctx))
	require.NoError(t, cursor.Close(ctx))
	more, err = cursor.HasNext(ctx)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestCursorNextWithoutHasNext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stmts := f.cpu(t)
	add(t, stmts, cpuStat{AgentID: uuid.NewString(), Timestamp: 1}, cpuStat{AgentID: uuid.NewString(), Timestamp: 2})

	cursor, err := stmts.CreateQuery().Execute(ctx)
	require.NoError(t, err)
	defer cursor.Close(ctx)

	for i := 0; i < 2; i++ {
		_, err := cursor.Next(ctx)
		require.NoError(t, err)
	}
	_, err = cursor.Next(ctx)
	assert.True(t, errors.IsIllegalState(err))
}
