//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statstore_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore"
	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
)

type integrationSample struct {
	AgentID   string  `persist:"agentId"`
	Timestamp int64   `persist:"timeStamp"`
	Value     float64 `persist:"value"`
}

var (
	sampleValueKey     = storagemodels.NewKey[float64]("value")
	integrationSamples = storagemodels.MustCategory[integrationSample]("integration-samples",
		storagemodels.AgentIDKey, storagemodels.TimestampKey, sampleValueKey)
	integrationCount = storagemodels.AdaptCategory[storagemodels.AggregateCount](integrationSamples)
)

// liveService connects to the MongoDB named by STATSTORE_STORAGE_URL.
func liveService(t *testing.T) *statstore.DbService {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	_ = godotenv.Load()
	if os.Getenv(config.EnvPrefix+"STORAGE_URL") == "" {
		t.Skip(config.EnvPrefix + "STORAGE_URL not set, skipping integration test")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)

	var opts []statstore.ServiceOption
	if os.Getenv(config.EnvPrefix+"USERNAME") != "" {
		opts = append(opts, statstore.WithCredentials(config.EnvCredentials{}))
	}
	svc, err := statstore.NewDbService(cfg, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, svc.Connect(ctx))
	require.NoError(t, svc.Storage().RegisterCategory(ctx, integrationSamples))
	t.Cleanup(func() {
		_ = svc.Disconnect(context.Background())
		svc.Close()
	})
	return svc
}

func drainSamples(t *testing.T, cursor datastore.Cursor[integrationSample]) []integrationSample {
	t.Helper()
	ctx := context.Background()
	defer cursor.Close(ctx)
	var out []integrationSample
	for {
		more, err := cursor.HasNext(ctx)
		require.NoError(t, err)
		if !more {
			return out
		}
		s, err := cursor.Next(ctx)
		require.NoError(t, err)
		out = append(out, *s)
	}
}

func TestIntegrationWriteAndQuery(t *testing.T) {
	svc := liveService(t)
	ctx := context.Background()
	stmts := mongo.NewStatementFactory(svc.Storage(), integrationSamples)
	agent := uuid.NewString()
	t.Cleanup(func() { _, _ = svc.Storage().Purge(context.Background(), agent) })

	for i := int64(1); i <= 3; i++ {
		add := stmts.CreateAdd()
		add.SetPojo(&integrationSample{AgentID: agent, Timestamp: 1000 * i, Value: float64(i)})
		_, err := add.Apply(ctx)
		require.NoError(t, err)
	}

	q := stmts.CreateQuery()
	q.Where(query.AndOf(
		query.Equal(storagemodels.AgentIDKey, agent),
		query.Greater(storagemodels.TimestampKey, int64(1000)),
	))
	q.Sort(storagemodels.TimestampKey, storagemodels.Descending)
	cursor, err := q.Execute(ctx)
	require.NoError(t, err)
	got := drainSamples(t, cursor)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3000), got[0].Timestamp)

	upd := stmts.CreateUpdate()
	upd.Where(query.Equal(storagemodels.AgentIDKey, agent))
	upd.Set(sampleValueKey, 9.5)
	n, err := upd.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	countQ, err := mongo.NewStatementFactory(svc.Storage(), integrationCount).CreateAggregateQuery(storagemodels.AggregateFunctionCount)
	require.NoError(t, err)
	countQ.Where(query.Equal(storagemodels.AgentIDKey, agent))
	counts, err := countQ.Execute(ctx)
	require.NoError(t, err)
	require.True(t, must(counts.HasNext(ctx)))
	c, err := counts.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Count)

	purged, err := svc.Storage().Purge(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}

func TestIntegrationFiles(t *testing.T) {
	svc := liveService(t)
	ctx := context.Background()
	name := "integration-" + uuid.NewString()

	require.NoError(t, svc.Storage().SaveFile(ctx, name, bytes.NewReader([]byte("heap dump"))))
	r, err := svc.Storage().LoadFile(ctx, name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "heap dump", string(data))

	_, err = svc.Storage().LoadFile(ctx, "missing-"+uuid.NewString())
	assert.True(t, errors.IsNotFound(err))
}

func TestIntegrationSchemaInfo(t *testing.T) {
	svc := liveService(t)
	infos, err := svc.Storage().SchemaInfos(context.Background())
	require.NoError(t, err)

	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, "integration-samples")
}

func must(ok bool, err error) bool {
	if err != nil {
		panic(err)
	}
	return ok
}
