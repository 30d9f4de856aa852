/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement_test

import (
	"context"
	"crypto/tls"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/datastore/mock"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/statement"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type thread struct {
	Name string `persist:"name"`
	ID   int64  `persist:"id"`
}

type vmRecord struct {
	AgentID   string   `persist:"agentId"`
	VMID      string   `persist:"vmId"`
	Timestamp int64    `persist:"timeStamp"`
	Load      float64  `persist:"load"`
	Main      thread   `persist:"main"`
	Threads   []thread `persist:"threads"`
}

var (
	loadKey    = storagemodels.NewKey[float64]("load")
	mainKey    = storagemodels.NewKey[thread]("main")
	threadsKey = storagemodels.NewKey[[]thread]("threads")
	vmRecords  = storagemodels.MustCategory[vmRecord]("vm-records",
		storagemodels.AgentIDKey, storagemodels.VMIDKey, storagemodels.TimestampKey, loadKey, mainKey, threadsKey)
	vmRecordCount    = storagemodels.AdaptCategory[storagemodels.AggregateCount](vmRecords)
	vmRecordDistinct = storagemodels.AdaptCategory[storagemodels.AggregateDistinct](vmRecords)
)

const (
	addRecord = "ADD vm-records SET 'agentId' = ?s , 'vmId' = ?s , 'timeStamp' = ?l , " +
		"'load' = ?d , 'main' = ?p , 'threads' = ?p["
	latestForAgent = "QUERY vm-records WHERE 'agentId' = ?s AND 'timeStamp' >= ?l SORT ?s DSC LIMIT ?i"
)

type env struct {
	store   *mongo.Storage
	factory *statement.Factory
	records *mongo.StatementFactory[vmRecord]
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	client := mock.New()
	conn := mongo.NewConnection(mongo.ConnectionSettings{URL: "mongodb://127.0.0.1:27518", Database: "thermostat"},
		mongo.WithDialer(func(context.Context, mongo.ConnectionSettings, *options.Credential, *tls.Config) (datastore.Client, error) {
			return client, nil
		}))
	store := mongo.NewStorage(conn)
	t.Cleanup(store.Close)
	require.NoError(t, conn.Connect(ctx))
	require.NoError(t, store.RegisterCategory(ctx, vmRecords))

	f, err := statement.NewFactory(4)
	require.NoError(t, err)
	return &env{store: store, factory: f, records: mongo.NewStatementFactory(store, vmRecords)}
}

func (e *env) prepare(t *testing.T, text string) *statement.PreparedStatement[vmRecord] {
	t.Helper()
	ps, err := statement.Prepare(e.factory, e.records, statement.NewDescriptor(vmRecords, text))
	require.NoError(t, err)
	return ps
}

func (e *env) add(t *testing.T, r vmRecord) {
	t.Helper()
	ps := e.prepare(t, addRecord)
	ps.SetString(0, r.AgentID)
	ps.SetString(1, r.VMID)
	ps.SetLong(2, r.Timestamp)
	ps.SetDouble(3, r.Load)
	ps.SetPojo(4, r.Main)
	ps.SetPojoList(5, r.Threads)
	n, err := ps.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func collect[T any](t *testing.T, cursor datastore.Cursor[T]) []T {
	t.Helper()
	ctx := context.Background()
	defer cursor.Close(ctx)
	var out []T
	for {
		more, err := cursor.HasNext(ctx)
		require.NoError(t, err)
		if !more {
			return out
		}
		v, err := cursor.Next(ctx)
		require.NoError(t, err)
		out = append(out, *v)
	}
}

func TestAddAndQuery(t *testing.T) {
	e := newEnv(t)
	agent := uuid.NewString()
	want := vmRecord{
		AgentID:   agent,
		VMID:      "vm-1",
		Timestamp: 20,
		Load:      0.75,
		Main:      thread{Name: "main", ID: 1},
		Threads:   []thread{{Name: "gc", ID: 2}, {Name: "jit", ID: 3}},
	}
	e.add(t, vmRecord{AgentID: agent, VMID: "vm-1", Timestamp: 10})
	e.add(t, want)
	e.add(t, vmRecord{AgentID: uuid.NewString(), VMID: "vm-2", Timestamp: 30})

	ps := e.prepare(t, latestForAgent)
	ps.SetString(0, agent)
	ps.SetLong(1, 5)
	ps.SetString(2, "timeStamp")
	ps.SetInt(3, 1)
	cursor, err := ps.ExecuteQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vmRecord{want}, collect(t, cursor))

	// Bound values are kept between executions.
	ps.SetLong(1, 25)
	cursor, err = ps.ExecuteQuery(context.Background())
	require.NoError(t, err)
	assert.Empty(t, collect(t, cursor))
}

func TestAddRequiresAgent(t *testing.T) {
	e := newEnv(t)
	ps := e.prepare(t, addRecord)
	ps.SetString(0, "")
	ps.SetString(1, "vm-1")
	ps.SetLong(2, 1)
	ps.SetDouble(3, 0)
	ps.SetPojo(4, thread{})
	ps.SetPojoList(5, []thread{})

	_, err := ps.Execute(context.Background())
	assert.True(t, errors.IsValidationError(err))
}

func TestBindingErrors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	t.Run("unbound parameter", func(t *testing.T) {
		ps := e.prepare(t, latestForAgent)
		ps.SetString(0, "a")
		_, err := ps.ExecuteQuery(ctx)
		assert.True(t, errors.IsIllegalState(err))
	})

	t.Run("wrong type", func(t *testing.T) {
		ps := e.prepare(t, latestForAgent)
		ps.SetString(0, "a")
		ps.SetInt(1, 5)
		ps.SetString(2, "timeStamp")
		ps.SetInt(3, 1)
		_, err := ps.ExecuteQuery(ctx)
		assert.True(t, errors.IsIllegalState(err))
	})

	t.Run("index out of range", func(t *testing.T) {
		ps := e.prepare(t, "QUERY vm-records")
		ps.SetString(0, "a")
		_, err := ps.ExecuteQuery(ctx)
		assert.True(t, errors.IsIllegalState(err))
	})

	t.Run("wrong execution method", func(t *testing.T) {
		_, err := e.prepare(t, "QUERY vm-records").Execute(ctx)
		assert.True(t, errors.IsIllegalState(err))
		_, err = e.prepare(t, "REMOVE vm-records").ExecuteQuery(ctx)
		assert.True(t, errors.IsIllegalState(err))
	})

	t.Run("empty key parameter", func(t *testing.T) {
		ps := e.prepare(t, "QUERY vm-records SORT ?s ASC")
		ps.SetString(0, "")
		_, err := ps.ExecuteQuery(ctx)
		assert.True(t, errors.IsIllegalState(err))
	})
}

func TestUpdateReplaceRemove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	agent := uuid.NewString()
	e.add(t, vmRecord{AgentID: agent, VMID: "vm-1", Timestamp: 1})
	e.add(t, vmRecord{AgentID: agent, VMID: "vm-2", Timestamp: 2})

	update := e.prepare(t, "UPDATE vm-records SET 'load' = ?d , 'timeStamp' = 7L WHERE 'agentId' = ?s")
	update.SetDouble(0, 0.5)
	update.SetString(1, agent)
	n, err := update.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	replace := e.prepare(t, "REPLACE vm-records SET 'agentId' = ?s , 'vmId' = 'vm-3' , 'timeStamp' = 9L , "+
		"'load' = ?d , 'main' = ?p , 'threads' = ?p[ WHERE 'vmId' = 'vm-3'")
	replace.SetString(0, agent)
	replace.SetDouble(1, 1.5)
	replace.SetPojo(2, thread{Name: "main"})
	replace.SetPojoList(3, []thread{})
	n, err = replace.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	q := e.prepare(t, "QUERY vm-records WHERE 'timeStamp' = 7L OR 'vmId' = 'vm-3' SORT 'vmId' ASC")
	cursor, err := q.ExecuteQuery(ctx)
	require.NoError(t, err)
	got := collect(t, cursor)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"vm-1", "vm-2", "vm-3"}, []string{got[0].VMID, got[1].VMID, got[2].VMID})
	assert.Equal(t, 0.5, got[0].Load)
	assert.Equal(t, "main", got[2].Main.Name)

	remove := e.prepare(t, "REMOVE vm-records WHERE NOT 'timeStamp' < 8L")
	n, err = remove.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.prepare(t, "REMOVE vm-records").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a, b := uuid.NewString(), uuid.NewString()
	e.add(t, vmRecord{AgentID: a, VMID: "vm-1", Timestamp: 1})
	e.add(t, vmRecord{AgentID: a, VMID: "vm-2", Timestamp: 2})
	e.add(t, vmRecord{AgentID: b, VMID: "vm-3", Timestamp: 3})

	counts := mongo.NewStatementFactory(e.store, vmRecordCount)
	count, err := statement.Prepare(e.factory, counts,
		statement.NewDescriptor(vmRecordCount, "QUERY-COUNT vm-records WHERE 'agentId' = ?s"))
	require.NoError(t, err)
	count.SetString(0, a)
	cursor, err := count.ExecuteQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.AggregateCount{{Count: 2}}, collect(t, cursor))

	distincts := mongo.NewStatementFactory(e.store, vmRecordDistinct)
	distinct, err := statement.Prepare(e.factory, distincts,
		statement.NewDescriptor(vmRecordDistinct, "QUERY-DISTINCT(agentId) vm-records"))
	require.NoError(t, err)
	dcursor, err := distinct.ExecuteQuery(ctx)
	require.NoError(t, err)
	rows := collect(t, dcursor)
	require.Len(t, rows, 1)
	assert.ElementsMatch(t, []any{a, b}, rows[0].Values)
}

func TestFactoryCache(t *testing.T) {
	e := newEnv(t)

	_, err := statement.NewFactory(0)
	assert.True(t, errors.IsValidationError(err))

	e.prepare(t, "QUERY vm-records")
	e.prepare(t, "QUERY vm-records")
	assert.Equal(t, 1, e.factory.Len())

	_, err = statement.Prepare(e.factory, e.records, statement.NewDescriptor(vmRecords, "QUERY vm-records SET"))
	assert.True(t, errors.IsDescriptorParsing(err))
	assert.Equal(t, 1, e.factory.Len(), "rejected descriptors are not cached")

	for _, text := range []string{"QUERY vm-records LIMIT 1", "QUERY vm-records LIMIT 2", "QUERY vm-records LIMIT 3", "QUERY vm-records LIMIT 4"} {
		e.prepare(t, text)
	}
	assert.Equal(t, 4, e.factory.Len())

	e.factory.Purge()
	assert.Zero(t, e.factory.Len())

	counts := mongo.NewStatementFactory(e.store, vmRecordCount)
	_, err = statement.Prepare(e.factory, counts, statement.NewDescriptor(vmRecordCount, "QUERY-COUNT vm-records"))
	require.NoError(t, err)

	other := storagemodels.MustCategory[vmRecord]("vm-other", storagemodels.AgentIDKey)
	_, err = statement.Prepare(e.factory, e.records, statement.NewDescriptor(other, "QUERY vm-other"))
	assert.True(t, errors.IsIllegalState(err))
}
