/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/logger"
	"github.com/suparena/statstore/metrics"
	"github.com/suparena/statstore/registry"
	"github.com/suparena/statstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Storage) {
		s.log = logger.For(log, logger.ComponentStorage)
	}
}

// WithClock replaces the wall clock used for SchemaInfo timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

type registration struct {
	category   storagemodels.CategoryInfo
	collection datastore.Collection
	// created is set when this engine created the physical collection.
	created bool
}

// Storage coordinates category registration and statement execution over
// one Connection.
type Storage struct {
	conn *Connection
	log  *zap.Logger
	now  func() time.Time

	ready     chan struct{}
	readyOnce sync.Once
	listener  ListenerHandle

	categories *registry.Categories

	mu            sync.RWMutex
	registrations map[string]*registration
}

// NewStorage creates a storage engine on conn. Category registration blocks
// until conn has completed its first connection attempt.
func NewStorage(conn *Connection, opts ...Option) *Storage {
	s := &Storage{
		conn:          conn,
		log:           zap.NewNop(),
		now:           time.Now,
		ready:         make(chan struct{}),
		categories:    registry.NewCategories(),
		registrations: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.listener = conn.AddListener(s.connectionChanged)
	if st := conn.Status(); st == StatusConnected || st == StatusFailedToConnect {
		s.release()
	}
	return s
}

// Connection returns the underlying connection.
func (s *Storage) Connection() *Connection {
	return s.conn
}

// Close detaches the engine from its connection. It does not disconnect.
func (s *Storage) Close() {
	s.conn.RemoveListener(s.listener)
}

func (s *Storage) release() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Storage) connectionChanged(status ConnectionStatus) {
	switch status {
	case StatusConnected, StatusFailedToConnect:
		s.release()
	case StatusDisconnected:
		// Collection handles die with the client.
		s.mu.Lock()
		n := len(s.registrations)
		s.registrations = make(map[string]*registration)
		s.mu.Unlock()
		metrics.AddRegisteredCategories(-n)
	}
}

// RegisterCategory makes a category usable by statements. It waits for the
// first connection attempt to resolve or ctx to end. Registering an aggregate
// view is a no-op. Registering the same category again only refreshes its
// schema info timestamp. A definition that conflicts with one this engine
// already holds under the same name is an IllegalStateError.
func (s *Storage) RegisterCategory(ctx context.Context, cat storagemodels.CategoryInfo) error {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if cat.IsAggregate() {
		return nil
	}

	name := cat.Name()
	if err := s.categories.Register(cat); err != nil {
		return errors.NewIllegalStateError("category %q conflicts with another definition: %v", name, err)
	}

	db, err := s.conn.Database()
	if err != nil {
		return err
	}

	if err := s.register(ctx, db, cat); err != nil {
		return err
	}

	if name != storagemodels.SchemaInfoCategoryName {
		return s.recordSchemaInfo(ctx, name)
	}
	return nil
}

// Category returns the definition this engine holds under name.
func (s *Storage) Category(name string) (storagemodels.CategoryInfo, error) {
	return s.categories.Lookup(name)
}

// register adds cat to the collection cache, creating the collection and its
// index when it does not exist.
func (s *Storage) register(ctx context.Context, db datastore.Database, cat storagemodels.CategoryInfo) error {
	name := cat.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.registrations[name]; ok {
		if existing.category == cat {
			return nil
		}
		if existing.created {
			return errors.NewIllegalStateError("category %q is already registered with a different definition", name)
		}
		s.log.Debug("reusing existing collection", zap.String("category", name))
		return nil
	}

	names, err := db.ListCollectionNames(ctx)
	if err != nil {
		metrics.IncError("list_collections")
		return errors.NewStorageError("register", name, err)
	}
	exists := false
	for _, n := range names {
		if n == name {
			exists = true
			break
		}
	}

	coll := db.Collection(name)
	if !exists {
		if err := db.CreateCollection(ctx, name); err != nil {
			metrics.IncError("create_collection")
			return errors.NewStorageError("create collection", name, err)
		}
		if indexed := cat.IndexedKeys(); len(indexed) > 0 {
			keys := make([]string, len(indexed))
			for i, k := range indexed {
				keys[i] = k.Name()
			}
			if err := coll.CreateIndex(ctx, keys); err != nil {
				metrics.IncError("create_index")
				return errors.NewStorageError("create index", name, err)
			}
		}
	}

	s.registrations[name] = &registration{category: cat, collection: coll, created: !exists}
	metrics.AddRegisteredCategories(1)
	s.log.Debug("registered category", zap.String("category", name), zap.Bool("created", !exists))
	return nil
}

func (s *Storage) recordSchemaInfo(ctx context.Context, name string) error {
	if err := s.RegisterCategory(ctx, storagemodels.SchemaInfoCategory); err != nil {
		return err
	}
	coll, err := s.collection(storagemodels.SchemaInfoCategoryName)
	if err != nil {
		return err
	}
	info := storagemodels.SchemaInfo{Name: name, Timestamp: s.now().UnixMilli()}
	doc, err := ToDocument(&info)
	if err != nil {
		return err
	}
	filter := bson.D{{Key: storagemodels.SchemaNameKey.Name(), Value: name}}
	if err := coll.ReplaceOne(ctx, filter, doc, true); err != nil {
		metrics.IncError("schema_info")
		return errors.NewStorageError("record schema info", name, err)
	}
	return nil
}

// collection returns the cached handle of a registered category.
func (s *Storage) collection(name string) (datastore.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[name]
	if !ok {
		return nil, errors.NewIllegalStateError("category %q must be registered before use", name)
	}
	return reg.collection, nil
}

// RegisteredCategories returns the names of registered categories, sorted.
func (s *Storage) RegisteredCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.registrations))
	for name := range s.registrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of records of a registered category.
func (s *Storage) Count(ctx context.Context, cat storagemodels.CategoryInfo) (int64, error) {
	coll, err := s.collection(cat.Name())
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		metrics.IncError("count")
		return 0, errors.NewStorageError("count", cat.Name(), err)
	}
	return n, nil
}

// Purge deletes every record written by agentID from every registered
// category. Agent ids are UUIDs.
func (s *Storage) Purge(ctx context.Context, agentID string) (int64, error) {
	if !strfmt.IsUUID(agentID) {
		return 0, errors.NewValidationError(storagemodels.AgentIDKey.Name(), "not a UUID: "+agentID)
	}

	s.mu.RLock()
	targets := make(map[string]datastore.Collection, len(s.registrations))
	for name, reg := range s.registrations {
		if name != storagemodels.SchemaInfoCategoryName {
			targets[name] = reg.collection
		}
	}
	s.mu.RUnlock()

	filter := bson.D{{Key: storagemodels.AgentIDKey.Name(), Value: agentID}}
	var total int64
	for name, coll := range targets {
		n, err := coll.DeleteMany(ctx, filter)
		if err != nil {
			metrics.IncError("purge")
			return total, errors.NewStorageError("purge", name, err)
		}
		total += n
	}
	s.log.Info("purged agent data", zap.String("agentId", agentID), zap.Int64("deleted", total))
	return total, nil
}

// SchemaInfos lists the registration records of all categories.
func (s *Storage) SchemaInfos(ctx context.Context) ([]storagemodels.SchemaInfo, error) {
	if err := s.RegisterCategory(ctx, storagemodels.SchemaInfoCategory); err != nil {
		return nil, err
	}
	factory := NewStatementFactory(s, storagemodels.SchemaInfoCategory)
	q := factory.CreateQuery()
	q.Sort(storagemodels.SchemaNameKey, storagemodels.Ascending)
	cursor, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []storagemodels.SchemaInfo
	for {
		more, err := cursor.HasNext(ctx)
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
		info, err := cursor.Next(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
}

// SaveFile stores a named file. Saving under an existing name adds a newer
// revision.
func (s *Storage) SaveFile(ctx context.Context, name string, data io.Reader) error {
	db, err := s.conn.Database()
	if err != nil {
		return err
	}
	if err := db.UploadFile(ctx, name, data); err != nil {
		metrics.IncError("save_file")
		return errors.NewStorageError("save file", name, err)
	}
	return nil
}

// LoadFile opens the newest revision of a named file. A missing file is a
// NotFoundError. The caller closes the reader.
func (s *Storage) LoadFile(ctx context.Context, name string) (io.ReadCloser, error) {
	db, err := s.conn.Database()
	if err != nil {
		return nil, err
	}
	r, err := db.OpenFile(ctx, name)
	if errors.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		metrics.IncError("load_file")
		return nil, errors.NewStorageError("load file", name, err)
	}
	return r, nil
}

// AddUser creates a database user with read and write access. The password
// buffer is zeroed before returning.
func (s *Storage) AddUser(ctx context.Context, creds datastore.Credentials) error {
	password := creds.Password()
	defer datastore.ZeroBytes(password)

	user := creds.Username()
	if user == "" {
		return errors.NewValidationError("username", "required")
	}
	if len(password) == 0 {
		return errors.NewValidationError("password", "required")
	}

	db, err := s.conn.Database()
	if err != nil {
		return err
	}
	cmd := bson.D{
		{Key: "createUser", Value: user},
		{Key: "pwd", Value: string(password)},
		{Key: "roles", Value: bson.A{bson.D{{Key: "role", Value: "readWrite"}, {Key: "db", Value: db.Name()}}}},
	}
	if err := db.RunCommand(ctx, cmd); err != nil {
		metrics.IncError("add_user")
		return errors.NewStorageError("add user", "", err)
	}
	s.log.Info("created storage user", zap.String("user", user))
	return nil
}
