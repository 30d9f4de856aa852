/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the datastore driver
// seam for testing
package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client is a mock implementation of datastore.Client for testing
type Client struct {
	mu          sync.Mutex
	databases   map[string]*Database
	listError   error
	disconnects int
}

// New creates a new mock Client
func New() *Client {
	return &Client{
		databases: make(map[string]*Database),
	}
}

// WithListError makes ListCollectionNames fail on every database
func (c *Client) WithListError(err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listError = err
	return c
}

// Database returns the named database, creating it on first use
func (c *Client) Database(name string) datastore.Database {
	return c.DB(name)
}

// DB is Database with the concrete mock type, for test inspection
func (c *Client) DB(name string) *Database {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, ok := c.databases[name]
	if !ok {
		db = &Database{
			client:      c,
			name:        name,
			collections: make(map[string]*Collection),
			files:       make(map[string][][]byte),
		}
		c.databases[name] = db
	}
	return db
}

// Disconnect records the disconnect; the data survives for inspection
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return nil
}

// Disconnects returns how many times Disconnect was called
func (c *Client) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

func (c *Client) listErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listError
}

// Database is a mock implementation of datastore.Database
type Database struct {
	client       *Client
	mu           sync.RWMutex
	name         string
	collections  map[string]*Collection
	files        map[string][][]byte
	commands     []bson.D
	users        []string
	commandError error
	createError  error
}

// WithCommandError makes RunCommand return an error
func (d *Database) WithCommandError(err error) *Database {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commandError = err
	return d
}

// WithCreateError makes CreateCollection return an error
func (d *Database) WithCreateError(err error) *Database {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createError = err
	return d
}

func (d *Database) Name() string {
	return d.name
}

// ListCollectionNames lists collections that were created or written to
func (d *Database) ListCollectionNames(ctx context.Context) ([]string, error) {
	if err := d.client.listErr(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.collections))
	for name, c := range d.collections {
		if c.isCreated() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateCollection fails if the collection already exists, like the server
func (d *Database) CreateCollection(ctx context.Context, name string) error {
	d.mu.RLock()
	createErr := d.createError
	d.mu.RUnlock()
	if createErr != nil {
		return createErr
	}

	c := d.Coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.created {
		return fmt.Errorf("collection %s.%s already exists", d.name, name)
	}
	c.created = true
	return nil
}

func (d *Database) Collection(name string) datastore.Collection {
	return d.Coll(name)
}

// Coll is Collection with the concrete mock type, for test inspection
func (d *Database) Coll(name string) *Collection {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.collections[name]
	if !ok {
		c = &Collection{name: name}
		d.collections[name] = c
	}
	return c
}

// RunCommand records the command. createUser commands register the user name
func (d *Database) RunCommand(ctx context.Context, cmd bson.D) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.commandError != nil {
		return d.commandError
	}
	d.commands = append(d.commands, cmd)
	if len(cmd) > 0 && cmd[0].Key == "createUser" {
		user, _ := cmd[0].Value.(string)
		d.users = append(d.users, user)
	}
	return nil
}

// Commands returns the recorded commands
func (d *Database) Commands() []bson.D {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]bson.D, len(d.commands))
	copy(out, d.commands)
	return out
}

// Users returns the names of users created through RunCommand
func (d *Database) Users() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.users))
	copy(out, d.users)
	return out
}

// UploadFile stores a new revision of the named file
func (d *Database) UploadFile(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = append(d.files[name], data)
	return nil
}

// OpenFile opens the newest revision of the named file
func (d *Database) OpenFile(ctx context.Context, name string) (io.ReadCloser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	revisions := d.files[name]
	if len(revisions) == 0 {
		return nil, errors.NewNotFoundError("file", name)
	}
	return io.NopCloser(bytes.NewReader(revisions[len(revisions)-1])), nil
}

// Collection is a mock implementation of datastore.Collection
type Collection struct {
	mu          sync.RWMutex
	name        string
	created     bool
	docs        []bson.D
	indexes     [][]string
	findOptions []*options.FindOptions
	insertError error
	findError   error
	updateError error
	deleteError error
}

// WithInsertError makes InsertOne and ReplaceOne return an error
func (c *Collection) WithInsertError(err error) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertError = err
	return c
}

// WithFindError makes Find, CountDocuments and Distinct return an error
func (c *Collection) WithFindError(err error) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findError = err
	return c
}

// WithUpdateError makes UpdateMany return an error
func (c *Collection) WithUpdateError(err error) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateError = err
	return c
}

// WithDeleteError makes DeleteMany return an error
func (c *Collection) WithDeleteError(err error) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteError = err
	return c
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) isCreated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.created
}

// InsertOne stores a copy of doc with a generated _id
func (c *Collection) InsertOne(ctx context.Context, doc bson.D) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insertError != nil {
		return c.insertError
	}
	c.created = true
	c.docs = append(c.docs, withID(doc, primitive.NewObjectID()))
	return nil
}

// ReplaceOne replaces the first match, or inserts when upsert is set
func (c *Collection) ReplaceOne(ctx context.Context, filter, replacement bson.D, upsert bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insertError != nil {
		return c.insertError
	}
	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return err
		}
		if ok {
			id, _ := lookup(doc, "_id")
			c.docs[i] = withID(replacement, id)
			return nil
		}
	}
	if upsert {
		c.created = true
		c.docs = append(c.docs, withID(replacement, primitive.NewObjectID()))
	}
	return nil
}

// UpdateMany applies a $set update and counts documents that changed
func (c *Collection) UpdateMany(ctx context.Context, filter, update bson.D) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.updateError != nil {
		return 0, c.updateError
	}
	var set bson.D
	for _, e := range update {
		if e.Key != "$set" {
			return 0, fmt.Errorf("unsupported update operator: %s", e.Key)
		}
		d, ok := e.Value.(bson.D)
		if !ok {
			return 0, fmt.Errorf("$set needs a document")
		}
		set = append(set, d...)
	}

	var modified int64
	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return modified, err
		}
		if !ok {
			continue
		}
		changed := false
		for _, e := range set {
			if cur, present := lookup(doc, e.Key); present && valuesEqual(cur, e.Value) {
				continue
			}
			doc = setField(doc, e.Key, e.Value)
			changed = true
		}
		if changed {
			c.docs[i] = doc
			modified++
		}
	}
	return modified, nil
}

// DeleteMany removes every matching document
func (c *Collection) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleteError != nil {
		return 0, c.deleteError
	}
	kept := make([]bson.D, 0, len(c.docs))
	var deleted int64
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return deleted, nil
}

// Find evaluates filter, sort and limit and returns a driver cursor over the
// result. The options are recorded for inspection.
func (c *Collection) Find(ctx context.Context, filter bson.D, opts *options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findError != nil {
		return nil, c.findError
	}
	if opts == nil {
		opts = options.Find()
	}
	c.findOptions = append(c.findOptions, opts)

	found, err := c.matching(filter)
	if err != nil {
		return nil, err
	}
	if opts.Sort != nil {
		spec, ok := opts.Sort.(bson.D)
		if !ok {
			return nil, fmt.Errorf("sort must be a bson.D, got %T", opts.Sort)
		}
		if err := sortDocs(found, spec); err != nil {
			return nil, err
		}
	}
	if opts.Limit != nil && *opts.Limit > 0 && int64(len(found)) > *opts.Limit {
		found = found[:*opts.Limit]
	}

	docs := make([]interface{}, len(found))
	for i, d := range found {
		docs[i] = d
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (c *Collection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.findError != nil {
		return 0, c.findError
	}
	found, err := c.matching(filter)
	return int64(len(found)), err
}

// Distinct collects the distinct values of field, flattening arrays
func (c *Collection) Distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.findError != nil {
		return nil, c.findError
	}
	found, err := c.matching(filter)
	if err != nil {
		return nil, err
	}
	var values []any
	add := func(v any) {
		for _, seen := range values {
			if valuesEqual(seen, v) {
				return
			}
		}
		values = append(values, v)
	}
	for _, doc := range found {
		v, present := lookup(doc, field)
		if !present {
			continue
		}
		if arr, ok := asArray(v); ok {
			for _, el := range arr {
				add(el)
			}
			continue
		}
		add(v)
	}
	return values, nil
}

// CreateIndex records the compound index key order
func (c *Collection) CreateIndex(ctx context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = true
	idx := make([]string, len(keys))
	copy(idx, keys)
	c.indexes = append(c.indexes, idx)
	return nil
}

// Helper methods for testing

// Indexes returns the created indexes
func (c *Collection) Indexes() [][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([][]string, len(c.indexes))
	copy(out, c.indexes)
	return out
}

// FindOptions returns the options of every Find call so far
func (c *Collection) FindOptions() []*options.FindOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*options.FindOptions, len(c.findOptions))
	copy(out, c.findOptions)
	return out
}

// SetData replaces the stored documents (for testing)
func (c *Collection) SetData(docs ...bson.D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = true
	c.docs = c.docs[:0]
	for _, d := range docs {
		c.docs = append(c.docs, withID(d, primitive.NewObjectID()))
	}
}

// GetData returns copies of the stored documents, _id included
func (c *Collection) GetData() []bson.D {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]bson.D, len(c.docs))
	for i, d := range c.docs {
		out[i] = append(bson.D(nil), d...)
	}
	return out
}

// Count returns the number of stored documents
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Clear removes all documents
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = nil
}

// matching must be called with c.mu held
func (c *Collection) matching(filter bson.D) ([]bson.D, error) {
	var out []bson.D
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func withID(doc bson.D, id any) bson.D {
	out := make(bson.D, 0, len(doc)+1)
	out = append(out, bson.E{Key: "_id", Value: id})
	for _, e := range doc {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}
	return out
}

func setField(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			out := append(bson.D(nil), doc...)
			out[i].Value = value
			return out
		}
	}
	return append(append(bson.D(nil), doc...), bson.E{Key: key, Value: value})
}

var (
	_ datastore.Client     = (*Client)(nil)
	_ datastore.Database   = (*Database)(nil)
	_ datastore.Collection = (*Collection)(nil)
)
