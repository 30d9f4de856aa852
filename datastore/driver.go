/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client is the backing driver handle owned by a connection.
type Client interface {
	Database(name string) Database
	Disconnect(ctx context.Context) error
}

// Database is one logical database of a Client.
type Database interface {
	Name() string
	ListCollectionNames(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error
	Collection(name string) Collection
	// RunCommand executes an administrative command such as createUser.
	RunCommand(ctx context.Context, cmd bson.D) error
	// UploadFile stores a named file, replacing nothing: older revisions stay.
	UploadFile(ctx context.Context, name string, r io.Reader) error
	// OpenFile opens the newest revision of a named file. A missing file is
	// a NotFoundError.
	OpenFile(ctx context.Context, name string) (io.ReadCloser, error)
}

// Collection is the driver view of one category's documents. Filters and
// updates are in the translated query dialect.
type Collection interface {
	Name() string
	InsertOne(ctx context.Context, doc bson.D) error
	ReplaceOne(ctx context.Context, filter, replacement bson.D, upsert bool) error
	UpdateMany(ctx context.Context, filter, update bson.D) (modified int64, err error)
	DeleteMany(ctx context.Context, filter bson.D) (deleted int64, err error)
	Find(ctx context.Context, filter bson.D, opts *options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter bson.D) (int64, error)
	Distinct(ctx context.Context, field string, filter bson.D) ([]any, error)
	// CreateIndex builds a compound ascending index over keys in order.
	CreateIndex(ctx context.Context, keys []string) error
}

// Credentials supplies the login used during a connection handshake. The
// caller zeroes the returned password once it has been used.
type Credentials interface {
	Username() string
	Password() []byte
}

// ZeroBytes overwrites a secret in place.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
