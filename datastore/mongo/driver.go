/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"crypto/tls"
	goerrors "errors"
	"io"
	"net/url"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DialMongo is the default Dialer. It connects the official driver; the
// driver connects lazily, so reachability shows on the first operation.
func DialMongo(ctx context.Context, settings ConnectionSettings, auth *options.Credential, tlsConfig *tls.Config) (datastore.Client, error) {
	opts := options.Client().ApplyURI(settings.URL)
	if settings.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(settings.ServerSelectionTimeout)
	}
	if settings.ConnectTimeout > 0 {
		opts.SetConnectTimeout(settings.ConnectTimeout)
	}
	if auth != nil {
		opts.SetAuth(*auth)
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	client, err := driver.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &driverClient{client: client}, nil
}

type driverClient struct {
	client *driver.Client
}

func (c *driverClient) Database(name string) datastore.Database {
	return &driverDatabase{db: c.client.Database(name)}
}

func (c *driverClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

type driverDatabase struct {
	db *driver.Database
}

func (d *driverDatabase) Name() string {
	return d.db.Name()
}

func (d *driverDatabase) ListCollectionNames(ctx context.Context) ([]string, error) {
	return d.db.ListCollectionNames(ctx, bson.D{})
}

func (d *driverDatabase) CreateCollection(ctx context.Context, name string) error {
	return d.db.CreateCollection(ctx, name)
}

func (d *driverDatabase) Collection(name string) datastore.Collection {
	return &driverCollection{coll: d.db.Collection(name)}
}

func (d *driverDatabase) RunCommand(ctx context.Context, cmd bson.D) error {
	return d.db.RunCommand(ctx, cmd).Err()
}

func (d *driverDatabase) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(d.db)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (d *driverDatabase) UploadFile(ctx context.Context, name string, r io.Reader) error {
	bucket, err := d.bucket(ctx)
	if err != nil {
		return err
	}
	_, err = bucket.UploadFromStream(name, r)
	return err
}

func (d *driverDatabase) OpenFile(ctx context.Context, name string) (io.ReadCloser, error) {
	bucket, err := d.bucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := bucket.OpenDownloadStreamByName(name)
	if goerrors.Is(err, gridfs.ErrFileNotFound) {
		return nil, errors.NewNotFoundError("file", name)
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

type driverCollection struct {
	coll *driver.Collection
}

func (c *driverCollection) Name() string {
	return c.coll.Name()
}

func (c *driverCollection) InsertOne(ctx context.Context, doc bson.D) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

func (c *driverCollection) ReplaceOne(ctx context.Context, filter, replacement bson.D, upsert bool) error {
	_, err := c.coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(upsert))
	return err
}

func (c *driverCollection) UpdateMany(ctx context.Context, filter, update bson.D) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (c *driverCollection) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *driverCollection) Find(ctx context.Context, filter bson.D, opts *options.FindOptions) (*driver.Cursor, error) {
	if opts == nil {
		return c.coll.Find(ctx, filter)
	}
	return c.coll.Find(ctx, filter, opts)
}

func (c *driverCollection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	return c.coll.CountDocuments(ctx, filter)
}

func (c *driverCollection) Distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	return c.coll.Distinct(ctx, field, filter)
}

func (c *driverCollection) CreateIndex(ctx context.Context, keys []string) error {
	spec := make(bson.D, len(keys))
	for i, k := range keys {
		spec[i] = bson.E{Key: k, Value: 1}
	}
	_, err := c.coll.Indexes().CreateOne(ctx, driver.IndexModel{Keys: spec})
	return err
}

// redactURL strips credentials from a connection string for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}

