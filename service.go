/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statstore

import (
	"context"
	"fmt"

	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/datastore/mongo"
	"github.com/suparena/statstore/logger"
	"github.com/suparena/statstore/setup"
	"github.com/suparena/statstore/statement"
	"go.uber.org/zap"
)

// ServiceOption configures a DbService
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	log         *zap.Logger
	dialer      mongo.Dialer
	credentials datastore.Credentials
	descriptors *DescriptorRegistry
}

// WithLogger sets the base logger handed to every component
func WithLogger(log *zap.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.log = log
	}
}

// WithDialer replaces the driver dialer
func WithDialer(d mongo.Dialer) ServiceOption {
	return func(o *serviceOptions) {
		o.dialer = d
	}
}

// WithCredentials sets the login used on connect
func WithCredentials(creds datastore.Credentials) ServiceOption {
	return func(o *serviceOptions) {
		o.credentials = creds
	}
}

// WithDescriptors shares a descriptor registry with the service
func WithDescriptors(r *DescriptorRegistry) ServiceOption {
	return func(o *serviceOptions) {
		o.descriptors = r
	}
}

// DbService owns the connection, the storage built on it and the prepared
// statement factory.
type DbService struct {
	conn        *mongo.Connection
	storage     *mongo.Storage
	statements  *statement.Factory
	descriptors *DescriptorRegistry
	log         *zap.Logger
}

// NewDbService wires a disconnected service from cfg
func NewDbService(cfg *config.Config, opts ...ServiceOption) (*DbService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := serviceOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.descriptors == nil {
		o.descriptors = NewDescriptorRegistry()
	}

	connOpts := []mongo.ConnectionOption{mongo.WithConnectionLogger(o.log)}
	if o.dialer != nil {
		connOpts = append(connOpts, mongo.WithDialer(o.dialer))
	}
	if o.credentials != nil {
		connOpts = append(connOpts, mongo.WithCredentials(o.credentials))
	}
	conn := mongo.NewConnection(mongo.SettingsFromConfig(cfg), connOpts...)

	size := cfg.Statements.CacheSize
	if size == 0 {
		size = statement.DefaultCacheSize
	}
	statements, err := statement.NewFactory(size, statement.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create statement factory: %w", err)
	}

	return &DbService{
		conn:        conn,
		storage:     mongo.NewStorage(conn, mongo.WithLogger(o.log)),
		statements:  statements,
		descriptors: o.descriptors,
		log:         logger.For(o.log, logger.ComponentService),
	}, nil
}

// Connect connects the storage and validates every registered descriptor.
// A descriptor failure disconnects again and is returned.
func (s *DbService) Connect(ctx context.Context) error {
	if err := s.conn.Connect(ctx); err != nil {
		return err
	}
	if err := s.descriptors.Validate(); err != nil {
		s.log.Error("invalid statement descriptors", zap.Error(err))
		if derr := s.conn.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			s.log.Warn("disconnect after descriptor failure", zap.Error(derr))
		}
		return err
	}
	s.log.Info("storage service connected", zap.Int("descriptors", s.descriptors.Len()))
	return nil
}

// Disconnect releases the connection. Registered categories are forgotten.
func (s *DbService) Disconnect(ctx context.Context) error {
	return s.conn.Disconnect(ctx)
}

// Start connects and hands out the storage for a setup run
func (s *DbService) Start(ctx context.Context) (setup.UserAdder, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s.storage, nil
}

// Stop disconnects after a setup run
func (s *DbService) Stop(ctx context.Context) error {
	return s.Disconnect(ctx)
}

// Close detaches the storage from the connection. The service is unusable afterwards.
func (s *DbService) Close() {
	s.storage.Close()
	s.statements.Purge()
}

func (s *DbService) Status() mongo.ConnectionStatus {
	return s.conn.Status()
}

// AddStatusListener registers a connection status listener
func (s *DbService) AddStatusListener(l mongo.ConnectionListener) mongo.ListenerHandle {
	return s.conn.AddListener(l)
}

func (s *DbService) RemoveStatusListener(h mongo.ListenerHandle) {
	s.conn.RemoveListener(h)
}

func (s *DbService) Storage() *mongo.Storage {
	return s.storage
}

func (s *DbService) Statements() *statement.Factory {
	return s.statements
}

func (s *DbService) Descriptors() *DescriptorRegistry {
	return s.descriptors
}

var _ setup.Lifecycle = (*DbService)(nil)
