/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"crypto/tls"
	goerrors "errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/logger"
	"github.com/suparena/statstore/metrics"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectionStatus is the state of a Connection.
type ConnectionStatus string

const (
	StatusDisconnected    ConnectionStatus = "DISCONNECTED"
	StatusConnecting      ConnectionStatus = "CONNECTING"
	StatusConnected       ConnectionStatus = "CONNECTED"
	StatusFailedToConnect ConnectionStatus = "FAILED_TO_CONNECT"
)

// Code is the numeric form used by the connection status gauge.
func (s ConnectionStatus) Code() int {
	switch s {
	case StatusConnecting:
		return 1
	case StatusConnected:
		return 2
	case StatusFailedToConnect:
		return 3
	default:
		return 0
	}
}

const (
	eventConnect    = "connect"
	eventConnected  = "connected"
	eventFail       = "fail"
	eventDisconnect = "disconnect"
)

// ConnectionListener is notified synchronously on the goroutine that calls
// Connect or Disconnect. Listeners must return quickly.
type ConnectionListener func(status ConnectionStatus)

// ListenerHandle identifies a registered listener for RemoveListener.
type ListenerHandle uint64

type listenerEntry struct {
	handle   ListenerHandle
	listener ConnectionListener
}

// ConnectionSettings describes the backing store endpoint.
type ConnectionSettings struct {
	URL                    string
	Database               string
	SSL                    config.SSLConfig
	ServerSelectionTimeout time.Duration
	ConnectTimeout         time.Duration
}

// SettingsFromConfig extracts the connection settings of a configuration.
func SettingsFromConfig(cfg *config.Config) ConnectionSettings {
	return ConnectionSettings{
		URL:                    cfg.Storage.URL,
		Database:               cfg.Storage.Database,
		SSL:                    cfg.SSL,
		ServerSelectionTimeout: cfg.Storage.ServerSelectionTimeout,
		ConnectTimeout:         cfg.Storage.ConnectTimeout,
	}
}

// Dialer opens a driver client. auth is nil for unauthenticated connections
// and tlsConfig is nil when TLS is disabled.
type Dialer func(ctx context.Context, settings ConnectionSettings, auth *options.Credential, tlsConfig *tls.Config) (datastore.Client, error)

// ConnectionOption configures a Connection.
type ConnectionOption func(*Connection)

// WithConnectionLogger sets the logger.
func WithConnectionLogger(log *zap.Logger) ConnectionOption {
	return func(c *Connection) {
		c.log = logger.For(log, logger.ComponentConnection)
	}
}

// WithDialer replaces the driver dialer, mainly for tests.
func WithDialer(d Dialer) ConnectionOption {
	return func(c *Connection) {
		c.dial = d
	}
}

// WithCredentials sets the credentials provider used on each connect.
func WithCredentials(creds datastore.Credentials) ConnectionOption {
	return func(c *Connection) {
		c.credentials = creds
	}
}

// Connection owns the lifecycle of one backing store client.
type Connection struct {
	mu          sync.Mutex // serializes Connect and Disconnect
	machine     *fsm.FSM
	settings    ConnectionSettings
	credentials datastore.Credentials
	dial        Dialer
	log         *zap.Logger

	handleMu sync.RWMutex
	client   datastore.Client
	database datastore.Database

	listenerMu   sync.Mutex
	listeners    []listenerEntry
	nextListener ListenerHandle
}

// NewConnection creates a disconnected connection.
func NewConnection(settings ConnectionSettings, opts ...ConnectionOption) *Connection {
	c := &Connection{
		settings: settings,
		dial:     DialMongo,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.machine = fsm.NewFSM(
		string(StatusDisconnected),
		fsm.Events{
			{Name: eventConnect, Src: []string{string(StatusDisconnected), string(StatusFailedToConnect)}, Dst: string(StatusConnecting)},
			{Name: eventConnected, Src: []string{string(StatusConnecting)}, Dst: string(StatusConnected)},
			{Name: eventFail, Src: []string{string(StatusConnecting)}, Dst: string(StatusFailedToConnect)},
			{Name: eventDisconnect, Src: []string{
				string(StatusDisconnected), string(StatusConnecting), string(StatusConnected), string(StatusFailedToConnect),
			}, Dst: string(StatusDisconnected)},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				c.entered(ConnectionStatus(e.Dst))
			},
		},
	)
	return c
}

// Status returns the current state.
func (c *Connection) Status() ConnectionStatus {
	return ConnectionStatus(c.machine.Current())
}

// AddListener registers a listener. Listeners are called in registration order.
func (c *Connection) AddListener(l ConnectionListener) ListenerHandle {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.nextListener++
	c.listeners = append(c.listeners, listenerEntry{handle: c.nextListener, listener: l})
	return c.nextListener
}

// RemoveListener unregisters a listener. Unknown handles are ignored.
func (c *Connection) RemoveListener(h ListenerHandle) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	for i, e := range c.listeners {
		if e.handle == h {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Connect performs the handshake and verification read. On failure the
// connection moves to FAILED_TO_CONNECT, listeners are notified, and a
// ConnectionError is returned. Connecting while connected is an
// IllegalStateError.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Event(ctx, eventConnect); err != nil {
		return errors.NewIllegalStateError("cannot connect while %s", c.Status())
	}

	client, database, err := c.handshake(ctx)
	if err != nil {
		c.log.Warn("connection failed", zap.String("url", redactURL(c.settings.URL)), zap.Error(err))
		c.setHandles(nil, nil)
		_ = c.machine.Event(context.WithoutCancel(ctx), eventFail)
		return errors.NewConnectionError(string(StatusFailedToConnect), err)
	}

	c.setHandles(client, database)
	if err := c.machine.Event(context.WithoutCancel(ctx), eventConnected); err != nil {
		return errors.NewIllegalStateError("connection state changed during connect: %v", err)
	}
	return nil
}

func (c *Connection) handshake(ctx context.Context) (datastore.Client, datastore.Database, error) {
	var tlsConfig *tls.Config
	if c.settings.SSL.Enabled {
		var err error
		tlsConfig, err = BuildTLSConfig(c.settings.SSL)
		if err != nil {
			return nil, nil, err
		}
	}

	var auth *options.Credential
	if c.credentials != nil {
		if user := c.credentials.Username(); user != "" {
			password := c.credentials.Password()
			auth = &options.Credential{Username: user, Password: string(password), PasswordSet: true}
			datastore.ZeroBytes(password)
		}
	}

	client, err := c.dial(ctx, c.settings, auth, tlsConfig)
	if auth != nil {
		auth.Password = ""
	}
	if err != nil {
		return nil, nil, err
	}

	database := client.Database(c.settings.Database)
	if _, err := database.ListCollectionNames(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, err
	}
	return client, database, nil
}

// Disconnect releases the client and moves to DISCONNECTED. It is idempotent
// and always notifies listeners.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handleMu.Lock()
	client := c.client
	c.client, c.database = nil, nil
	c.handleMu.Unlock()

	var closeErr error
	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			c.log.Warn("client disconnect failed", zap.Error(err))
			closeErr = errors.NewStorageError("disconnect", "", err)
		}
	}

	err := c.machine.Event(ctx, eventDisconnect)
	var noTransition fsm.NoTransitionError
	if goerrors.As(err, &noTransition) {
		// Already disconnected: the state callback did not run.
		c.entered(StatusDisconnected)
	}
	return closeErr
}

// Database returns the live database handle. It is an IllegalStateError
// unless the connection is CONNECTED.
func (c *Connection) Database() (datastore.Database, error) {
	c.handleMu.RLock()
	defer c.handleMu.RUnlock()
	if c.database == nil {
		return nil, errors.NewIllegalStateError("not connected (status %s)", c.Status())
	}
	return c.database, nil
}

func (c *Connection) setHandles(client datastore.Client, database datastore.Database) {
	c.handleMu.Lock()
	defer c.handleMu.Unlock()
	c.client, c.database = client, database
}

func (c *Connection) entered(status ConnectionStatus) {
	metrics.SetConnectionStatus(status.Code())
	c.log.Info("connection status changed", zap.String("status", string(status)))
	if status == StatusConnecting {
		return
	}

	c.listenerMu.Lock()
	listeners := make([]ConnectionListener, len(c.listeners))
	for i, e := range c.listeners {
		listeners[i] = e.listener
	}
	c.listenerMu.Unlock()

	for _, l := range listeners {
		l(status)
	}
}
