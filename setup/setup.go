/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package setup

import (
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/logger"
	"go.uber.org/zap"
)

// StampFileName marks a data directory whose storage user was created.
const StampFileName = "mongodb-user-done.stamp"

// Status is the outcome of a credentials setup run.
type Status int

const (
	StatusCompleted Status = iota
	StatusAlreadyConfigured
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "COMPLETED"
	case StatusAlreadyConfigured:
		return "ALREADY_CONFIGURED"
	case StatusFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is returned by every run. Err is set when Status is StatusFailed.
type Result struct {
	Status    Status
	StampFile string
	Err       error
}

// OK reports whether storage ends up with a configured user.
func (r Result) OK() bool {
	return r.Status != StatusFailed
}

// UserAdder creates a storage user.
type UserAdder interface {
	AddUser(ctx context.Context, creds datastore.Credentials) error
}

// Lifecycle starts storage for the duration of a setup run.
type Lifecycle interface {
	Start(ctx context.Context) (UserAdder, error)
	Stop(ctx context.Context) error
}

// Option configures a CredentialsSetup.
type Option func(*CredentialsSetup)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *CredentialsSetup) {
		s.log = logger.For(log, logger.ComponentSetup)
	}
}

// WithClock replaces the clock used for the stamp file contents.
func WithClock(now func() time.Time) Option {
	return func(s *CredentialsSetup) {
		s.now = now
	}
}

// CredentialsSetup creates the first storage user once per data directory.
type CredentialsSetup struct {
	dataDir   string
	lifecycle Lifecycle
	log       *zap.Logger
	now       func() time.Time
}

// New creates a setup operation for dataDir.
func New(dataDir string, lifecycle Lifecycle, opts ...Option) *CredentialsSetup {
	s := &CredentialsSetup{
		dataDir:   dataDir,
		lifecycle: lifecycle,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StampPath returns the stamp file location.
func (s *CredentialsSetup) StampPath() string {
	return filepath.Join(s.dataDir, StampFileName)
}

// Run starts storage, adds the user, writes the stamp file and stops
// storage. It does nothing when the stamp file exists. A failure to stop
// storage fails the run even though the user was added.
func (s *CredentialsSetup) Run(ctx context.Context, creds datastore.Credentials) Result {
	stamp := s.StampPath()
	if _, err := os.Stat(stamp); err == nil {
		s.log.Info("storage user already configured", zap.String("stamp", stamp))
		return Result{Status: StatusAlreadyConfigured, StampFile: stamp}
	} else if !goerrors.Is(err, os.ErrNotExist) {
		return s.failed(stamp, fmt.Errorf("failed to check stamp file: %w", err))
	}

	adder, err := s.lifecycle.Start(ctx)
	if err != nil {
		return s.failed(stamp, fmt.Errorf("failed to start storage: %w", err))
	}

	addErr := adder.AddUser(ctx, creds)
	if addErr == nil {
		addErr = s.writeStamp(stamp)
	}

	stopErr := s.lifecycle.Stop(context.WithoutCancel(ctx))
	if stopErr != nil {
		stopErr = fmt.Errorf("failed to stop storage: %w", stopErr)
	}

	if err := goerrors.Join(addErr, stopErr); err != nil {
		return s.failed(stamp, err)
	}
	s.log.Info("storage user setup complete", zap.String("stamp", stamp))
	return Result{Status: StatusCompleted, StampFile: stamp}
}

func (s *CredentialsSetup) writeStamp(path string) error {
	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	content := []byte("created " + s.now().UTC().Format(time.RFC3339) + "\n")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if goerrors.Is(err, os.ErrExist) {
			return errors.NewAlreadyExistsError("stamp file", path)
		}
		return fmt.Errorf("failed to create stamp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write stamp file: %w", err)
	}
	return f.Close()
}

func (s *CredentialsSetup) failed(stamp string, err error) Result {
	s.log.Error("storage user setup failed", zap.Error(err))
	return Result{Status: StatusFailed, StampFile: stamp, Err: err}
}
