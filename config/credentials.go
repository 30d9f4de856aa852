/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
)

// EnvCredentials supplies storage credentials from STATSTORE_USERNAME and
// STATSTORE_PASSWORD. Values are read on every call so that nothing is
// cached in memory.
type EnvCredentials struct{}

func (EnvCredentials) Username() string {
	return os.Getenv(EnvPrefix + "USERNAME")
}

// Password returns a fresh copy; the caller zeroes it after use.
func (EnvCredentials) Password() []byte {
	return []byte(os.Getenv(EnvPrefix + "PASSWORD"))
}

// StaticCredentials holds credentials given on the command line or in tests.
// Password returns a copy so the original survives zeroing by the consumer.
type StaticCredentials struct {
	User   string
	Secret []byte
}

func (s StaticCredentials) Username() string {
	return s.User
}

func (s StaticCredentials) Password() []byte {
	out := make([]byte, len(s.Secret))
	copy(out, s.Secret)
	return out
}
