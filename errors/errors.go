/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")
	
	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")
	
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	
	// ErrConnection is returned when the backing store handshake or verification fails
	ErrConnection = errors.New("connection failed")

	// ErrStorage wraps any backing-store driver fault
	ErrStorage = errors.New("storage failure")

	// ErrConversion is returned when a record does not map onto its data type
	ErrConversion = errors.New("conversion failed")

	// ErrIllegalState is returned when an API is used out of order
	ErrIllegalState = errors.New("illegal state")

	// ErrDescriptorParsing is returned for malformed statement descriptors
	ErrDescriptorParsing = errors.New("descriptor parsing failed")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConnectionError represents a failed connection attempt. Status is the
// connection status after the failure was recorded.
type ConnectionError struct {
	Status string
	Cause  error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed (status %s): %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("connection failed (status %s)", e.Status)
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// StorageError wraps a driver error raised while executing an operation
// against a category.
type StorageError struct {
	Operation string
	Category  string
	Cause     error
}

func (e *StorageError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("storage %s on %q failed: %v", e.Operation, e.Category, e.Cause)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Cause)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ConversionError represents a mismatch between a stored document and the
// Go type it is mapped onto.
type ConversionError struct {
	Type    string
	Field   string
	Message string
}

func (e *ConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot convert %s field %q: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("cannot convert %s: %s", e.Type, e.Message)
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// IllegalStateError represents API misuse, such as applying a statement
// before its where clause is set.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return "illegal state: " + e.Message
}

func (e *IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}

// DescriptorParsingError represents a statement descriptor that does not
// match the descriptor grammar or its semantic rules.
type DescriptorParsingError struct {
	Descriptor string
	Message    string
}

func (e *DescriptorParsingError) Error() string {
	if e.Descriptor != "" {
		return fmt.Sprintf("cannot parse descriptor %q: %s", e.Descriptor, e.Message)
	}
	return "cannot parse descriptor: " + e.Message
}

func (e *DescriptorParsingError) Is(target error) bool {
	return target == ErrDescriptorParsing
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(status string, cause error) error {
	return &ConnectionError{Status: status, Cause: cause}
}

// NewStorageError creates a new StorageError
func NewStorageError(operation, category string, cause error) error {
	return &StorageError{Operation: operation, Category: category, Cause: cause}
}

// NewConversionError creates a new ConversionError
func NewConversionError(typeName, field, message string) error {
	return &ConversionError{Type: typeName, Field: field, Message: message}
}

// NewIllegalStateError creates a new IllegalStateError
func NewIllegalStateError(format string, args ...any) error {
	return &IllegalStateError{Message: fmt.Sprintf(format, args...)}
}

// NewDescriptorParsingError creates a new DescriptorParsingError
func NewDescriptorParsingError(descriptor, format string, args ...any) error {
	return &DescriptorParsingError{Descriptor: descriptor, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsConversionError checks if an error is a conversion error
func IsConversionError(err error) bool {
	return errors.Is(err, ErrConversion)
}

// IsIllegalState checks if an error is an illegal state error
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsDescriptorParsing checks if an error is a descriptor parsing error
func IsDescriptorParsing(err error) bool {
	return errors.Is(err, ErrDescriptorParsing)
}
