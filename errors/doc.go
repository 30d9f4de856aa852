/*
Package errors provides semantic error types for the statstore library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound          = errors.New("entity not found")
	    ErrAlreadyExists     = errors.New("entity already exists")
	    ErrInvalidInput      = errors.New("invalid input")
	    ErrConnection        = errors.New("connection failed")
	    ErrStorage           = errors.New("storage failure")
	    ErrConversion        = errors.New("conversion failed")
	    ErrIllegalState      = errors.New("illegal state")
	    ErrDescriptorParsing = errors.New("descriptor parsing failed")
	)

Driver faults never leave the mongo datastore unwrapped: they surface as
StorageError, so callers only ever match against this package.

Usage:

	// Check error type
	cursor, err := query.Execute(ctx)
	if err != nil {
	    if errors.IsIllegalState(err) {
	        // category was never registered
	        return nil, err
	    }
	    return nil, fmt.Errorf("query failed: %w", err)
	}

	// Create typed errors
	err := errors.NewNotFoundError("file", "heapdump-1")
	err := errors.NewValidationError("agentId", "writer identity missing")
	err := errors.NewStorageError("insert", "cpu-stats", driverErr)

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors