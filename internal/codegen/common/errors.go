package common

import "errors"

var (
	// ErrWriteFailure wraps any failure to create or write a generated file.
	ErrWriteFailure = errors.New("write failure")
	// ErrOutputCollision is reported when two sources derive the same output path.
	ErrOutputCollision = errors.New("output path collision")
	// ErrDuplicateType is reported when a type name, or the descriptor variable
	// derived from it, is defined more than once in a run.
	ErrDuplicateType = errors.New("duplicate type")
	// ErrStaleOutput is reported in check mode for missing or outdated files.
	ErrStaleOutput = errors.New("generated file is stale")
)
