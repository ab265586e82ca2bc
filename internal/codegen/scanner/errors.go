package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is reported for a marker whose arguments cannot be parsed.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnterminatedBlock is reported when a block is dropped without an end marker.
	ErrUnterminatedBlock = errors.New("unterminated block")
	// ErrDanglingEnd is reported for an end marker outside of a block.
	ErrDanglingEnd = errors.New("dangling end marker")
	// ErrStrayMember is reported for a data marker outside of a block.
	ErrStrayMember = errors.New("data marker outside of block")
	// ErrParentMismatch is reported when a data or end marker names another
	// type than the open block.
	ErrParentMismatch = errors.New("parent type mismatch")
)

// Error is a scan diagnostic bound to a source position.
type Error struct {
	Path string
	Line int
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Kind)
	}
	return fmt.Sprintf("%s:%d: %v: %s", e.Path, e.Line, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }
