package silt

import "errors"

var (
	// ErrNotFound reports a GetOnce miss.
	ErrNotFound = errors.New("record not found")

	// ErrClosed reports a Put against a closed store.
	ErrClosed = errors.New("store closed")

	// ErrNilKey and ErrNilValue report Put precondition violations.
	ErrNilKey   = errors.New("nil key")
	ErrNilValue = errors.New("nil value")

	// ErrNilBackend reports Open without a backend.
	ErrNilBackend = errors.New("nil backend")
)
