package bytebuffers

import (
	"github.com/brickingsoft/errors"
)

var (
	// ErrTooLarge means growing the backing storage failed, either because
	// the requested size overflows int or the allocation itself failed.
	ErrTooLarge = errors.Define("too large")
	// ErrOutOfRange means the caller asked to consume or commit more bytes
	// than the region holds. This is a contract breach, not an io condition:
	// the cursors are left untouched.
	ErrOutOfRange   = errors.Define("out of range")
	ErrAllocateZero = errors.Define("cannot allocate zero")
)

func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "bytebuffers"
)

const (
	errMetaOpKey = "op"
)
