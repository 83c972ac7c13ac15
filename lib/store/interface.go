package store

import (
	"fmt"

	"github.com/finchkv/finch/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the generic interface for interacting with a key–value store.
// All operations return a *Error (nil on success); operations with an outcome
// additionally return booleans reporting what happened, so that callers can
// answer conditional commands (delete count, exists, expire hit) without a
// second read.
//
// Expiry is expressed as an absolute wall-clock deadline in unix nanoseconds.
// A zero deadline means the value never expires. The caller computes the
// deadline (e.g. from a request TTL) so that every replica of a distributed
// store stores the identical timestamp.
type IStore interface {
	// Set inserts or updates a key–value pair. Any expiry deadline previously
	// attached to the key is cleared.
	Set(key string, value []byte) (err error)
	// SetX inserts or updates a key–value pair with an expiry deadline.
	SetX(key string, value []byte, expiresAt int64) (err error)
	// SetXIfUnset inserts a key–value pair only if the key does not currently
	// hold a live value. The boolean reports whether the insert happened.
	SetXIfUnset(key string, value []byte, expiresAt int64) (inserted bool, err error)
	// Expire attaches or overwrites the expiry deadline of a live key.
	// The boolean reports whether a live value was found.
	Expire(key string, expiresAt int64) (found bool, err error)
	// Delete deletes a key–value pair. The boolean reports whether a live
	// value was removed.
	Delete(key string) (removed bool, err error)
	// Get returns the value for a key. The boolean return value indicates
	// whether a live value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Has returns whether a key currently holds a live value.
	Has(key string) (loaded bool, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// Close releases resources held by the store. For distributed stores the
	// underlying consensus host is owned by the caller and is not closed here.
	Close() error
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}
