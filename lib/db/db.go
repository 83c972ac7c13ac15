package db

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplCedar Implementation = "cedar"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet         Feature = 1 << iota // Support for Set operations
	FeatureSetX                            // Support for SetX operations
	FeatureSetXIfUnset                     // Support for SetXIfUnset operations
	FeatureGet                             // Support for Get operations
	FeatureExpire                          // Support for Expire operations
	FeatureDelete                          // Support for Delete operations
	FeatureHas                             // Support for Has operations
	FeatureSave                            // Support for Save operations
	FeatureLoad                            // Support for Load operations
	FeatureSweep                           // Support for background expiry sweeping
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureSetX:
		return "SetX"
	case FeatureSetXIfUnset:
		return "SetXIfUnset"
	case FeatureGet:
		return "Get"
	case FeatureExpire:
		return "Expire"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	case FeatureSweep:
		return "Sweep"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	Entries           int            `json:"entries"`
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for key-value database implementations.
// It provides methods for basic operations like Set, Get, Delete, and various utility functions.
// Any implementation of this interface must manage keys in a consistent way.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
//
// Note on Expiry:
//   - All expiring write operations take an absolute deadline (expiresAt, unix
//     nanoseconds, 0 = no expiry) rather than a relative duration. The caller
//     computes the deadline once, so a replicated caller can hand the same
//     deadline to every replica and all copies expire the entry at the same
//     wall-clock instant.
//   - An entry whose deadline has passed behaves exactly like a missing entry
//     for Get, Has and all conditional writes. Reclamation of its memory may
//     happen lazily.
//
// Note on the Write Index:
//   - All write operations carry a writeIndex, a monotonically increasing
//     logical timestamp recorded on the entry. A write whose index is lower
//     than the index already recorded for the key is stale (a replayed
//     operation that the current state already reflects) and must be ignored.
//   - The database tracks the highest index it has seen; SetWriteIdx advances
//     it manually and WriteIdx reads it back.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry with the given key and value.
	// If the key already exists, the old value and any expiry deadline are overwritten.
	Set(key string, value []byte, writeIndex uint64)

	// SetX inserts or updates an entry with the given key, value and expiry deadline.
	// If the key already exists, the old value and deadline are overwritten.
	// A deadline of 0 means the entry never expires.
	SetX(key string, value []byte, expiresAt int64, writeIndex uint64)

	// SetXIfUnset inserts an entry only if no live entry exists for the key.
	// The returned bool reports whether the insert happened.
	SetXIfUnset(key string, value []byte, expiresAt int64, writeIndex uint64) (inserted bool)

	// Expire sets or overwrites the expiry deadline of an existing entry.
	// The returned bool reports whether a live entry was found.
	Expire(key string, expiresAt int64, writeIndex uint64) (found bool)

	// Delete removes an entry with the specified key.
	// The returned bool reports whether a live entry was removed.
	Delete(key string, writeIndex uint64) (removed bool)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a live value for the key was found.
	Get(key string) (value []byte, loaded bool)

	// Has checks whether a live entry exists for the key.
	Has(key string) (loaded bool)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the database state from data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database.
	WriteIdx() (index uint64)

	// Close closes the database.
	Close() (err error)
}
