// Package db provides a standardized interface for key-value database implementations.
// It defines a comprehensive KVDB interface that allows for consistent interaction
// with various database backends while abstracting implementation details.
//
// The package focuses on:
//   - A unified interface for key-value operations
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete),
//     expiry-based operations (SetX, Expire),
//     specialized operations (SetXIfUnset), metadata retrieval (GetInfo),
//     and persistence operations (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for different database backends (currently "cedar").
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including entry counts, size statistics,
//     implementation type, and implementation-specific metadata. Note: For most
//     implementations the size statistics will be estimated since a precise
//     calculation can be expensive.
//
// This interface-driven approach allows applications to:
//   - Swap database implementations without code changes
//   - Gracefully handle operations not supported by specific implementations
//   - Maintain consistent behavior across different storage backends
//   - Collect standardized metrics for monitoring and management
//
// Note on Expiry:
//   - Absolute Deadlines: Every expiring write carries an absolute wall-clock
//     deadline (unix nanoseconds) instead of a relative duration. The deadline
//     is computed once by the caller, which keeps expiry deterministic when the
//     same write is applied on several replicas at different times.
//   - External Consistency: Get() must never return an entry whose deadline has
//     passed and Has() must never report one, even if the entry still exists
//     internally pending reclamation. This separation between logical state and
//     physical state allows implementations to use efficient background sweeping
//     strategies without compromising the consistency guarantees of the interface.
//
// Note on the Write Index:
//   - Stale-Write Protection: All write operations require a write-index parameter
//     that serves as a logical timestamp of the write. Implementations record the
//     index per entry and ignore writes older than the recorded one, so replaying
//     a prefix of already-applied operations (for example during recovery from a
//     snapshot plus log) cannot regress newer state.
//   - Manual Advancement: If the caller needs to advance the logical time without
//     performing a write operation, the SetWriteIdx() method should be used.
//   - Monotonicity Guarantee: All implementations must ensure that the write-index
//     only increases monotonically. Attempts to set a write-index lower than the
//     current one must be ignored.
//
// Related Packages:
//
// The engines/cedar package (github.com/finchkv/finch/lib/db/engines/cedar) provides
// an implementation of the KVDB interface on a concurrent hash map. It features
// lazy expiry on the query path, a periodic background sweeper for memory
// reclamation, and binary persistence capabilities. The implementation is
// optimized for scenarios requiring high throughput with concurrent operations.
//
// The util package (github.com/finchkv/finch/lib/db/util) provides complementary
// tools for working with db.KVDB implementations, currently a SizeHistogram for
// analyzing data size distributions without full scans.
//
// The testing package (github.com/finchkv/finch/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
