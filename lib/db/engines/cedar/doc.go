// Package cedar implements a key-value database (KVDB) on a single concurrent
// hash map with wall-clock expiry. It provides a complete implementation of
// the db.KVDB interface with a focus on thread safety, predictable expiry
// semantics, and simple persistence.
//
// The package focuses on:
//   - Concurrent access through a lock-minimizing hash map (xsync.MapOf)
//   - Wall-clock entry expiry with absolute deadlines
//   - Lazy reclamation on the query path plus a periodic background sweeper
//   - Persistent storage with fuzzy snapshots and efficient binary encoding
//
// Key Components:
//
//   - cedarImpl: The central database structure implementing db.KVDB. It holds
//     the entry map, coordinates the background sweeper, and provides the
//     public API for key-value operations. The structure does not generate
//     write indices itself but records the index the caller passes with each
//     write, so the caller can choose the index source best suited to its
//     deployment (a local atomic counter, a replicated log position, ...).
//
//   - Entry: The core structure for storing values and metadata. Each entry
//     contains the byte value, the absolute expiry deadline, and the write
//     index of the last accepted write. Entries are immutable once stored;
//     every write replaces the whole entry.
//
// Internal Mechanisms:
//
//   - Expiry: Deadlines are absolute unix-nanosecond timestamps fixed by the
//     caller. An entry whose deadline has passed is logically gone: Get and
//     Has treat it as missing, conditional writes treat the key as unset. The
//     entry's memory is reclaimed either lazily (a query that observes the
//     expired entry removes it) or by the sweeper. Because the deadline is
//     part of the stored entry, replaying the same write on another replica
//     yields an entry that expires at the same wall-clock instant.
//
//   - Expiry Sweeping: A single background goroutine periodically scans the
//     map and removes expired entries. Each removal re-checks the deadline
//     under the map's bucket lock, since a fresh write may have replaced the
//     entry between the scan and the removal. Queries never depend on the
//     sweeper for correctness; the interval only bounds how long dead memory
//     is retained.
//
//   - Stale Write Prevention: Each entry stores the write index at which it
//     was created or last updated. A write operation is only applied if its
//     write index is greater than or equal to the stored index of the entry.
//     This ensures that replayed or out-of-order operations do not overwrite
//     newer data.
//
//   - Conditional Writes: The SetXIfUnset operation atomically inserts a key
//     only if no live entry exists, providing primitive support for
//     coordination patterns. Delete and Expire report whether a live entry
//     was affected, computed under the same per-bucket atomicity.
//
//   - Persistence Format: The database uses a compact binary format with the
//     following structure:
//     1. Magic number "CEDARDB\x00" to identify the file format
//     2. Version number (currently 1)
//     3. Number of entries
//     4. For each entry: key length, key bytes, expiry deadline, write index,
//     value length, value bytes
//     Note: The database is not locked during snapshot creation or loading.
//     Save produces a fuzzy snapshot that does not represent a consistent cut
//     of the database; it is on the caller to serialize writes if a consistent
//     cut is required (a replicated state machine does this naturally).
//
// The cedar package is designed to serve as the storage engine behind the
// store implementations, such as caches, session stores, and temporary data
// storage systems.
package cedar
