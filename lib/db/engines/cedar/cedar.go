package cedar

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar/internal"
	"github.com/finchkv/finch/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	magicNum             = "CEDARDB\x00"         // File format identifier
	cedarVersion         = 1                     // Snapshot format version
	defaultSweepInterval = 100 * time.Millisecond // Default interval between sweep runs
	infoSampleLimit      = 1000                  // Max entries sampled by GetInfo
)

// --------------------------------------------------------------------------
// Core Cedar database structure
// --------------------------------------------------------------------------

// cedarImpl implements db.KVDB on a single concurrent hash map with
// wall-clock expiry
type cedarImpl struct {
	data      *xsync.MapOf[string, internal.Entry] // Map of live key-value entries
	currIndex atomic.Uint64                        // Highest write index seen

	// background expiry sweeping
	sweepInterval  time.Duration
	sweepIsRunning atomic.Bool
	sweepDone      chan struct{}
}

// DBOptions configures the cedarImpl behavior during initialization
type DBOptions struct {
	SweepInterval time.Duration // Time between sweep runs (0 = use default)
}

// DefaultOptions returns the default cedarImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		SweepInterval: defaultSweepInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewCedarDB creates a new CedarDB instance with the specified options (optional)
//
// Thread-safety: This function is not thread-safe and should only be called once
// during initialization.
func NewCedarDB(opts *DBOptions) db.KVDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}

	newDB := &cedarImpl{
		data:          xsync.NewMapOf[string, internal.Entry](),
		sweepInterval: opts.SweepInterval,
	}

	// Initialize atomic values
	newDB.currIndex.Store(0)
	newDB.sweepIsRunning.Store(false)

	// start background expiry sweeping
	newDB.startSweeper()

	return newDB
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key and value.
// If the key already exists, the old value and any expiry deadline are overwritten.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) Set(key string, value []byte, writeIndex uint64) {
	c.compute(key, value, 0, writeIndex, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

// SetX inserts or updates an entry with the given key, value and expiry
// deadline (unix nanoseconds, 0 = no expiry). If the key already exists, the
// old value and deadline are overwritten.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) SetX(key string, value []byte, expiresAt int64, writeIndex uint64) {
	c.compute(key, value, expiresAt, writeIndex, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

// SetXIfUnset inserts an entry only if no live entry exists for the key.
// An entry whose deadline has passed counts as absent, so the insert may
// replace an expired entry in place. The returned bool reports whether the
// insert happened.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) SetXIfUnset(key string, value []byte, expiresAt int64, writeIndex uint64) (inserted bool) {
	c.compute(key, value, expiresAt, writeIndex, func(new, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		inserted = true
		return new, false
	})
	return inserted
}

// Expire sets or overwrites the expiry deadline of an existing live entry.
// The returned bool reports whether a live entry was found. A deadline in the
// past makes the entry immediately unobservable.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) Expire(key string, expiresAt int64, writeIndex uint64) (found bool) {
	c.compute(key, nil, expiresAt, writeIndex, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true // delete so that the missing key is not created
		}
		found = true
		old.ExpiresAt = expiresAt
		old.Index = writeIndex
		return old, false
	})
	return found
}

// Delete removes an entry with the specified key. The returned bool reports
// whether a live entry was removed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) Delete(key string, writeIndex uint64) (removed bool) {
	c.compute(key, nil, 0, writeIndex, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		removed = loaded
		return old, true
	})
	return removed
}

// compute is the shared implementation behind all write operations. It
// advances the global write index, ignores stale writes and presents the
// callback with a live-or-absent view of the existing entry: an expired entry
// is passed as absent (loaded=false, zero Entry).
//
// The callback receives the prospective new entry and the old one and returns
// the entry to store; returning delete=true removes the mapping instead.
//
// Thread-safety: This function uses the map's per-bucket locking to ensure
// each update is atomic.
func (c *cedarImpl) compute(key string, value []byte, expiresAt int64, writeIndex uint64, fn func(new, old internal.Entry, loaded bool) (entry internal.Entry, delete bool)) {

	// update the current index
	c.SetWriteIdx(writeIndex)

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	now := time.Now().UnixNano()

	c.data.Compute(key, func(oldEntry internal.Entry, oldEntryExists bool) (internal.Entry, bool) {
		// Stale writes are ignored: a replayed operation must not regress
		// state the current index already reflects
		if oldEntryExists && writeIndex < oldEntry.Index {
			return oldEntry, false
		}

		// an expired entry is indistinguishable from a missing one
		loaded := oldEntryExists && !oldEntry.Expired(now)
		if !loaded {
			oldEntry = internal.Entry{}
		}

		return fn(internal.Entry{
			Value:     valueCopy,
			ExpiresAt: expiresAt,
			Index:     writeIndex,
		}, oldEntry, loaded)
	})
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The boolean indicates whether a live value for the key was found.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) Get(key string) ([]byte, bool) {
	entry, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	if entry.Expired(time.Now().UnixNano()) {
		c.reap(key)
		return nil, false
	}
	return entry.CloneValue(), true
}

// Has checks if a live entry exists for the key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *cedarImpl) Has(key string) bool {
	entry, ok := c.data.Load(key)
	if !ok {
		return false
	}
	if entry.Expired(time.Now().UnixNano()) {
		c.reap(key)
		return false
	}
	return true
}

// reap removes the entry for key if it is expired. The expiry is re-checked
// under the map's bucket lock because a fresh write may have replaced the
// entry since the caller observed it.
func (c *cedarImpl) reap(key string) {
	now := time.Now().UnixNano()
	c.data.Compute(key, func(entry internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return entry, true // delete so that the missing key is not created
		}
		return entry, entry.Expired(now)
	})
}

// --------------------------------------------------------------------------
// Expiry Sweeping
// --------------------------------------------------------------------------

// startSweeper starts the background sweeper.
// If the sweeper is already running, this function does nothing.
//
// Thread-safety: This method must not be called concurrently with stopSweeper.
func (c *cedarImpl) startSweeper() {
	if c.sweepIsRunning.CompareAndSwap(false, true) {
		c.sweepDone = make(chan struct{})
		go c.sweeper(c.sweepDone)
	}
}

// stopSweeper stops the background sweeper.
// If the sweeper is not running, this function does nothing.
//
// Thread-safety: This method must not be called concurrently with startSweeper.
func (c *cedarImpl) stopSweeper() {
	if c.sweepIsRunning.CompareAndSwap(true, false) {
		close(c.sweepDone)
	}
}

// sweeper periodically scans the map and reclaims expired entries. Queries
// never observe expired entries regardless of sweep timing, so the interval
// only bounds how long dead memory is retained.
func (c *cedarImpl) sweeper(done <-chan struct{}) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			/*
				Note: The timestamp is taken once per sweep cycle. Entries that
				expire while the scan runs are picked up by the next cycle,
				which keeps a single cycle from chasing a moving deadline.
			*/
			now := time.Now().UnixNano()
			c.data.Range(func(key string, entry internal.Entry) bool {
				if entry.Expired(now) {
					c.reap(key)
				}
				return true
			})
		}
	}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the database to the writer.
// Concurrent reading and writing is allowed during the Save operation: the
// snapshot is fuzzy and does not represent a consistent cut of the database.
//
// Thread-safety: This function allows concurrent operations with all other
// functions except Load.
func (c *cedarImpl) Save(w io.Writer) error {
	// Use a buffered writer for better performance
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	type record struct {
		key   string
		entry internal.Entry
	}

	// Collect a snapshot of all live entries
	now := time.Now().UnixNano()
	var records []record
	c.data.Range(func(key string, entry internal.Entry) bool {

		// skip entries that are already expired
		if entry.Expired(now) {
			return true
		}

		records = append(records, record{key, internal.Entry{
			Value:     entry.CloneValue(),
			ExpiresAt: entry.ExpiresAt,
			Index:     entry.Index,
		}})
		return true
	})

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write format version
	if err := binary.Write(bw, binary.LittleEndian, uint8(cedarVersion)); err != nil {
		return err
	}

	// Write total entry count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(records))); err != nil {
		return err
	}

	// Write entries
	for _, item := range records {

		// Write key length and key bytes
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key); err != nil {
			return err
		}

		// Write expiry deadline
		if err := binary.Write(bw, binary.LittleEndian, item.entry.ExpiresAt); err != nil {
			return err
		}

		// Write write index
		if err := binary.Write(bw, binary.LittleEndian, item.entry.Index); err != nil {
			return err
		}

		// Write value length and value bytes
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores a database from the reader. The previous contents of the
// database are discarded.
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (c *cedarImpl) Load(r io.Reader) error {

	// pause sweeping while the map is replaced
	c.stopSweeper()
	defer c.startSweeper()

	// Use a buffered reader for better performance
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}

	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}

	if int(version) != cedarVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, cedarVersion)
	}

	// Replace the map, discarding all previous entries
	c.data = xsync.NewMapOf[string, internal.Entry]()
	c.currIndex.Store(0)

	// Read entry count
	var entryCount uint64
	if err := binary.Read(br, binary.LittleEndian, &entryCount); err != nil {
		return err
	}

	// Track the highest index seen during load
	var maxIndex uint64

	// Read entries
	for i := uint64(0); i < entryCount; i++ {

		// Read key length and key bytes
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBytes); err != nil {
			return err
		}

		// Read expiry deadline
		var expiresAt int64
		if err := binary.Read(br, binary.LittleEndian, &expiresAt); err != nil {
			return err
		}

		// Read write index
		var index uint64
		if err := binary.Read(br, binary.LittleEndian, &index); err != nil {
			return err
		}

		// Track the highest index
		if index > maxIndex {
			maxIndex = index
		}

		// Read value length and value bytes
		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		c.data.Store(string(keyBytes), internal.Entry{
			Value:     value,
			ExpiresAt: expiresAt,
			Index:     index,
		})
	}

	// Update current index to the highest seen during load
	c.SetWriteIdx(maxIndex)

	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (c *cedarImpl) GetInfo() db.DatabaseInfo {

	// take the timestamp and index once to keep one consistent view
	now := time.Now().UnixNano()
	currentWriteIndex := c.currIndex.Load()

	// sample entry sizes into a histogram for the size estimate
	histogram := util.NewSizeHistogram()
	sampled := 0
	expiredBacklog := 0
	c.data.Range(func(key string, entry internal.Entry) bool {
		histogram.AddSample(len(key) + len(entry.Value))

		// count entries that expired but have not been swept yet
		if entry.Expired(now) {
			expiredBacklog++
		}

		sampled++
		return sampled < infoSampleLimit
	})

	entries := c.data.Size()

	// weighted per-entry estimate (60% median, 40% average), scaled to the
	// full entry count
	entryOverhead := 16 // 8 bytes each for deadline and index
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead
	sizeBytes := (medianSize*60 + avgSize*40) / 100 * entries

	// Metadata for this specific database implementation
	meta := &struct {
		CurrentWriteIndex uint64  `json:"current_write_index"`
		SweepInterval     string  `json:"sweep_interval"`
		ExpiredBacklog    float64 `json:"expired_backlog"`
		Info              string  `json:"info"`
	}{
		CurrentWriteIndex: currentWriteIndex,
		SweepInterval:     c.sweepInterval.String(),
		ExpiredBacklog:    float64(expiredBacklog) / float64(max(sampled, 1)), // fraction of sampled entries awaiting sweep
		Info:              "All values (including SizeBytes) are estimates and may vary depending on the database state.",
	}

	// features
	supportedFeatures := []db.Feature{
		db.FeatureSet, db.FeatureSetX, db.FeatureSetXIfUnset,
		db.FeatureExpire, db.FeatureDelete,
		db.FeatureGet, db.FeatureHas,
		db.FeatureSave, db.FeatureLoad,
		db.FeatureSweep,
	}

	return db.DatabaseInfo{
		Entries:           entries,
		SizeBytes:         sizeBytes,
		DbType:            db.ImplCedar,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (c *cedarImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureSetX |
		db.FeatureSetXIfUnset |
		db.FeatureGet |
		db.FeatureExpire |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureSave |
		db.FeatureLoad |
		db.FeatureSweep
	return supportedFeatures&feature == feature
}

// Close stops the background sweeper
func (c *cedarImpl) Close() error {
	c.stopSweeper()
	return nil
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// It uses atomic operations to ensure that the index only increases.
func (c *cedarImpl) SetWriteIdx(newIdx uint64) {
	// Only update if the new index is greater
	for {
		currIdx := c.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if c.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (c *cedarImpl) WriteIdx() uint64 {
	return c.currIndex.Load()
}
