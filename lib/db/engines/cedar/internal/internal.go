package internal

// --------------------------------------------------------------------------
// Entry Type (stored value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its expiry deadline and write index.
// Entries are immutable once stored: every write replaces the whole Entry,
// so readers may hand out the Value slice only after copying it.
type Entry struct {
	Value     []byte // The stored value
	ExpiresAt int64  // Expiry deadline in unix nanoseconds (0 = no expiry)
	Index     uint64 // Write index of the last accepted write
}

// Expired reports whether the entry's deadline has passed at time now
// (unix nanoseconds). Entries without a deadline never expire.
func (e Entry) Expired(now int64) bool {
	return e.ExpiresAt != 0 && now >= e.ExpiresAt
}

// CloneValue returns a copy of the stored value that is safe for the caller
// to retain and modify.
func (e Entry) CloneValue() []byte {
	value := make([]byte, len(e.Value))
	copy(value, e.Value)
	return value
}
