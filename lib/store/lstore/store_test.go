package lstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar"
)

func newTestStore() *storeImpl {
	return NewLocalStore(func() db.KVDB {
		return cedar.NewCedarDB(nil)
	}).(*storeImpl)
}

// TestStoreSetGet tests the basic write/read round trip
func TestStoreSetGet(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	if err := s.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, loaded, err := s.Get("key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded {
		t.Fatal("Expected key to be loaded after Set")
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Errorf("Expected value %q, got %q", "value", value)
	}

	_, loaded, err = s.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded {
		t.Error("Expected missing key to report loaded=false")
	}
}

// TestStoreOutcomes tests the boolean outcomes of conditional operations
func TestStoreOutcomes(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	// conditional insert
	inserted, err := s.SetXIfUnset("cond", []byte("first"), 0)
	if err != nil {
		t.Fatalf("SetXIfUnset failed: %v", err)
	}
	if !inserted {
		t.Error("Expected first SetXIfUnset to insert")
	}

	inserted, err = s.SetXIfUnset("cond", []byte("second"), 0)
	if err != nil {
		t.Fatalf("SetXIfUnset failed: %v", err)
	}
	if inserted {
		t.Error("Expected second SetXIfUnset to report no insert")
	}

	value, _, _ := s.Get("cond")
	if !bytes.Equal(value, []byte("first")) {
		t.Errorf("Conditional overwrite happened: got %q", value)
	}

	// expire hit and miss
	found, err := s.Expire("cond", time.Now().Add(time.Hour).UnixNano())
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if !found {
		t.Error("Expected Expire to find the live key")
	}

	found, err = s.Expire("missing", time.Now().Add(time.Hour).UnixNano())
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if found {
		t.Error("Expected Expire to miss a nonexistent key")
	}

	// delete hit and miss
	removed, err := s.Delete("cond")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Error("Expected Delete to remove the live key")
	}

	removed, err = s.Delete("cond")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed {
		t.Error("Expected second Delete to report no removal")
	}
}

// TestStoreDeadline tests that expiry deadlines pass through to the engine
func TestStoreDeadline(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	if err := s.SetX("temp", []byte("value"), time.Now().Add(50*time.Millisecond).UnixNano()); err != nil {
		t.Fatalf("SetX failed: %v", err)
	}

	loaded, err := s.Has("temp")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !loaded {
		t.Fatal("Expected key to be live before the deadline")
	}

	time.Sleep(100 * time.Millisecond)

	loaded, err = s.Has("temp")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if loaded {
		t.Error("Expected key to be gone after the deadline")
	}
}

// TestStoreWriteIndexProgression tests that each write advances the index
func TestStoreWriteIndexProgression(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	before := s.index.Load()

	_ = s.Set("a", []byte("1"))
	_ = s.Set("b", []byte("2"))
	_, _ = s.Delete("a")

	if after := s.index.Load(); after != before+3 {
		t.Errorf("Expected index to advance by 3, went from %d to %d", before, after)
	}
}

// TestStoreGetDBInfo tests metadata passthrough
func TestStoreGetDBInfo(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	_ = s.Set("info-key", []byte("info-value"))

	info, err := s.GetDBInfo()
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	if info.DbType != db.ImplCedar {
		t.Errorf("Expected db type %q, got %q", db.ImplCedar, info.DbType)
	}
	if info.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", info.Entries)
	}
}
