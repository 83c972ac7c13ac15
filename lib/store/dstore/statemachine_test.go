package dstore

import (
	"bytes"
	"testing"

	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar"
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

func newTestMachine() sm.IConcurrentStateMachine {
	factory := CreateStateMachineFactory(func() db.KVDB {
		return cedar.NewCedarDB(nil)
	})
	return factory(1, 1)
}

// applyOne runs a single command through Update and returns its result
func applyOne(t *testing.T, fsm sm.IConcurrentStateMachine, index uint64, cmd internal.Command) sm.Result {
	t.Helper()

	entries := []sm.Entry{{Index: index, Cmd: cmd.Serialize()}}
	entries, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return entries[0].Result
}

// lookupGet queries a key and returns the result
func lookupGet(t *testing.T, fsm sm.IConcurrentStateMachine, key string) internal.QueryResult {
	t.Helper()

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, Key: key})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	qr, ok := res.(internal.QueryResult)
	if !ok {
		t.Fatalf("Lookup returned unexpected type %T", res)
	}
	return qr
}

// TestStateMachineWriteAndLookup tests the basic command/query round trip
func TestStateMachineWriteAndLookup(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	res := applyOne(t, fsm, 1, internal.Command{
		Type:  internal.CommandTSet,
		Key:   "key",
		Value: []byte("value"),
	})
	if res.Value != uint64(store.RetCSuccess) {
		t.Fatalf("Expected success, got code %d (%s)", res.Value, res.Data)
	}
	if !internal.WasApplied(res.Data) {
		t.Error("Set should always report applied")
	}

	qr := lookupGet(t, fsm, "key")
	if !qr.Ok {
		t.Fatal("Expected key to be found after Set")
	}
	if !bytes.Equal(qr.Value, []byte("value")) {
		t.Errorf("Expected value %q, got %q", "value", qr.Value)
	}

	if qr := lookupGet(t, fsm, "missing"); qr.Ok {
		t.Error("Expected missing key to report Ok=false")
	}
}

// TestStateMachineOutcomes tests that conditional commands report their outcome
func TestStateMachineOutcomes(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	// first conditional insert applies, second does not
	res := applyOne(t, fsm, 1, internal.Command{
		Type:  internal.CommandTSetXIfUnset,
		Key:   "cond",
		Value: []byte("first"),
	})
	if !internal.WasApplied(res.Data) {
		t.Error("First SetXIfUnset should report applied")
	}

	res = applyOne(t, fsm, 2, internal.Command{
		Type:  internal.CommandTSetXIfUnset,
		Key:   "cond",
		Value: []byte("second"),
	})
	if internal.WasApplied(res.Data) {
		t.Error("Second SetXIfUnset should report not applied")
	}

	if qr := lookupGet(t, fsm, "cond"); !bytes.Equal(qr.Value, []byte("first")) {
		t.Errorf("Conditional overwrite happened: got %q", qr.Value)
	}

	// expire hit and miss
	res = applyOne(t, fsm, 3, internal.Command{
		Type:      internal.CommandTExpire,
		Key:       "cond",
		ExpiresAt: 0,
	})
	if !internal.WasApplied(res.Data) {
		t.Error("Expire on a live key should report applied")
	}

	res = applyOne(t, fsm, 4, internal.Command{
		Type: internal.CommandTExpire,
		Key:  "missing",
	})
	if internal.WasApplied(res.Data) {
		t.Error("Expire on a missing key should report not applied")
	}

	// delete hit and miss
	res = applyOne(t, fsm, 5, internal.Command{
		Type: internal.CommandTDelete,
		Key:  "cond",
	})
	if !internal.WasApplied(res.Data) {
		t.Error("Delete on a live key should report applied")
	}

	res = applyOne(t, fsm, 6, internal.Command{
		Type: internal.CommandTDelete,
		Key:  "cond",
	})
	if internal.WasApplied(res.Data) {
		t.Error("Second Delete should report not applied")
	}
}

// TestStateMachineStaleReplay tests that replayed log entries are ignored
func TestStateMachineStaleReplay(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	applyOne(t, fsm, 10, internal.Command{
		Type:  internal.CommandTSet,
		Key:   "key",
		Value: []byte("current"),
	})

	// a replayed entry with a lower log index must not win
	applyOne(t, fsm, 5, internal.Command{
		Type:  internal.CommandTSet,
		Key:   "key",
		Value: []byte("stale"),
	})

	if qr := lookupGet(t, fsm, "key"); !bytes.Equal(qr.Value, []byte("current")) {
		t.Errorf("Stale replay was applied: got %q", qr.Value)
	}
}

// TestStateMachineMalformedEntries tests error reporting for bad log entries
func TestStateMachineMalformedEntries(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	tests := []struct {
		name         string
		cmd          []byte
		expectedCode store.RetCode
	}{
		{
			name:         "Empty command",
			cmd:          nil,
			expectedCode: store.RetCInvalidOperation,
		},
		{
			name:         "Truncated command",
			cmd:          []byte{1, 2, 3},
			expectedCode: store.RetCInternalError,
		},
		{
			name: "Unknown command type",
			cmd: func() []byte {
				data := make([]byte, 13)
				data[0] = 99
				return data
			}(),
			expectedCode: store.RetCInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []sm.Entry{{Index: 1, Cmd: tt.cmd}}
			entries, err := fsm.Update(entries)
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if entries[0].Result.Value != uint64(tt.expectedCode) {
				t.Errorf("Expected code %d, got %d (%s)",
					tt.expectedCode, entries[0].Result.Value, entries[0].Result.Data)
			}
		})
	}
}

// TestStateMachineLookupErrors tests error reporting for bad queries
func TestStateMachineLookupErrors(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	if _, err := fsm.Lookup("not a query"); err == nil {
		t.Error("Expected error for invalid query type")
	}

	if _, err := fsm.Lookup(internal.Query{Type: internal.QueryType(99)}); err == nil {
		t.Error("Expected error for unknown query operation")
	}
}

// TestStateMachineSnapshotRoundTrip tests SaveSnapshot and RecoverFromSnapshot
func TestStateMachineSnapshotRoundTrip(t *testing.T) {
	source := newTestMachine()
	defer source.Close()

	applyOne(t, source, 1, internal.Command{
		Type:  internal.CommandTSet,
		Key:   "a",
		Value: []byte("1"),
	})
	applyOne(t, source, 2, internal.Command{
		Type:  internal.CommandTSet,
		Key:   "b",
		Value: []byte("2"),
	})

	var buf bytes.Buffer
	if err := source.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	target := newTestMachine()
	defer target.Close()

	if err := target.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot failed: %v", err)
	}

	if qr := lookupGet(t, target, "a"); !qr.Ok || !bytes.Equal(qr.Value, []byte("1")) {
		t.Errorf("Key a not recovered correctly: ok=%v value=%q", qr.Ok, qr.Value)
	}
	if qr := lookupGet(t, target, "b"); !qr.Ok || !bytes.Equal(qr.Value, []byte("2")) {
		t.Errorf("Key b not recovered correctly: ok=%v value=%q", qr.Ok, qr.Value)
	}
}
