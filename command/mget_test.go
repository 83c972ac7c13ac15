package command

import (
	"fmt"
	"testing"

	"github.com/finchkv/finch/resp"
	"github.com/stretchr/testify/require"
)

func multiGetFrame(keys ...string) resp.Value {
	fields := []resp.Value{resp.BulkString("multiget"), resp.Integer(int64(len(keys)))}
	for _, key := range keys {
		fields = append(fields, resp.BulkString(key))
	}
	return resp.Array(fields...)
}

func TestMultiGetDecode(t *testing.T) {
	cmd, err := FromFrame(multiGetFrame("a", "b", "c"))
	require.NoError(t, err)

	mget, ok := cmd.(*MultiGet)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, mget.Keys)
}

func TestMultiGetDecodeZeroKeys(t *testing.T) {
	cmd, err := FromFrame(multiGetFrame())
	require.NoError(t, err)

	mget, ok := cmd.(*MultiGet)
	require.True(t, ok)
	require.Empty(t, mget.Keys)
}

// A count carried in a bulk or simple string field must not decode, even if
// its payload is all digits. The field kinds are part of the wire contract.
func TestMultiGetDecodeCountWrongKind(t *testing.T) {
	counts := []resp.Value{
		resp.BulkString("2"),
		resp.Simple("2"),
		resp.Null(),
		resp.Array(),
	}

	for _, count := range counts {
		_, err := FromFrame(resp.Array(
			resp.BulkString("multiget"), count,
			resp.BulkString("a"), resp.BulkString("b"),
		))
		require.Error(t, err, "count of kind %s", count.Type)

		var wrongType resp.WrongTypeError
		require.ErrorAs(t, err, &wrongType)
		require.Equal(t, "integer", wrongType.Expected)
	}
}

func TestMultiGetDecodeKeyWrongKind(t *testing.T) {
	_, err := FromFrame(resp.Array(
		resp.BulkString("multiget"), resp.Integer(2),
		resp.BulkString("a"), resp.Integer(7),
	))
	require.Error(t, err)

	var wrongType resp.WrongTypeError
	require.ErrorAs(t, err, &wrongType)
	require.Equal(t, "string", wrongType.Expected)
}

func TestMultiGetDecodeTruncated(t *testing.T) {
	// count missing entirely
	_, err := FromFrame(resp.Array(resp.BulkString("multiget")))
	require.ErrorIs(t, err, resp.ErrEndOfStream)

	// declared three keys, delivered one
	_, err = FromFrame(resp.Array(
		resp.BulkString("multiget"), resp.Integer(3), resp.BulkString("a"),
	))
	require.ErrorIs(t, err, resp.ErrEndOfStream)
}

func TestMultiGetDecodeNegativeCount(t *testing.T) {
	_, err := FromFrame(resp.Array(
		resp.BulkString("multiget"), resp.Integer(-1), resp.BulkString("a"),
	))
	require.Error(t, err)
	require.Contains(t, err.Error(), "negative count")
}

func TestMultiGetDecodeOversizedCount(t *testing.T) {
	// a huge declared count against a short frame fails before any lookup,
	// and classifies as exhausted input like any other truncation
	_, err := FromFrame(resp.Array(
		resp.BulkString("multiget"), resp.Integer(1<<40), resp.BulkString("a"),
	))
	require.ErrorIs(t, err, resp.ErrEndOfStream)
	require.Contains(t, err.Error(), "exceeds")
}

func TestMultiGetExecuteFoundAndMissing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Set("a", []byte("1")))

	reply := execute(t, st, multiGetFrame("a", "b"))

	require.Equal(t, resp.TypeArray, reply.Type)
	require.Len(t, reply.Array, 2)
	require.Equal(t, "1", reply.Array[0].Text())
	require.True(t, reply.Array[1].IsNull())
}

// Duplicate keys are looked up independently and each occurrence gets its own
// response entry, in request order
func TestMultiGetExecuteDuplicates(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Set("a", []byte("1")))
	require.NoError(t, st.Set("b", []byte("2")))

	reply := execute(t, st, multiGetFrame("b", "a", "b"))

	require.Len(t, reply.Array, 3)
	require.Equal(t, "2", reply.Array[0].Text())
	require.Equal(t, "1", reply.Array[1].Text())
	require.Equal(t, "2", reply.Array[2].Text())
}

// A zero-key batch still performs exactly one response write, of an empty array
func TestMultiGetExecuteZeroKeys(t *testing.T) {
	st := newTestStore(t)

	cmd, err := FromFrame(multiGetFrame())
	require.NoError(t, err)

	rec := &frameRecorder{}
	require.NoError(t, cmd.Execute(st, rec))

	reply := rec.single(t)
	require.Equal(t, resp.TypeArray, reply.Type)
	require.Len(t, reply.Array, 0)
}

// The response length equals the request key count for batches of any shape
func TestMultiGetExecuteResponseLength(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Set("present", []byte("x")))

	for _, n := range []int{1, 2, 16, 100} {
		keys := make([]string, n)
		for i := range keys {
			if i%3 == 0 {
				keys[i] = "present"
			} else {
				keys[i] = fmt.Sprintf("absent-%d", i)
			}
		}

		reply := execute(t, st, multiGetFrame(keys...))
		require.Len(t, reply.Array, n)

		for i, entry := range reply.Array {
			if i%3 == 0 {
				require.Equal(t, "x", entry.Text())
			} else {
				require.True(t, entry.IsNull())
			}
		}
	}
}

// Encoding a key list and decoding it back is the identity, including empty
// and duplicate-bearing lists
func TestMultiGetEncodeDecodeIdentity(t *testing.T) {
	keyLists := [][]string{
		{},
		{"a"},
		{"a", "b", "c"},
		{"dup", "dup", "dup"},
		{"", "a", ""},
	}

	for _, keys := range keyLists {
		original := &MultiGet{Keys: append([]string{}, keys...)}

		decoded, err := FromFrame(original.Frame())
		require.NoError(t, err)

		mget, ok := decoded.(*MultiGet)
		require.True(t, ok)
		require.Equal(t, original.Keys, mget.Keys)
	}
}

// The encoded frame has the exact wire layout: name, count, then the keys
func TestMultiGetFrameLayout(t *testing.T) {
	frame := (&MultiGet{Keys: []string{"a", "b"}}).Frame()

	require.Equal(t, resp.TypeArray, frame.Type)
	require.Len(t, frame.Array, 4)
	require.Equal(t, resp.BulkString("multiget"), frame.Array[0])
	require.Equal(t, resp.Integer(2), frame.Array[1])
	require.Equal(t, resp.BulkString("a"), frame.Array[2])
	require.Equal(t, resp.BulkString("b"), frame.Array[3])
}
