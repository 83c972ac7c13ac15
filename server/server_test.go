package server

import (
	"bytes"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/finchkv/finch/command"
	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar"
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/lib/store/lstore"
	"github.com/finchkv/finch/resp"
	"github.com/stretchr/testify/require"
)

// startTestServer runs a server on an ephemeral port and returns its store
// and address.
func startTestServer(t *testing.T, maxConns int) (store.IStore, string) {
	t.Helper()

	st := lstore.NewLocalStore(func() db.KVDB {
		return cedar.NewCedarDB(nil)
	})

	srv := New(Config{
		Endpoint:      "tcp://127.0.0.1:0",
		StoreType:     StoreTypeLocal,
		TimeoutSecond: 5,
		MaxConns:      maxConns,
		LogLevel:      "error",
	}, st)

	require.NoError(t, srv.Listen())
	go func() { _ = srv.Serve() }()

	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
		_ = st.Close()
	})

	return st, srv.Addr().String()
}

// testClient is a raw protocol connection for driving the server directly.
type testClient struct {
	conn   net.Conn
	reader *resp.Reader
	writer *resp.Writer
}

func dialTestServer(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{
		conn:   conn,
		reader: resp.NewReader(conn),
		writer: resp.NewWriter(conn),
	}
}

// roundTrip sends one frame and reads one reply.
func (c *testClient) roundTrip(t *testing.T, frame resp.Value) resp.Value {
	t.Helper()
	require.NoError(t, c.writer.WriteValue(frame))
	require.NoError(t, c.writer.Flush())
	reply, err := c.reader.ReadValue()
	require.NoError(t, err)
	return reply
}

func TestServerPing(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	reply := c.roundTrip(t, (&command.Ping{}).Frame())
	require.Equal(t, resp.Simple("PONG"), reply)

	reply = c.roundTrip(t, (&command.Ping{Msg: []byte("hello")}).Frame())
	require.Equal(t, resp.Bulk([]byte("hello")), reply)
}

func TestServerSetGet(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	reply := c.roundTrip(t, (&command.Set{Key: "k", Value: []byte("v")}).Frame())
	require.Equal(t, resp.Simple("OK"), reply)

	reply = c.roundTrip(t, (&command.Get{Key: "k"}).Frame())
	require.Equal(t, resp.Bulk([]byte("v")), reply)

	reply = c.roundTrip(t, (&command.Get{Key: "missing"}).Frame())
	require.True(t, reply.IsNull())
}

func TestServerMultiGet(t *testing.T) {
	st, addr := startTestServer(t, 0)
	require.NoError(t, st.Set("a", []byte("1")))
	require.NoError(t, st.Set("b", []byte("2")))

	c := dialTestServer(t, addr)

	// found and missing, in request order
	reply := c.roundTrip(t, (&command.MultiGet{Keys: []string{"a", "c"}}).Frame())
	require.Equal(t, resp.TypeArray, reply.Type)
	require.Len(t, reply.Array, 2)
	require.Equal(t, resp.Bulk([]byte("1")), reply.Array[0])
	require.True(t, reply.Array[1].IsNull())

	// duplicates preserved, each looked up independently
	reply = c.roundTrip(t, (&command.MultiGet{Keys: []string{"b", "a", "b"}}).Frame())
	require.Len(t, reply.Array, 3)
	require.Equal(t, resp.Bulk([]byte("2")), reply.Array[0])
	require.Equal(t, resp.Bulk([]byte("1")), reply.Array[1])
	require.Equal(t, resp.Bulk([]byte("2")), reply.Array[2])

	// zero keys still answered with exactly one (empty) array frame
	reply = c.roundTrip(t, (&command.MultiGet{Keys: []string{}}).Frame())
	require.Equal(t, resp.TypeArray, reply.Type)
	require.Len(t, reply.Array, 0)
}

func TestServerDecodeErrorKeepsConnectionOpen(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	// count field is a bulk string instead of an integer: wrong-kind
	reply := c.roundTrip(t, resp.Array(
		resp.BulkString("multiget"),
		resp.BulkString("2"),
		resp.BulkString("a"),
		resp.BulkString("b"),
	))
	require.Equal(t, resp.TypeError, reply.Type)

	// count declares more keys than the frame holds: exhausted-input
	reply = c.roundTrip(t, resp.Array(
		resp.BulkString("multiget"),
		resp.Integer(3),
		resp.BulkString("a"),
		resp.BulkString("b"),
	))
	require.Equal(t, resp.TypeError, reply.Type)

	// unknown command name
	reply = c.roundTrip(t, resp.Array(resp.BulkString("nosuchcmd")))
	require.Equal(t, resp.TypeError, reply.Type)

	// the connection survived all three failures
	reply = c.roundTrip(t, (&command.Ping{}).Frame())
	require.Equal(t, resp.Simple("PONG"), reply)
}

// Unrecognized command names must not become metric label values: a client
// could mint an unbounded number of counter series otherwise. They are all
// aggregated under one fixed series.
func TestServerUnknownCommandMetricsAggregated(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	before := metricCommands("unknown").Get()

	tokens := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		token := fmt.Sprintf("bogus-cmd-%d", i)
		tokens = append(tokens, token)
		reply := c.roundTrip(t, resp.Array(resp.BulkString(token)))
		require.Equal(t, resp.TypeError, reply.Type)
	}

	require.Equal(t, before+5, metricCommands("unknown").Get())

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	for _, token := range tokens {
		require.NotContains(t, buf.String(), token)
	}
}

func TestServerCorruptStreamClosesConnection(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	// not a valid type byte: the stream has no recoverable frame boundary
	_, err := c.conn.Write([]byte("!garbage\r\n"))
	require.NoError(t, err)

	// best-effort error reply, then close
	reply, err := c.reader.ReadValue()
	require.NoError(t, err)
	require.Equal(t, resp.TypeError, reply.Type)

	_, err = c.reader.ReadValue()
	require.Error(t, err)
}

func TestServerMaxConns(t *testing.T) {
	_, addr := startTestServer(t, 1)

	first := dialTestServer(t, addr)
	reply := first.roundTrip(t, (&command.Ping{}).Frame())
	require.Equal(t, resp.Simple("PONG"), reply)

	// second connection is answered with an error frame and closed
	second := dialTestServer(t, addr)
	require.NoError(t, second.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	rejection, err := second.reader.ReadValue()
	require.NoError(t, err)
	require.Equal(t, resp.TypeError, rejection.Type)

	_, err = second.reader.ReadValue()
	require.Error(t, err)
}

// A connection that registers itself after Stop has swept the registry is
// missed by the sweep and nobody else will ever close it. The handler has to
// notice the shutdown and bail out instead of entering an unbounded read.
func TestServerStopAbortsLateConnection(t *testing.T) {
	st := lstore.NewLocalStore(func() db.KVDB {
		return cedar.NewCedarDB(nil)
	})
	t.Cleanup(func() { _ = st.Close() })

	srv := New(Config{
		Endpoint:      "tcp://127.0.0.1:0",
		StoreType:     StoreTypeLocal,
		TimeoutSecond: 0,
		LogLevel:      "error",
	}, st)
	srv.stopping.Store(true)

	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	done := make(chan struct{})
	go func() {
		srv.handleConnection(server)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection accepted during shutdown was never released")
	}
}

func TestServerMultiSetThenMultiGet(t *testing.T) {
	_, addr := startTestServer(t, 0)
	c := dialTestServer(t, addr)

	reply := c.roundTrip(t, (&command.MultiSet{Pairs: []command.Pair{
		{Key: "x", Value: []byte("1")},
		{Key: "y", Value: []byte("2")},
	}}).Frame())
	require.Equal(t, resp.Simple("OK"), reply)

	reply = c.roundTrip(t, (&command.MultiGet{Keys: []string{"y", "x"}}).Frame())
	require.Len(t, reply.Array, 2)
	require.Equal(t, resp.Bulk([]byte("2")), reply.Array[0])
	require.Equal(t, resp.Bulk([]byte("1")), reply.Array[1])
}
