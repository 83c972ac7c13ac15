package client

import (
	"testing"
	"time"

	"github.com/finchkv/finch/command"
	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar"
	"github.com/finchkv/finch/lib/store/lstore"
	"github.com/finchkv/finch/resp"
	"github.com/finchkv/finch/server"
	"github.com/stretchr/testify/require"
)

// newTestClient starts a server with a fresh local store and connects a
// client to it.
func newTestClient(t *testing.T) IClient {
	t.Helper()

	st := lstore.NewLocalStore(func() db.KVDB {
		return cedar.NewCedarDB(nil)
	})

	srv := server.New(server.Config{
		Endpoint:      "tcp://127.0.0.1:0",
		StoreType:     server.StoreTypeLocal,
		TimeoutSecond: 5,
		LogLevel:      "error",
	}, st)

	require.NoError(t, srv.Listen())
	go func() { _ = srv.Serve() }()

	c, err := New(Config{
		Endpoints:     []string{"tcp://" + srv.Addr().String()},
		TimeoutSecond: 5,
		RetryCount:    3,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, c.Close())
		require.NoError(t, srv.Stop())
		_ = st.Close()
	})

	return c
}

func TestClientPing(t *testing.T) {
	c := newTestClient(t)

	pong, err := c.Ping(nil)
	require.NoError(t, err)
	require.Equal(t, []byte("PONG"), pong)

	echo, err := c.Ping([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), echo)
}

func TestClientSetGet(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Set("k", []byte("v")))

	value, found, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), value)

	_, found, err = c.Get("missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientSetIfUnset(t *testing.T) {
	c := newTestClient(t)

	inserted, err := c.SetIfUnset("k", []byte("first"), 0)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = c.SetIfUnset("k", []byte("second"), 0)
	require.NoError(t, err)
	require.False(t, inserted)

	value, _, err := c.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("first"), value)
}

func TestClientSetTTL(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.SetTTL("k", []byte("v"), 50*time.Millisecond))

	_, found, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, found)

	time.Sleep(80 * time.Millisecond)

	_, found, err = c.Get("k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientMultiGet(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Set("a", []byte("1")))
	require.NoError(t, c.Set("b", []byte("2")))

	// found and missing, in request order
	lookups, err := c.MultiGet("a", "c")
	require.NoError(t, err)
	require.Len(t, lookups, 2)
	require.Equal(t, Lookup{Value: []byte("1"), Found: true}, lookups[0])
	require.Equal(t, Lookup{}, lookups[1])

	// duplicates preserved, each looked up independently
	lookups, err = c.MultiGet("b", "a", "b")
	require.NoError(t, err)
	require.Len(t, lookups, 3)
	require.Equal(t, []byte("2"), lookups[0].Value)
	require.Equal(t, []byte("1"), lookups[1].Value)
	require.Equal(t, []byte("2"), lookups[2].Value)

	// zero keys
	lookups, err = c.MultiGet()
	require.NoError(t, err)
	require.Len(t, lookups, 0)
}

func TestClientMultiSet(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.MultiSet(
		command.Pair{Key: "x", Value: []byte("1")},
		command.Pair{Key: "y", Value: []byte("2")},
	))

	lookups, err := c.MultiGet("x", "y")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), lookups[0].Value)
	require.Equal(t, []byte("2"), lookups[1].Value)
}

func TestClientDeleteExists(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Set("k", []byte("v")))

	found, err := c.Exists("k")
	require.NoError(t, err)
	require.True(t, found)

	removed, err := c.Delete("k")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = c.Delete("k")
	require.NoError(t, err)
	require.False(t, removed)

	found, err = c.Exists("k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientExpire(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Set("k", []byte("v")))

	found, err := c.Expire("k", 10)
	require.NoError(t, err)
	require.True(t, found)

	found, err = c.Expire("missing", 10)
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientInfo(t *testing.T) {
	c := newTestClient(t)

	info, err := c.Info()
	require.NoError(t, err)
	require.NotEmpty(t, info)
	require.Contains(t, string(info), "\"")
}

func TestClientServerError(t *testing.T) {
	c := newTestClient(t)

	reply, err := c.Do(&command.Unknown{Token: "nosuchcmd"})
	require.Error(t, err)

	var serverErr ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, resp.TypeError, reply.Type)
}

func TestClientNoEndpoints(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestClientUnreachableEndpoint(t *testing.T) {
	_, err := New(Config{
		Endpoints:     []string{"tcp://127.0.0.1:1"},
		TimeoutSecond: 1,
		RetryCount:    1,
	})
	require.Error(t, err)
}
