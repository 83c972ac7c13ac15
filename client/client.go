package client

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/finchkv/finch/command"
	"github.com/finchkv/finch/resp"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ServerError is an error reply received from the server. It is a
// protocol-level answer, not a transport failure, so requests failing with it
// are never retried.
type ServerError string

// Error implements the error interface.
func (e ServerError) Error() string {
	return string(e)
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Lookup is one entry of a MultiGet reply: the value for the requested key at
// the same position, or Found == false if the key held no live value.
type Lookup struct {
	Value []byte
	Found bool
}

// IClient is the typed client for the key-value protocol. All methods are
// safe for concurrent use; each request checks out one pooled connection for
// its whole round trip.
type IClient interface {
	// Ping checks liveness. With a nil msg the server answers PONG; otherwise
	// the msg is echoed back.
	Ping(msg []byte) ([]byte, error)
	// Get returns the value for a key. The boolean reports whether a live
	// value was found.
	Get(key string) (value []byte, found bool, err error)
	// Set inserts or updates a key-value pair, clearing any expiry deadline.
	Set(key string, value []byte) error
	// SetTTL inserts or updates a key-value pair with a time-to-live.
	SetTTL(key string, value []byte, ttl time.Duration) error
	// SetIfUnset inserts a key-value pair only if the key holds no live
	// value. A zero ttl means no expiry. The boolean reports whether the
	// insert happened.
	SetIfUnset(key string, value []byte, ttl time.Duration) (inserted bool, err error)
	// MultiGet looks up a batch of keys in one request. The reply holds
	// exactly one entry per requested key, in request order; duplicates are
	// looked up independently.
	MultiGet(keys ...string) ([]Lookup, error)
	// MultiSet writes a batch of key-value pairs in one request, applied in
	// the given order.
	MultiSet(pairs ...command.Pair) error
	// Delete removes a key. The boolean reports whether a live value was
	// removed.
	Delete(key string) (removed bool, err error)
	// Exists reports whether a key holds a live value.
	Exists(key string) (found bool, err error)
	// Expire attaches a time-to-live to an existing key. The boolean reports
	// whether a live value was found.
	Expire(key string, seconds int64) (found bool, err error)
	// Info returns the server's store metadata as JSON.
	Info() ([]byte, error)
	// Do encodes an arbitrary command, sends it and returns the raw reply
	// frame. An error reply frame is returned as a ServerError.
	Do(cmd command.ICommand) (resp.Value, error)
	// Close closes all pooled connections.
	Close() error
}

// --------------------------------------------------------------------------
// Client Factory Method
// --------------------------------------------------------------------------

// New creates a client and connects it to the configured endpoints. Every
// endpoint gets ConnectionsPerEndpoint pooled connections; at least one
// connection must come up initially, the rest reconnect lazily on use.
func New(config Config) (IClient, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided")
	}

	connectionsPerEP := config.ConnectionsPerEndpoint
	if connectionsPerEP < 1 {
		connectionsPerEP = 1
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second

	c := &clientImpl{
		config: config,
		conns:  make([]*pooledConn, 0, len(config.Endpoints)*connectionsPerEP),
	}

	live := 0
	for _, endpoint := range config.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			pc := &pooledConn{endpoint: endpoint, timeout: timeout}
			if err := pc.reconnect(); err != nil {
				log.Warningf("Failed to connect to %s (connection %d/%d): %v",
					endpoint, i+1, connectionsPerEP, err)
			} else {
				live++
			}
			c.conns = append(c.conns, pc)
		}
	}

	if live == 0 {
		return nil, fmt.Errorf("failed to connect to any endpoint")
	}

	log.Infof("Connected %d out of %d connections to %d endpoints",
		live, len(c.conns), len(config.Endpoints))

	return c, nil
}

// --------------------------------------------------------------------------
// Implementation
// --------------------------------------------------------------------------

type clientImpl struct {
	config   Config
	conns    []*pooledConn
	nextConn atomicCounter
}

// Do sends one command and returns its reply frame. Transport failures are
// retried on the next pooled connection with exponential backoff; a
// ServerError reply is final.
func (c *clientImpl) Do(cmd command.ICommand) (resp.Value, error) {
	frame := cmd.Frame()

	maxRetries := c.config.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		pc := c.conns[c.nextConn.next(len(c.conns))]

		reply, err := pc.roundTrip(frame)
		if err == nil {
			if reply.Type == resp.TypeError {
				return reply, ServerError(reply.Str)
			}
			return reply, nil
		}

		lastErr = err
		log.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return resp.Value{}, fmt.Errorf("request failed after %d attempts: %v", maxRetries, lastErr)
}

func (c *clientImpl) Close() error {
	for _, pc := range c.conns {
		pc.close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Typed Methods (one per command variant)
// --------------------------------------------------------------------------

func (c *clientImpl) Ping(msg []byte) ([]byte, error) {
	reply, err := c.Do(&command.Ping{Msg: msg})
	if err != nil {
		return nil, err
	}
	switch reply.Type {
	case resp.TypeSimple:
		return []byte(reply.Str), nil
	case resp.TypeBulk:
		return reply.Bulk, nil
	default:
		return nil, unexpectedReply(command.NamePing, reply)
	}
}

func (c *clientImpl) Get(key string) ([]byte, bool, error) {
	reply, err := c.Do(&command.Get{Key: key})
	if err != nil {
		return nil, false, err
	}
	return asBulkOrNull(command.NameGet, reply)
}

func (c *clientImpl) Set(key string, value []byte) error {
	reply, err := c.Do(&command.Set{Key: key, Value: value})
	if err != nil {
		return err
	}
	return expectOK(command.NameSet, reply)
}

func (c *clientImpl) SetTTL(key string, value []byte, ttl time.Duration) error {
	reply, err := c.Do(&command.Set{Key: key, Value: value, TTL: ttl})
	if err != nil {
		return err
	}
	return expectOK(command.NameSet, reply)
}

func (c *clientImpl) SetIfUnset(key string, value []byte, ttl time.Duration) (bool, error) {
	reply, err := c.Do(&command.Set{Key: key, Value: value, TTL: ttl, IfUnset: true})
	if err != nil {
		return false, err
	}
	// null means the key was already set and the write was suppressed
	if reply.IsNull() {
		return false, nil
	}
	if err := expectOK(command.NameSet, reply); err != nil {
		return false, err
	}
	return true, nil
}

func (c *clientImpl) MultiGet(keys ...string) ([]Lookup, error) {
	reply, err := c.Do(&command.MultiGet{Keys: keys})
	if err != nil {
		return nil, err
	}
	if reply.Type != resp.TypeArray {
		return nil, unexpectedReply(command.NameMultiGet, reply)
	}
	if len(reply.Array) != len(keys) {
		return nil, fmt.Errorf("'%s' reply holds %d entries for %d keys",
			command.NameMultiGet, len(reply.Array), len(keys))
	}

	lookups := make([]Lookup, len(reply.Array))
	for i, entry := range reply.Array {
		switch entry.Type {
		case resp.TypeBulk:
			lookups[i] = Lookup{Value: entry.Bulk, Found: true}
		case resp.TypeNull:
			lookups[i] = Lookup{}
		default:
			return nil, unexpectedReply(command.NameMultiGet, entry)
		}
	}
	return lookups, nil
}

func (c *clientImpl) MultiSet(pairs ...command.Pair) error {
	reply, err := c.Do(&command.MultiSet{Pairs: pairs})
	if err != nil {
		return err
	}
	return expectOK(command.NameMultiSet, reply)
}

func (c *clientImpl) Delete(key string) (bool, error) {
	reply, err := c.Do(&command.Del{Key: key})
	if err != nil {
		return false, err
	}
	return asFlag(command.NameDel, reply)
}

func (c *clientImpl) Exists(key string) (bool, error) {
	reply, err := c.Do(&command.Exists{Key: key})
	if err != nil {
		return false, err
	}
	return asFlag(command.NameExists, reply)
}

func (c *clientImpl) Expire(key string, seconds int64) (bool, error) {
	reply, err := c.Do(&command.Expire{Key: key, Seconds: seconds})
	if err != nil {
		return false, err
	}
	return asFlag(command.NameExpire, reply)
}

func (c *clientImpl) Info() ([]byte, error) {
	reply, err := c.Do(&command.Info{})
	if err != nil {
		return nil, err
	}
	if reply.Type != resp.TypeBulk {
		return nil, unexpectedReply(command.NameInfo, reply)
	}
	return reply.Bulk, nil
}

// --------------------------------------------------------------------------
// Reply decoding helpers
// --------------------------------------------------------------------------

func unexpectedReply(name string, v resp.Value) error {
	return fmt.Errorf("unexpected reply kind %s for '%s'", v.Type, name)
}

// expectOK asserts the +OK status reply.
func expectOK(name string, v resp.Value) error {
	if v.Type != resp.TypeSimple || v.Str != "OK" {
		return unexpectedReply(name, v)
	}
	return nil
}

// asFlag decodes the integer reply of a boolean outcome.
func asFlag(name string, v resp.Value) (bool, error) {
	if v.Type != resp.TypeInteger {
		return false, unexpectedReply(name, v)
	}
	return v.Int != 0, nil
}

// asBulkOrNull decodes a value-or-missing reply.
func asBulkOrNull(name string, v resp.Value) ([]byte, bool, error) {
	switch v.Type {
	case resp.TypeBulk:
		return v.Bulk, true, nil
	case resp.TypeNull:
		return nil, false, nil
	default:
		return nil, false, unexpectedReply(name, v)
	}
}
