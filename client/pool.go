package client

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finchkv/finch/lib/netx"
	"github.com/finchkv/finch/resp"
)

// --------------------------------------------------------------------------
// Pooled Connection
// --------------------------------------------------------------------------

// pooledConn is one client connection. The protocol carries no request IDs,
// so a connection is checked out for a whole round trip: write the request
// frame, read the reply frame, release. The mutex is that checkout.
type pooledConn struct {
	endpoint string
	timeout  time.Duration

	mu     sync.Mutex // held for the whole round trip
	conn   net.Conn
	reader *resp.Reader
	writer *resp.Writer
}

// roundTrip sends one request frame and reads its reply. Any transport
// failure tears the connection down; the next round trip reconnects.
func (c *pooledConn) roundTrip(frame resp.Value) (resp.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnect(); err != nil {
			return resp.Value{}, err
		}
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			c.teardown()
			return resp.Value{}, err
		}
	}

	if err := c.writer.WriteValue(frame); err != nil {
		c.teardown()
		return resp.Value{}, fmt.Errorf("failed to send request to %s: %v", c.endpoint, err)
	}
	if err := c.writer.Flush(); err != nil {
		c.teardown()
		return resp.Value{}, fmt.Errorf("failed to send request to %s: %v", c.endpoint, err)
	}

	reply, err := c.reader.ReadValue()
	if err != nil {
		c.teardown()
		return resp.Value{}, fmt.Errorf("failed to read reply from %s: %v", c.endpoint, err)
	}
	return reply, nil
}

// reconnect establishes or restores the connection. Caller holds c.mu.
func (c *pooledConn) reconnect() error {
	c.teardown()

	network, address, err := netx.ParseEndpoint(c.endpoint)
	if err != nil {
		return err
	}

	var conn net.Conn
	if c.timeout > 0 {
		conn, err = net.DialTimeout(network, address, c.timeout)
	} else {
		conn, err = net.Dial(network, address)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.endpoint, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		// one frame per round trip, always flushed whole
		_ = tc.SetNoDelay(true)
	}

	c.conn = conn
	c.reader = resp.NewReader(conn)
	c.writer = resp.NewWriter(conn)
	return nil
}

// teardown closes the connection if open. Caller holds c.mu.
func (c *pooledConn) teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
		c.writer = nil
	}
}

func (c *pooledConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
}

// --------------------------------------------------------------------------
// Round Robin Counter
// --------------------------------------------------------------------------

// atomicCounter hands out pool indices round-robin.
type atomicCounter struct {
	n atomic.Uint64
}

func (c *atomicCounter) next(size int) int {
	if size == 1 {
		// optimize for single connection
		return 0
	}
	return int(c.n.Add(1) % uint64(size))
}
