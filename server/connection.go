package server

import (
	"net"
	"time"

	"github.com/finchkv/finch/resp"
)

// --------------------------------------------------------------------------
// Connection Handle
// --------------------------------------------------------------------------

// connection wraps one accepted net.Conn with the protocol codec. It is the
// response sink commands execute against: WriteFrame serializes exactly one
// value and flushes it, so a response is either fully on the wire or the
// write has failed.
//
// A connection is driven by a single goroutine (read one request, execute,
// repeat), so reads and writes need no internal locking. Close may be called
// concurrently to abandon an in-flight read or write.
type connection struct {
	id      uint64
	conn    net.Conn
	reader  *resp.Reader
	writer  *resp.Writer
	timeout time.Duration
}

func newConnection(id uint64, conn net.Conn, timeout time.Duration) *connection {
	return &connection{
		id:      id,
		conn:    conn,
		reader:  resp.NewReader(conn),
		writer:  resp.NewWriter(conn),
		timeout: timeout,
	}
}

// ReadFrame reads one complete request frame. A configured timeout bounds the
// read from its first byte.
func (c *connection) ReadFrame() (resp.Value, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return resp.Value{}, err
		}
	}
	return c.reader.ReadValue()
}

// WriteFrame serializes one value as a response frame and flushes it to the
// transport. It implements command.IResponseWriter; a non-nil error is a
// transport failure and fatal for the connection.
func (c *connection) WriteFrame(v resp.Value) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	if err := c.writer.WriteValue(v); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Close closes the underlying transport, unblocking any in-flight read.
func (c *connection) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address for logging.
func (c *connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
