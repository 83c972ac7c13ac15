package command

import (
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// Ping checks liveness. With no message it replies +PONG; with a message it
// echoes the message back as a bulk string. The store is not touched.
type Ping struct {
	// Msg is the optional message to echo. nil means no message.
	Msg []byte
}

func decodePing(cur *resp.Cursor) (ICommand, error) {
	if cur.Remaining() == 0 {
		return &Ping{}, nil
	}
	msg, err := cur.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Ping{Msg: msg}, nil
}

func (c *Ping) Name() string { return NamePing }

func (c *Ping) Execute(_ store.IStore, w IResponseWriter) error {
	if c.Msg == nil {
		return w.WriteFrame(resp.Simple("PONG"))
	}
	return w.WriteFrame(resp.Bulk(c.Msg))
}

func (c *Ping) Frame() resp.Value {
	if c.Msg == nil {
		return resp.Array(resp.BulkString(NamePing))
	}
	return resp.Array(resp.BulkString(NamePing), resp.Bulk(c.Msg))
}
