package command

import (
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// Get reads a single key. The reply is the value as a bulk string, or null
// when the key holds no live value.
type Get struct {
	Key string
}

func decodeGet(cur *resp.Cursor) (ICommand, error) {
	key, err := cur.NextString()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Get{Key: key}, nil
}

func (c *Get) Name() string { return NameGet }

func (c *Get) Execute(st store.IStore, w IResponseWriter) error {
	value, loaded, err := st.Get(c.Key)
	if err != nil {
		return writeStoreError(w, err)
	}
	if !loaded {
		return w.WriteFrame(resp.Null())
	}
	return w.WriteFrame(resp.Bulk(value))
}

func (c *Get) Frame() resp.Value {
	return resp.Array(resp.BulkString(NameGet), resp.BulkString(c.Key))
}
