package command

import (
	"fmt"
	"time"

	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// --------------------------------------------------------------------------
// Del
// --------------------------------------------------------------------------

// Del deletes a single key. The reply is the integer 1 if a live value was
// removed, else 0.
type Del struct {
	Key string
}

func decodeDel(cur *resp.Cursor) (ICommand, error) {
	key, err := cur.NextString()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Del{Key: key}, nil
}

func (c *Del) Name() string { return NameDel }

func (c *Del) Execute(st store.IStore, w IResponseWriter) error {
	removed, err := st.Delete(c.Key)
	if err != nil {
		return writeStoreError(w, err)
	}
	return writeFlag(w, removed)
}

func (c *Del) Frame() resp.Value {
	return resp.Array(resp.BulkString(NameDel), resp.BulkString(c.Key))
}

// --------------------------------------------------------------------------
// Exists
// --------------------------------------------------------------------------

// Exists checks a single key. The reply is the integer 1 if the key holds a
// live value, else 0.
type Exists struct {
	Key string
}

func decodeExists(cur *resp.Cursor) (ICommand, error) {
	key, err := cur.NextString()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Exists{Key: key}, nil
}

func (c *Exists) Name() string { return NameExists }

func (c *Exists) Execute(st store.IStore, w IResponseWriter) error {
	loaded, err := st.Has(c.Key)
	if err != nil {
		return writeStoreError(w, err)
	}
	return writeFlag(w, loaded)
}

func (c *Exists) Frame() resp.Value {
	return resp.Array(resp.BulkString(NameExists), resp.BulkString(c.Key))
}

// --------------------------------------------------------------------------
// Expire
// --------------------------------------------------------------------------

// Expire attaches or overwrites a time-to-live on an existing key. Seconds
// must be positive; the expiry deadline is computed from the clock at
// execution time. The reply is the integer 1 if the key held a live value,
// else 0.
type Expire struct {
	Key     string
	Seconds int64
}

func decodeExpire(cur *resp.Cursor) (ICommand, error) {
	key, err := cur.NextString()
	if err != nil {
		return nil, err
	}
	secs, err := cur.NextInt()
	if err != nil {
		return nil, err
	}
	if secs <= 0 {
		return nil, fmt.Errorf("invalid expire time in '%s'", NameExpire)
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Expire{Key: key, Seconds: secs}, nil
}

func (c *Expire) Name() string { return NameExpire }

func (c *Expire) Execute(st store.IStore, w IResponseWriter) error {
	deadline := time.Now().Add(time.Duration(c.Seconds) * time.Second).UnixNano()
	found, err := st.Expire(c.Key, deadline)
	if err != nil {
		return writeStoreError(w, err)
	}
	return writeFlag(w, found)
}

func (c *Expire) Frame() resp.Value {
	return resp.Array(
		resp.BulkString(NameExpire),
		resp.BulkString(c.Key),
		resp.Integer(c.Seconds),
	)
}
