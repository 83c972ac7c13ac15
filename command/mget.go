package command

import (
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// MultiGet reads a batch of keys in one request: a count prefix followed by
// exactly that many keys. The reply is one array of exactly len(Keys) entries,
// the value as a bulk string where the key was found and null where it was
// not, in request order. Duplicate keys are looked up independently and each
// occurrence gets its own entry. A zero-key batch replies with an empty array.
//
// The batch is never decomposed: all lookups happen before the single
// response write. Each key is read individually, so a concurrent writer may
// be observed by some keys of the batch and not by others.
type MultiGet struct {
	Keys []string
}

func decodeMultiGet(cur *resp.Cursor) (ICommand, error) {
	n, err := decodeCount(cur, NameMultiGet, 1)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key, err := cur.NextString()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &MultiGet{Keys: keys}, nil
}

func (c *MultiGet) Name() string { return NameMultiGet }

func (c *MultiGet) Execute(st store.IStore, w IResponseWriter) error {
	entries := make([]resp.Value, 0, len(c.Keys))
	for _, key := range c.Keys {
		value, loaded, err := st.Get(key)
		if err != nil {
			return writeStoreError(w, err)
		}
		if loaded {
			entries = append(entries, resp.Bulk(value))
		} else {
			entries = append(entries, resp.Null())
		}
	}
	return w.WriteFrame(resp.Array(entries...))
}

func (c *MultiGet) Frame() resp.Value {
	fields := make([]resp.Value, 0, 2+len(c.Keys))
	fields = append(fields, resp.BulkString(NameMultiGet), resp.Integer(int64(len(c.Keys))))
	for _, key := range c.Keys {
		fields = append(fields, resp.BulkString(key))
	}
	return resp.Array(fields...)
}
