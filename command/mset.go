package command

import (
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// Pair is one key–value pair of a MultiSet batch.
type Pair struct {
	Key   string
	Value []byte
}

// MultiSet writes a batch of key–value pairs in one request: a count prefix
// followed by exactly that many pairs. The writes are applied in request
// order and the reply is a single +OK. The batch is never decomposed and
// never reordered, but there is no cross-key atomicity: a concurrent reader
// may observe some pairs of the batch already applied and others not yet.
type MultiSet struct {
	Pairs []Pair
}

func decodeMultiSet(cur *resp.Cursor) (ICommand, error) {
	n, err := decodeCount(cur, NameMultiSet, 2)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		key, err := cur.NextString()
		if err != nil {
			return nil, err
		}
		value, err := cur.NextBytes()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &MultiSet{Pairs: pairs}, nil
}

func (c *MultiSet) Name() string { return NameMultiSet }

func (c *MultiSet) Execute(st store.IStore, w IResponseWriter) error {
	for _, pair := range c.Pairs {
		if err := st.Set(pair.Key, pair.Value); err != nil {
			// pairs before this one are already applied; the batch has no
			// cross-key atomicity to preserve
			return writeStoreError(w, err)
		}
	}
	return w.WriteFrame(resp.Simple("OK"))
}

func (c *MultiSet) Frame() resp.Value {
	fields := make([]resp.Value, 0, 2+2*len(c.Pairs))
	fields = append(fields, resp.BulkString(NameMultiSet), resp.Integer(int64(len(c.Pairs))))
	for _, pair := range c.Pairs {
		fields = append(fields, resp.BulkString(pair.Key), resp.Bulk(pair.Value))
	}
	return resp.Array(fields...)
}
