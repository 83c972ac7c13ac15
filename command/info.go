package command

import (
	"encoding/json"

	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// --------------------------------------------------------------------------
// Info
// --------------------------------------------------------------------------

// Info reports metadata about the store's underlying database. The reply is
// a bulk string carrying the metadata as JSON.
type Info struct{}

func decodeInfo(cur *resp.Cursor) (ICommand, error) {
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return &Info{}, nil
}

func (c *Info) Name() string { return NameInfo }

func (c *Info) Execute(st store.IStore, w IResponseWriter) error {
	info, err := st.GetDBInfo()
	if err != nil {
		return writeStoreError(w, err)
	}
	payload, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return writeStoreError(w, err)
	}
	return w.WriteFrame(resp.Bulk(payload))
}

func (c *Info) Frame() resp.Value {
	return resp.Array(resp.BulkString(NameInfo))
}

// --------------------------------------------------------------------------
// Unknown
// --------------------------------------------------------------------------

// Unknown is the decode result for a well-formed request whose name token
// matches no known command. Executing it reports the unknown name to the
// client as an error frame; the connection stays open.
type Unknown struct {
	// Token is the name token as received.
	Token string
}

func (c *Unknown) Name() string { return c.Token }

func (c *Unknown) Execute(_ store.IStore, w IResponseWriter) error {
	return w.WriteFrame(resp.Errf("ERR unknown command '%s'", c.Token))
}

func (c *Unknown) Frame() resp.Value {
	return resp.Array(resp.BulkString(c.Token))
}
