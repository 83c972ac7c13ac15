package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// Set writes a single key. Options:
//   - EX seconds / PX milliseconds: attach a time-to-live (the expiry deadline
//     is computed from the clock at execution time, so a replicated store
//     proposes the absolute deadline).
//   - NX: write only if the key holds no live value.
//
// The reply is +OK, or null when NX suppressed the write. Without a TTL
// option any deadline previously attached to the key is cleared.
type Set struct {
	Key     string
	Value   []byte
	TTL     time.Duration // 0 means no expiry
	IfUnset bool
}

func decodeSet(cur *resp.Cursor) (ICommand, error) {
	key, err := cur.NextString()
	if err != nil {
		return nil, err
	}
	value, err := cur.NextBytes()
	if err != nil {
		return nil, err
	}

	cmd := &Set{Key: key, Value: value}

	// option fields, each at most once
	ttlSet := false
	for cur.Remaining() > 0 {
		opt, err := cur.NextString()
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(opt) {
		case "ex":
			if ttlSet {
				return nil, fmt.Errorf("syntax error in '%s': duplicate expire option", NameSet)
			}
			secs, err := cur.NextInt()
			if err != nil {
				return nil, err
			}
			if secs <= 0 {
				return nil, fmt.Errorf("invalid expire time in '%s'", NameSet)
			}
			cmd.TTL = time.Duration(secs) * time.Second
			ttlSet = true
		case "px":
			if ttlSet {
				return nil, fmt.Errorf("syntax error in '%s': duplicate expire option", NameSet)
			}
			millis, err := cur.NextInt()
			if err != nil {
				return nil, err
			}
			if millis <= 0 {
				return nil, fmt.Errorf("invalid expire time in '%s'", NameSet)
			}
			cmd.TTL = time.Duration(millis) * time.Millisecond
			ttlSet = true
		case "nx":
			cmd.IfUnset = true
		default:
			return nil, fmt.Errorf("syntax error in '%s': unknown option '%s'", NameSet, opt)
		}
	}

	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *Set) Name() string { return NameSet }

// deadline converts the TTL into an absolute expiry timestamp, taking the
// clock now so that a replicated store replicates the identical deadline.
func (c *Set) deadline() int64 {
	if c.TTL <= 0 {
		return 0
	}
	return time.Now().Add(c.TTL).UnixNano()
}

func (c *Set) Execute(st store.IStore, w IResponseWriter) error {
	expiresAt := c.deadline()

	if c.IfUnset {
		inserted, err := st.SetXIfUnset(c.Key, c.Value, expiresAt)
		if err != nil {
			return writeStoreError(w, err)
		}
		if !inserted {
			return w.WriteFrame(resp.Null())
		}
		return w.WriteFrame(resp.Simple("OK"))
	}

	if expiresAt != 0 {
		if err := st.SetX(c.Key, c.Value, expiresAt); err != nil {
			return writeStoreError(w, err)
		}
		return w.WriteFrame(resp.Simple("OK"))
	}

	if err := st.Set(c.Key, c.Value); err != nil {
		return writeStoreError(w, err)
	}
	return w.WriteFrame(resp.Simple("OK"))
}

func (c *Set) Frame() resp.Value {
	fields := []resp.Value{
		resp.BulkString(NameSet),
		resp.BulkString(c.Key),
		resp.Bulk(c.Value),
	}
	if c.TTL > 0 {
		fields = append(fields, resp.BulkString("px"), resp.Integer(c.TTL.Milliseconds()))
	}
	if c.IfUnset {
		fields = append(fields, resp.BulkString("nx"))
	}
	return resp.Array(fields...)
}
