package command

import (
	"fmt"
	"strings"

	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
)

// --------------------------------------------------------------------------
// Command Names
// --------------------------------------------------------------------------

// Canonical command names. Dispatch matches the leading name token of a
// request case-insensitively against these.
const (
	NamePing     = "ping"
	NameGet      = "get"
	NameSet      = "set"
	NameMultiGet = "multiget"
	NameMultiSet = "multiset"
	NameDel      = "del"
	NameExists   = "exists"
	NameExpire   = "expire"
	NameInfo     = "info"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// IResponseWriter is the sink a command writes its single response frame to.
// The server's connection handle implements it.
type IResponseWriter interface {
	// WriteFrame serializes one value as the response frame. An error from
	// WriteFrame is a transport failure and is fatal for the connection.
	WriteFrame(v resp.Value) error
}

// ICommand is one command of the protocol's closed command set.
//
// An instance is single-use and passes through exactly one of two lifecycles:
// decoded from a received frame and executed (server side), or constructed
// and encoded to a frame (client side). Decoding performs no store access;
// all state access happens in Execute.
type ICommand interface {
	// Name returns the canonical wire name of the command.
	Name() string
	// Execute runs the command against the store and writes exactly one
	// response frame, the array/scalar reply or an error frame. A store
	// failure is reported to the client inside that frame; the returned
	// error is non-nil only if writing the response itself failed.
	Execute(st store.IStore, w IResponseWriter) error
	// Frame encodes the command into its request frame.
	Frame() resp.Value
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// FromFrame decodes one received request frame into a command. Any returned
// error is a decode failure: the request is answered with an error frame and
// the connection stays open. A well-formed frame with an unrecognized name
// decodes successfully into an Unknown command.
func FromFrame(v resp.Value) (ICommand, error) {
	cur, err := resp.NewCursor(v)
	if err != nil {
		return nil, err
	}

	name, err := cur.NextString()
	if err != nil {
		return nil, fmt.Errorf("missing command name: %w", err)
	}

	switch strings.ToLower(name) {
	case NamePing:
		return decodePing(cur)
	case NameGet:
		return decodeGet(cur)
	case NameSet:
		return decodeSet(cur)
	case NameMultiGet:
		return decodeMultiGet(cur)
	case NameMultiSet:
		return decodeMultiSet(cur)
	case NameDel:
		return decodeDel(cur)
	case NameExists:
		return decodeExists(cur)
	case NameExpire:
		return decodeExpire(cur)
	case NameInfo:
		return decodeInfo(cur)
	default:
		return &Unknown{Token: name}, nil
	}
}

// --------------------------------------------------------------------------
// Shared decode and reply helpers
// --------------------------------------------------------------------------

// decodeCount reads a count prefix for a batch command. The count must be an
// integer field (digits in a string field do not qualify), non-negative, and
// must not declare more items than the frame can still hold: itemWidth is the
// number of fields one item occupies.
func decodeCount(cur *resp.Cursor, name string, itemWidth int) (int, error) {
	n, err := cur.NextInt()
	if err != nil {
		return 0, fmt.Errorf("invalid count for '%s': %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d for '%s'", n, name)
	}
	if n > int64(cur.Remaining()/itemWidth) {
		// same exhausted-input class as reading past the end of the frame
		return 0, fmt.Errorf("count %d for '%s' exceeds the %d remaining fields: %w", n, name, cur.Remaining(), resp.ErrEndOfStream)
	}
	return int(n), nil
}

// writeStoreError reports a failed store operation to the client as an error
// frame. The reply is the error propagation, so the connection stays usable;
// only the frame write itself can fail.
func writeStoreError(w IResponseWriter, err error) error {
	return w.WriteFrame(resp.Errf("ERR %v", err))
}

// writeFlag writes the integer reply for a boolean outcome (1 or 0).
func writeFlag(w IResponseWriter, outcome bool) error {
	if outcome {
		return w.WriteFrame(resp.Integer(1))
	}
	return w.WriteFrame(resp.Integer(0))
}
