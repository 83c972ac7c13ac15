// Package command implements the protocol's closed command set: the typed
// representation of every request the server understands, with decoding from
// received frames, execution against a store, and encoding back into frames
// for the client side.
//
// The package focuses on:
//   - A uniform command lifecycle (decode / execute / encode) shared by all variants
//   - Strict request validation with recoverable decode failures
//   - Batch commands that map one request to one response write
//
// Key Components:
//
//   - ICommand Interface: The abstraction implemented by every command
//     variant (Ping, Get, Set, MultiGet, MultiSet, Del, Exists, Expire, Info,
//     Unknown). An instance is single-use: it is either decoded from a frame
//     and executed, or constructed and encoded, never both.
//
//   - FromFrame Dispatch: Maps a received array frame to a command variant by
//     its leading name token (case-insensitive). Malformed requests produce a
//     decode error which the server answers with an error frame, keeping the
//     connection open; unrecognized names decode into the Unknown variant.
//
//   - IResponseWriter: The single-write response sink commands execute
//     against. Every execution writes exactly one frame, carrying either the
//     command's reply or an error report. An error returned from Execute is
//     always a transport failure and terminates the connection.
//
// Decoding is pure: it consumes the fields of one received frame through a
// resp.Cursor and touches neither the store nor the connection. Field kinds
// are part of the wire contract, so a count field must arrive as an integer
// frame; digits inside a string field do not qualify.
//
// Execution accesses the store through the store.IStore interface, one key at
// a time. Batch commands (MultiGet, MultiSet) process their items in request
// order and reply with a single write, but make no cross-key atomicity
// promise: each item reads or writes the store independently.
//
// Expiry options (SET EX/PX, EXPIRE) convert their time-to-live into an
// absolute wall-clock deadline at execution time, so a replicated store
// proposes the identical deadline to every replica.
package command
