// Package resp implements the wire format of the finch protocol: a closed set
// of value kinds (simple string, error, integer, bulk string, null, array)
// with a byte-exact serialization, compatible with the RESP2 framing used by
// Redis-family servers.
//
// The package focuses on:
//   - A single Value model covering every kind a peer may send or receive
//   - Stream decoding (Reader) and encoding (Writer) of complete values
//   - Sequential, type-checked field access over received arrays (Cursor)
//   - Strict input validation with bounded allocation
//
// Key Components:
//
//   - Value: The wire value model. A Value is a tagged union over the protocol
//     kinds; constructor functions (Simple, Err, Integer, Bulk, Null, Array)
//     build well-formed instances. Values are plain data and carry no
//     connection or store state.
//
//   - Reader: Decodes one complete Value (including nested arrays) from a
//     byte stream. The reader enforces upper bounds on declared bulk lengths
//     and array field counts so a malicious peer cannot force unbounded
//     allocation. Any malformed input yields a ProtocolError.
//
//   - Writer: Encodes a Value to a byte stream, buffered. Serialization is
//     the exact inverse of the Reader for every well-formed Value.
//
//   - Cursor: A sequential reader over the fields of one received array.
//     Commands consume their fields through typed accessors (NextString,
//     NextBytes, NextInt) that fail with ErrEndOfStream when fields are
//     exhausted and with a WrongTypeError when a field has an unexpected
//     kind. Finish asserts that no unconsumed fields remain.
package resp
