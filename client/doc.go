// Package client implements the typed client for the key-value protocol.
// It constructs command variants, encodes them into request frames, sends
// them over pooled connections and decodes the typed replies.
//
// The package focuses on:
//   - A typed method per command (Get, Set, MultiGet, MultiSet, ...) plus a raw Do escape hatch
//   - Connection pooling with round-robin balancing across endpoints
//   - Transparent reconnect and retry with exponential backoff on transport failures
//
// Key Components:
//
//   - IClient Interface: The client abstraction. All methods are safe for
//     concurrent use. Created via New with a Config naming one or more
//     endpoints; every endpoint gets a configurable number of pooled
//     connections.
//
//   - pooledConn: One connection of the pool. The protocol has no request
//     IDs, so a request checks a connection out for its whole round trip
//     (write frame, read reply) instead of multiplexing.
//
//   - ServerError: An error reply frame from the server, surfaced as a typed
//     Go error. Server errors are answers, not failures, so they are never
//     retried; only transport failures are, on the next pooled connection.
//
// The batch methods mirror the protocol's batch contract: MultiGet returns
// exactly one Lookup per requested key in request order (duplicates
// included), and MultiSet applies its pairs in the given order with a single
// request.
package client
