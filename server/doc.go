// Package server implements the network server for the key-value protocol.
// It accepts client connections on a TCP or unix socket endpoint and drives
// each one through the read-decode-execute loop against a shared store.
//
// The package focuses on:
//   - One goroutine per connection, suspending only at frame I/O
//   - Strict error separation: decode failures are answered in-band, transport failures close the connection
//   - Operational concerns: connection limiting, graceful stop, metrics
//
// Key Components:
//
//   - Server: Owns the listener and the set of live connections. Serve runs
//     the accept loop; Stop closes the listener and all connections and waits
//     for in-flight work. The store is injected and shared by all
//     connections, so any store.IStore implementation (local or replicated)
//     can be served unchanged.
//
//   - connection: The per-connection transport handle pairing a resp.Reader
//     and resp.Writer over one net.Conn. It implements
//     command.IResponseWriter, making it the single response sink every
//     command execution writes exactly one frame to.
//
//   - Config: All server parameters (endpoint, store type, timeouts,
//     connection limit, optional metrics endpoint, raft parameters for the
//     replicated store) with a human-readable String rendering and
//     conversions to Dragonboat configurations.
//
// Request handling per connection is strictly sequential: a request's
// response is fully written before the next request frame is read. Across
// connections no ordering is guaranteed; concurrency control for the shared
// state lives entirely in the store.
//
// The server exposes VictoriaMetrics counters for opened, closed and
// rejected connections, decode errors and executed commands per name. If a
// metrics endpoint is configured they are served in Prometheus format.
package server
