package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/finchkv/finch/command"
	"github.com/finchkv/finch/lib/logging"
	"github.com/finchkv/finch/lib/netx"
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/resp"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("server")

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricConnsOpened   = metrics.GetOrCreateCounter("finch_server_connections_opened_total")
	metricConnsClosed   = metrics.GetOrCreateCounter("finch_server_connections_closed_total")
	metricConnsRejected = metrics.GetOrCreateCounter("finch_server_connections_rejected_total")
	metricDecodeErrors  = metrics.GetOrCreateCounter("finch_server_decode_errors_total")
)

// metricCommands counts executed commands per command name. Only canonical
// names may be used as label values: a client-supplied token would mint a
// permanent counter per distinct name and grow the registry without bound.
func metricCommands(name string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf("finch_server_commands_total{command=%q}", name))
}

// metricName maps a command to its metric label value. Unrecognized commands
// echo the client-supplied token from Name(), so they are all counted under
// one fixed series instead.
func metricName(cmd command.ICommand) string {
	if _, ok := cmd.(*command.Unknown); ok {
		return "unknown"
	}
	return cmd.Name()
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Server serves the key-value protocol on one endpoint. Each accepted
// connection is driven by its own goroutine running a strict request loop:
// read one frame, decode, execute (the command writes its single response),
// repeat. The only suspension points are the frame read and the response
// write; everything in between is synchronous in-memory work.
//
// Decode failures are answered with an error frame and the connection stays
// open. Transport failures terminate the connection's loop.
type Server struct {
	config Config
	store  store.IStore

	listener   net.Listener
	conns      *xsync.MapOf[uint64, *connection]
	nextConnID atomic.Uint64
	wg         sync.WaitGroup
	stopping   atomic.Bool

	metricsServer *http.Server
}

// New creates a server for the given store. The store is shared by all
// connections; the server does not close it.
func New(config Config, st store.IStore) *Server {
	if config.LogLevel != "" {
		logging.InitLoggers(config.LogLevel)
	}

	log.Infof("Created server")
	log.Infof(config.String())

	return &Server{
		config: config,
		store:  st,
		conns:  xsync.NewMapOf[uint64, *connection](),
	}
}

// Listen binds the configured endpoint without accepting connections yet.
// It is called implicitly by Serve; calling it first lets tests and callers
// learn the bound address (e.g. for port 0) before serving.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	network, address, err := netx.ParseEndpoint(s.config.Endpoint)
	if err != nil {
		return err
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	s.listener = listener
	return nil
}

// Addr returns the listener's address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called or the listener fails. It
// blocks; the returned error is nil on a clean stop.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		s.serveMetrics()
	}

	log.Infof("Serving on %s", s.listener.Addr())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping.Load() {
				break
			}
			log.Errorf("Accept error: %v", err)
			continue
		}

		if s.config.MaxConns > 0 && s.conns.Size() >= s.config.MaxConns {
			metricConnsRejected.Inc()
			s.rejectConnection(conn)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}

	// Wait for the per-connection goroutines before returning, so a clean
	// stop never abandons an in-flight response write.
	s.wg.Wait()
	log.Infof("Server stopped")
	return nil
}

// Stop closes the listener and all live connections and waits for the
// connection goroutines to finish.
func (s *Server) Stop() error {
	s.stopping.Store(true)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.conns.Range(func(_ uint64, c *connection) bool {
		_ = c.Close()
		return true
	})

	if s.metricsServer != nil {
		_ = s.metricsServer.Close()
	}

	s.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection runs the request loop for one accepted connection.
func (s *Server) handleConnection(nc net.Conn) {
	id := s.nextConnID.Add(1)
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second
	c := newConnection(id, nc, timeout)

	metricConnsOpened.Inc()
	s.conns.Store(id, c)
	defer func() {
		s.conns.Delete(id)
		_ = c.Close()
		metricConnsClosed.Inc()
	}()

	// Stop may have swept the registry between the accept and the Store
	// above; such a connection would never be closed for us, so bail out
	// instead of entering a read that may block forever.
	if s.stopping.Load() {
		return
	}

	log.Debugf("Connection %d from %s", id, c.RemoteAddr())

	for {
		frame, err := c.ReadFrame()
		if err != nil {
			s.logReadFailure(c, err)
			return
		}

		cmd, err := command.FromFrame(frame)
		if err != nil {
			// Decode failure: recoverable, answered on the same connection.
			metricDecodeErrors.Inc()
			log.Debugf("Connection %d decode error: %v", id, err)
			if werr := c.WriteFrame(resp.Errf("ERR %v", err)); werr != nil {
				log.Errorf("Connection %d failed to write error reply: %v", id, werr)
				return
			}
			continue
		}

		metricCommands(metricName(cmd)).Inc()

		start := time.Now()
		if err := cmd.Execute(s.store, c); err != nil {
			// Transport failure while writing the response: fatal for this
			// connection, never retried.
			log.Errorf("Connection %d failed to write response: %v", id, err)
			return
		}
		log.Debugf("Connection %d processed '%s' in %s", id, cmd.Name(), time.Since(start))
	}
}

// logReadFailure classifies a failed frame read. A corrupt stream gets a
// best-effort error reply before the close, since the peer may be a human
// with a telnet session.
func (s *Server) logReadFailure(c *connection, err error) {
	switch {
	case err == io.EOF:
		log.Debugf("Connection %d closed by client", c.id)
	case s.stopping.Load():
		// reads aborted by Stop closing the connection
	case errors.As(err, new(resp.ProtocolError)):
		log.Infof("Connection %d protocol error: %v", c.id, err)
		_ = c.WriteFrame(resp.Errf("ERR %v", err))
	default:
		log.Infof("Connection %d read error: %v", c.id, err)
	}
}

// rejectConnection answers an over-limit connection with an error frame and
// closes it.
func (s *Server) rejectConnection(nc net.Conn) {
	log.Warningf("Rejecting connection from %s: max connections (%d) reached",
		nc.RemoteAddr(), s.config.MaxConns)

	w := resp.NewWriter(nc)
	_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
	_ = w.WriteValue(resp.Err("ERR max number of clients reached"))
	_ = w.Flush()
	_ = nc.Close()
}

// serveMetrics starts the optional Prometheus metrics endpoint.
func (s *Server) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	s.metricsServer = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}

	go func() {
		log.Infof("Serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
		if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics endpoint failed: %v", err)
		}
	}()
}
