// Package ws serves the WebSocket message channel together with the
// /metrics and /healthz endpoints.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simplegameutils/sgu/internal/logging"
	"github.com/simplegameutils/sgu/internal/server/session"
	"golang.org/x/net/websocket"
)

const (
	maxMessageBytes   = 64 << 10
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	healthTimeout     = 2 * time.Second
)

// Dispatcher handles one inbound message of a session and returns the
// replies in order.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *session.Session, data []byte) []any
}

// Pinger reports storage health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MessageRate    float64
	MessageBurst   int
}

type Server struct {
	address    string
	dispatcher Dispatcher
	sessions   *session.Manager
	db         Pinger
	logger     logging.Logger
	opts       Options

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewServer(addr string, l logging.Logger, d Dispatcher, sessions *session.Manager, db Pinger, opts Options) *Server {
	return &Server{
		address:    addr,
		dispatcher: d,
		sessions:   sessions,
		db:         db,
		logger:     l.With("module", "ws_server"),
		opts:       opts,
		conns:      make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	// Game clients send no Origin header, which websocket.Handler rejects.
	wsServer := websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.serveConn,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsServer.ServeHTTP(w, r)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err.Error())
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run serves until ctx is done, then stops accepting connections, closes
// the open ones and waits for their handlers to return.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listen)
	}()

	s.logger.Info(ctx, "Starting websocket server", "address", listen.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping websocket server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeConns()
		s.wg.Wait()
		return err
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Hijacked connections are not closed by http.Server.Shutdown.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
}

// track reports false once the server is shutting down.
func (s *Server) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	s.wg.Done()
}
