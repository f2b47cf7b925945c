package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"go.uber.org/zap"
)

const subscriberBuffer = 8

// Server serves the latest record over HTTP and pushes every new record to
// websocket subscribers. It is a Sink.
type Server struct {
	mu          sync.RWMutex
	latest      optional.Option[Record]
	subscribers map[chan Record]struct{}

	upgrader websocket.Upgrader
	router   *mux.Router
	logger   *logger.Logger
}

func NewServer(l *logger.Logger) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}

	s := &Server{
		latest:      optional.None[Record](),
		subscribers: make(map[chan Record]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		router: mux.NewRouter(),
		logger: l,
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status/stream", s.handleStream)

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Write stores record as the latest and forwards it to subscribers. A
// subscriber that is not keeping up misses the record.
func (s *Server) Write(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = optional.Some(record)

	for ch := range s.subscribers {
		select {
		case ch <- record:
		default:
			s.logger.Debug("Dropping status update for slow subscriber")
		}
	}

	return nil
}

// Latest returns the last written record.
func (s *Server) Latest() optional.Option[Record] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	s.logger.Info("Status server listening", zap.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.closeSubscribers()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	latest := s.Latest()
	if latest.IsNone() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "waiting for agent to produce status"})

		return
	}

	writeJSON(w, http.StatusOK, latest.Unwrap())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade status stream", zap.Error(err))

		return
	}
	defer conn.Close()

	ch, latest := s.subscribe()
	defer s.unsubscribe(ch)

	if latest.IsSome() {
		if err := conn.WriteJSON(latest.Unwrap()); err != nil {
			return
		}
	}

	// the client never sends anything; reading detects the close
	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case record, ok := <-ch:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))

				return
			}

			if err := conn.WriteJSON(record); err != nil {
				return
			}
		}
	}
}

func (s *Server) subscribe() (chan Record, optional.Option[Record]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Record, subscriberBuffer)
	s.subscribers[ch] = struct{}{}

	return ch, s.latest
}

func (s *Server) unsubscribe(ch chan Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Server) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
