package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsReadLimit    = 512
	clientBuffer   = 32
	shutdownPeriod = 5 * time.Second
)

// StreamMessage is the envelope sent to WebSocket clients.
type StreamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Server publishes oracle events to live observers:
//
//	/ws         WebSocket stream of StreamMessage envelopes
//	/events     Server-Sent Events stream
//	/dashboard  JSON DashboardSnapshot
//	/health     liveness probe
//	/metrics    optional Prometheus handler
type Server struct {
	mu         sync.RWMutex
	collector  *EventCollector
	dashboard  *DashboardData
	sseClients map[chan []byte]struct{}
	wsClients  map[*wsClient]struct{}
	upgrader   websocket.Upgrader
	metrics    http.Handler
	addr       string
	server     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetricsHandler exposes h at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a monitor server and subscribes it to
// collector. Every event updates dashboard and is broadcast to
// connected clients.
func NewServer(
	addr string,
	collector *EventCollector,
	dashboard *DashboardData,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:       addr,
		collector:  collector,
		dashboard:  dashboard,
		sseClients: make(map[chan []byte]struct{}),
		wsClients:  make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	collector.OnEvent(s.handleEvent)
	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/events", s.handleSSE)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("monitor server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownPeriod,
		)
		defer cancel()
		if err := s.Stop(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Stop gracefully shuts down the server and disconnects all
// streaming clients.
func (s *Server) Stop(ctx context.Context) error {
	s.closeClients()

	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// ClientCount returns the number of connected streaming clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sseClients) + len(s.wsClients)
}

func (s *Server) handleEvent(event OracleEvent) {
	s.dashboard.UpdateFromEvent(event)
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.broadcastSSE(data)

	msg, err := json.Marshal(StreamMessage{Type: "event", Data: event})
	if err != nil {
		return
	}
	s.broadcastWS(msg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}
	if data, err := json.Marshal(StreamMessage{
		Type: "dashboard",
		Data: s.dashboard.Snapshot(),
	}); err == nil {
		client.send <- data
	}

	s.mu.Lock()
	s.wsClients[client] = struct{}{}
	s.mu.Unlock()

	go s.wsWritePump(client)
	s.wsReadPump(client)
}

// wsReadPump discards client messages and returns once the
// connection fails or is closed.
func (s *Server) wsReadPump(client *wsClient) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.wsClients[client]; ok {
			delete(s.wsClients, client)
			close(client.send)
		}
		s.mu.Unlock()
	}()

	client.conn.SetReadLimit(wsReadLimit)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) wsWritePump(client *wsClient) {
	defer client.conn.Close()

	for data := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := client.conn.WriteMessage(
			websocket.TextMessage, data,
		); err != nil {
			return
		}
	}

	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := make(chan []byte, clientBuffer)
	s.mu.Lock()
	s.sseClients[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, ok := s.sseClients[ch]; ok {
			delete(s.sseClients, ch)
			close(ch)
		}
		s.mu.Unlock()
	}()

	snap := s.dashboard.Snapshot()
	if data, err := json.Marshal(snap); err == nil {
		fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: oracle\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dashboard.Snapshot())
}

func (s *Server) broadcastSSE(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.sseClients {
		select {
		case ch <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (s *Server) broadcastWS(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.wsClients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// closeClients ends every open stream. SSE handlers return when
// their channel closes; WebSocket write pumps send a close frame.
func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.sseClients {
		delete(s.sseClients, ch)
		close(ch)
	}
	for c := range s.wsClients {
		delete(s.wsClients, c)
		close(c.send)
	}
}
