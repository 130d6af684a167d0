package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/metric"
	"github.com/c360/telestate/registry"
	"github.com/c360/telestate/types"
)

// Config holds WebSocket gateway configuration.
type Config struct {
	Enabled            bool     `json:"enabled"`
	Addr               string   `json:"addr"`
	Path               string   `json:"path"`
	AllowedOrigins     []string `json:"allowed_origins"`
	SendQueueSize      int      `json:"send_queue_size"`
	WriteTimeoutMillis int      `json:"write_timeout_millis"`
	PingIntervalMillis int      `json:"ping_interval_millis"`
	PongTimeoutMillis  int      `json:"pong_timeout_millis"`
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8081",
		Path:               "/ws",
		SendQueueSize:      256,
		WriteTimeoutMillis: 10000,
		PingIntervalMillis: 30000,
		PongTimeoutMillis:  60000,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "gateway addr")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.WrapInvalid(
			fmt.Errorf("path %q", c.Path),
			"Config", "Validate", "gateway path must start with /")
	}
	if c.SendQueueSize < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("send queue size %d", c.SendQueueSize),
			"Config", "Validate", "send queue size must be positive")
	}
	if c.WriteTimeoutMillis < 1 || c.PingIntervalMillis < 1 || c.PongTimeoutMillis < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"gateway timeouts must be positive")
	}
	return nil
}

// clientCommand is one JSON frame from a client.
//
// Supported ops:
//   - "listen": register for the named event kinds. An empty kind list
//     cancels the registration. "subscription_id" defaults to the
//     default-subscription sentinel; "replay" requests cached state.
//   - "unlisten": cancel the event registration.
//   - "listen_subscriptions": register for subscription list changes.
//   - "ping": request a pong frame.
type clientCommand struct {
	Op             string   `json:"op"`
	Events         []string `json:"events,omitempty"`
	SubscriptionID *int     `json:"subscription_id,omitempty"`
	Replay         bool     `json:"replay,omitempty"`
}

// eventFrame is one registry event on the wire.
type eventFrame struct {
	Type           string        `json:"type"`
	Kind           string        `json:"kind"`
	Slot           int           `json:"slot"`
	SubscriptionID int           `json:"subscription_id"`
	Payload        types.Payload `json:"payload,omitempty"`
	Timestamp      int64         `json:"timestamp"`
}

// controlFrame is a non-event server frame: "listening", "unlistened",
// "pong" or "error".
type controlFrame struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// Server is the WebSocket gateway. It serves one endpoint that speaks the
// listen/unlisten command protocol and fans registry events out to
// connected clients.
type Server struct {
	cfg     Config
	reg     *registry.Registry
	log     *slog.Logger
	metrics *metric.Metrics

	upgrader websocket.Upgrader
	server   *http.Server

	clients   map[*client]struct{}
	clientsMu sync.Mutex

	mu       sync.Mutex
	running  bool
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New creates a gateway server bound to reg. Logger and metrics are
// optional.
func New(cfg Config, reg *registry.Registry, log *slog.Logger, metrics *metric.Metrics) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "New", "registry required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		reg:     reg,
		log:     log.With("component", "gateway"),
		metrics: metrics,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// checkOrigin admits every origin when no allowlist is configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Handler returns the HTTP handler serving the gateway endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)
	return mux
}

// Start begins serving on the configured address.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "Start", "context cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "Server", "Start", "context already cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.shutdown = make(chan struct{})
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true

	s.wg.Add(2)
	go s.runServer()
	go s.pingLoop()

	s.log.Info("gateway listening", "addr", s.cfg.Addr, "path", s.cfg.Path)
	return nil
}

func (s *Server) runServer() {
	defer s.wg.Done()
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("gateway server failed", "error", err)
	}
}

// pingLoop sends periodic pings so dead connections get reaped by the
// read deadline on the client side.
func (s *Server) pingLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Duration(s.cfg.PingIntervalMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.pingClients()
		}
	}
}

func (s *Server) pingClients() {
	s.clientsMu.Lock()
	snapshot := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		snapshot = append(snapshot, c)
	}
	s.clientsMu.Unlock()

	for _, c := range snapshot {
		if err := c.ping(); err != nil {
			c.close()
		}
	}
}

// Stop shuts the server down and closes all client connections.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.shutdown)
	server := s.server
	s.server = nil
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var shutdownErr error
	if server != nil {
		shutdownErr = server.Shutdown(shutdownCtx)
	}

	s.clientsMu.Lock()
	snapshot := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		snapshot = append(snapshot, c)
	}
	s.clientsMu.Unlock()
	for _, c := range snapshot {
		c.close()
	}

	s.wg.Wait()

	if shutdownErr != nil {
		return errors.WrapTransient(shutdownErr, "Server", "Stop", "http shutdown")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// handleWebSocket upgrades one connection and runs its read loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(s, conn, identityFromRequest(r))

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.recordConnections(count)

	s.log.Info("client connected", "remote", r.RemoteAddr, "package", c.identity.Package)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.run()
	}()
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.recordConnections(count)
}

func (s *Server) recordConnections(count int) {
	if s.metrics != nil {
		s.metrics.RecordGatewayConnections(count)
	}
}

func (s *Server) recordMessage(direction, messageType string) {
	if s.metrics != nil {
		s.metrics.RecordGatewayMessage(direction, messageType)
	}
}

// identityFromRequest builds the listener identity from query parameters.
// Remote clients carry no process identity, so UID and PID stay zero and
// the package name falls back to the remote address.
func identityFromRequest(r *http.Request) registry.Identity {
	pkg := r.URL.Query().Get("package")
	if pkg == "" {
		pkg = "gateway:" + r.RemoteAddr
	}
	return registry.Identity{
		Package:   pkg,
		FeatureID: r.URL.Query().Get("feature"),
	}
}

// parseEventMask converts wire kind names into an event mask.
func parseEventMask(names []string) (types.EventMask, error) {
	mask := types.EventNone
	for _, name := range names {
		kind, ok := types.ParseKind(name)
		if !ok {
			return types.EventNone, errors.WrapInvalid(
				fmt.Errorf("event kind %q", name),
				"Server", "parseEventMask", "unknown event kind")
		}
		mask = mask.With(kind)
	}
	return mask, nil
}

func marshalEvent(ev types.Event) ([]byte, error) {
	return json.Marshal(eventFrame{
		Type:           "event",
		Kind:           ev.Kind().String(),
		Slot:           ev.Slot,
		SubscriptionID: ev.SubID,
		Payload:        ev.Payload,
		Timestamp:      time.Now().UnixMilli(),
	})
}
