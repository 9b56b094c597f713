package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/health"
	"github.com/MostProject/wslistener/internal/middleware"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/MostProject/wslistener/internal/observability"
	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const localStage = "local"

// Rule is a rule toggle whose state can be read back for health checks
type Rule interface {
	handlers.RuleToggle
	State(ctx context.Context) (models.RuleState, error)
}

// LocalServer plays the part of API Gateway: every WebSocket upgrade runs the
// $connect handler and every closed socket runs the $disconnect handler.
type LocalServer struct {
	connect    middleware.Handler
	disconnect middleware.Handler
	logger     *observability.Logger
	health     *health.Server
	upgrader   websocket.Upgrader

	active       atomic.Int64
	connected    atomic.Int64
	disconnected atomic.Int64
	rejected     atomic.Int64

	// open sockets, closed on shutdown so their $disconnect runs before Run returns
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	closing  bool
	inflight sync.WaitGroup
}

// NewLocalServer wires the handlers to store and rule
func NewLocalServer(store handlers.RecordStore, rule Rule, logger *observability.Logger, healthAddr string) *LocalServer {
	s := &LocalServer{
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
		health: health.NewServer(healthAddr, "local-dev"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.connect = middleware.Chain(handlers.NewConnectHandler(store, rule, nil).Handle, middleware.Logging(logger))
	s.disconnect = middleware.Chain(handlers.NewDisconnectHandler(store, rule).Handle, middleware.Logging(logger))

	s.health.RegisterChecker("store", health.StoreChecker(store.ExistsAny))
	s.health.RegisterChecker("rule", health.RuleChecker(rule.State))
	s.health.SetMetricsSource(s.counters)
	return s
}

func (s *LocalServer) counters() map[string]int64 {
	return map[string]int64{
		"ConnectionsActive":                   s.active.Load(),
		observability.MetricConnectionsNew:    s.connected.Load(),
		observability.MetricConnectionsClosed: s.disconnected.Load(),
		observability.MetricInvalidRequests:   s.rejected.Load(),
	}
}

func gatewayEvent(r *http.Request, connID, eventType, routeKey string) events.APIGatewayWebsocketProxyRequest {
	now := time.Now()
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			ConnectionID:     connID,
			EventType:        eventType,
			RouteKey:         routeKey,
			Stage:            localStage,
			DomainName:       r.Host,
			RequestTimeEpoch: now.UnixMilli(),
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}
}

func (s *LocalServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.begin() {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.inflight.Done()

	connID := uuid.NewString()
	ctx := observability.WithConnectionID(r.Context(), connID)

	// API Gateway runs $connect before completing the handshake
	resp, err := s.connect(ctx, gatewayEvent(r, connID, "CONNECT", "$connect"))
	if err != nil {
		s.logger.Error(ctx, "Connect handler failed", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if resp.StatusCode != http.StatusOK {
		s.rejected.Add(1)
		http.Error(w, resp.Body, resp.StatusCode)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(ctx, "WebSocket upgrade failed", err)
		s.runDisconnect(r, connID)
		return
	}
	s.connected.Add(1)
	s.active.Add(1)
	s.attach(conn)

	defer func() {
		s.detach(conn)
		conn.Close()
		s.active.Add(-1)
		s.runDisconnect(r, connID)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(ctx, "WebSocket read error", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		// Message routing is not handled by the listener
		s.logger.Debug(ctx, "Ignoring client message", map[string]interface{}{"size": len(message)})
	}
}

// begin registers an in-flight handler. It fails once shutdown has started.
func (s *LocalServer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *LocalServer) attach(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		// Upgraded after closeConnections ran
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
}

func (s *LocalServer) detach(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// closeConnections sends a going-away close frame to every open socket and
// closes it. http.Server.Shutdown leaves hijacked connections alone.
func (s *LocalServer) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		conn.Close()
	}
}

// runDisconnect uses a fresh context: the request context is already done
// once the client has gone away.
func (s *LocalServer) runDisconnect(r *http.Request, connID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = observability.WithConnectionID(ctx, connID)

	if _, err := s.disconnect(ctx, gatewayEvent(r, connID, "DISCONNECT", "$disconnect")); err != nil {
		s.logger.Error(ctx, "Disconnect handler failed", err)
		return
	}
	s.disconnected.Add(1)
}

// Routes returns the WebSocket and index routes
func (s *LocalServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "WebSocket endpoint: ws://%s/ws\n", r.Host)
	})
	return mux
}

// Run serves until ctx is cancelled. On shutdown every open socket is closed
// and Run returns only after their $disconnect handlers have finished.
func (s *LocalServer) Run(ctx context.Context, wsAddr string) error {
	go func() {
		if err := s.health.Start(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(ctx, "Health server error", err)
		}
	}()

	wsServer := &http.Server{
		Addr:    wsAddr,
		Handler: s.Routes(),
	}

	s.logger.Info(ctx, "Local development server started", map[string]interface{}{
		"websocket_addr": wsAddr,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- wsServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Shutting down servers...")
	s.health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "WebSocket server shutdown incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.closeConnections()
	s.inflight.Wait()

	if err := s.health.Stop(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "Health server shutdown incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return <-serveErr
}
