package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
)

// Verifier turns a bearer token into an identity
type Verifier interface {
	Verify(token string) (model.Identity, error)
}

// Handler upgrades /ws requests and runs one Client per connection
type Handler struct {
	verifier   Verifier
	dispatcher *Dispatcher
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
}

// NewHandler creates a websocket Handler
func NewHandler(verifier Verifier, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the frontend origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
	}
}

// ServeHTTP upgrades the request, then authenticates with the token query
// parameter. Unauthenticated sockets are closed before any message is read.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("error_type", string(model.ErrorTypeWebsocket)),
			slog.Any("error", err))
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.logger.Info("connection without token closed")
		closeFrame(conn, protocol.CloseNormal, "")
		_ = conn.Close()
		return
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("connection rejected",
			slog.String("error_type", string(model.ErrorTypeAuthentication)),
			slog.String("error", err.Error()))
		closeFrame(conn, protocol.ClosePolicyViolation, protocol.CloseReasonUnauthorized)
		_ = conn.Close()
		return
	}

	client := NewClient(conn, identity, h.logger)
	h.track(client)
	defer h.untrack(client)

	go client.writePump()
	h.dispatcher.Connect(client)

	// Hijacked connections outlive the request context
	ctx := context.WithoutCancel(r.Context())
	client.readPump(func(data []byte) {
		h.dispatcher.Dispatch(ctx, client, data)
	})
	h.dispatcher.Disconnect(client)
}

func (h *Handler) track(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.wg.Add(1)
}

func (h *Handler) untrack(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	h.wg.Done()
}

// ClientCount returns the number of open sockets
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every socket with a going-away frame and waits for their
// cleanup to finish or ctx to expire
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
