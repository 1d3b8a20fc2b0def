// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/middleware"
	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	subprotocol  = "impostor"
	readLimit    = 4096
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	// maxStrikes is how many rate-limited frames in a row a client may send before it is closed.
	maxStrikes = 50
)

// ActionHandler is what the socket feeds decoded actions into. room.Service implements it.
type ActionHandler interface {
	Handle(connID string, a protocol.Action) error
	Disconnect(connID string)
}

// WSHandler upgrades /ws requests and pumps frames between the socket and the game service.
type WSHandler struct {
	svc   ActionHandler
	hub   *Hub
	log   logrus.FieldLogger
	limit rate.Limit
	burst int

	closeOnce sync.Once
	done      chan struct{}
}

// NewWSHandler builds the socket handler. perSecond and burst configure the per-connection
// action limiter; perSecond <= 0 disables it.
func NewWSHandler(svc ActionHandler, hub *Hub, log logrus.FieldLogger, perSecond float64, burst int) *WSHandler {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &WSHandler{
		svc:   svc,
		hub:   hub,
		log:   log,
		limit: limit,
		burst: burst,
		done:  make(chan struct{}),
	}
}

// Shutdown closes every open socket with ShuttingDownError. http.Server.Shutdown does not
// touch hijacked connections, so the server calls this first.
func (h *WSHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != subprotocol {
		c.Close(BadSubprotocolError, "client must speak the impostor subprotocol")
		return
	}
	c.SetReadLimit(readLimit)

	connID := uuid.NewString()
	client := h.hub.Register(connID)
	middleware.LogWebSocketConnect(h.log, connID, r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.hub.ToConn(connID, protocol.Connected{ID: connID})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(ctx, c, client)
	}()

	readErr := h.readPump(ctx, c, connID)

	cancel()
	wg.Wait()
	h.svc.Disconnect(connID)
	h.hub.Unregister(connID)
	middleware.LogWebSocketDisconnect(h.log, connID, r.RemoteAddr, readErr)

	c.Close(websocket.StatusNormalClosure, "")
}

// readPump decodes frames and hands them to the service until the socket closes. It returns
// the read error unless the close was a normal one.
func (h *WSHandler) readPump(ctx context.Context, c *websocket.Conn, connID string) error {
	log := h.log.WithField("conn", connID)
	limiter := rate.NewLimiter(h.limit, h.burst)
	strikes := 0

	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		if !limiter.Allow() {
			strikes++
			if strikes >= maxStrikes {
				log.Warn("closing connection after repeated rate limiting")
				c.Close(RateLimitedError, "too many messages")
				return nil
			}
			h.hub.ToConn(connID, protocol.Error{Code: codeRateLimited, Message: "too many messages, slow down"})
			continue
		}
		strikes = 0

		action, err := protocol.DecodeAction(msg)
		if err != nil {
			log.Debugf("bad frame: %v", err)
			h.hub.ToConn(connID, protocol.Error{Code: codeBadRequest, Message: err.Error()})
			continue
		}

		if err := h.svc.Handle(connID, action); err != nil {
			log.WithField("action", action.ActionType()).Debugf("rejected: %v", err)
		}
	}
}

// writePump drains the client's queue onto the socket and keeps it alive with pings.
func (h *WSHandler) writePump(ctx context.Context, c *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	log := h.log.WithField("conn", client.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			c.Close(ShuttingDownError, "server shutting down")
			return
		case frame := <-client.Send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				log.Warnf("failed to write to websocket: %v", err)
				c.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed: %v", err)
				c.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
