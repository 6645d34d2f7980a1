// Package ws adapts the event router to a gorilla/websocket transport:
// one read pump and one write pump per connection, fan-out through a
// shared connection table.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/app"
	"github.com/peerline/peerchat/internal/config"
	"github.com/peerline/peerchat/internal/domain"
)

const (
	writeWait = 5 * time.Second

	messageRateLimit  = 20
	messageRateWindow = 10 * time.Second
)

type Controller struct {
	router *app.Router
	cfg    *config.Config
	limit  *rateLimiter

	mu    sync.RWMutex
	conns map[domain.ConnID]*wsConn
}

func NewController(router *app.Router, cfg *config.Config) *Controller {
	return &Controller{
		router: router,
		cfg:    cfg,
		limit:  newRateLimiter(messageRateLimit, messageRateWindow),
		conns:  make(map[domain.ConnID]*wsConn),
	}
}

func (ctl *Controller) upgrader() websocket.Upgrader {
	allowed := ctl.cfg.AllowedOrigin
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowed == "" || allowed == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowed
		},
	}
}

// HandleWS upgrades the request and runs the connection until the
// socket dies. Each socket gets a fresh connection id; reconnects start
// unjoined.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	connID := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "adapters.ws").Str("conn", string(connID)).Str("sid", c.GetString("client_token")).Msg("new WS connection")

	up := ctl.upgrader()
	sock, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	if ctl.cfg.ReadLimit > 0 {
		sock.SetReadLimit(ctl.cfg.ReadLimit)
	}

	conn := newWSConn(sock)
	ctl.mu.Lock()
	ctl.conns[connID] = conn
	ctl.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, connID, conn)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	period := ctl.cfg.PingPeriod
	if period <= 0 {
		period = 54 * time.Second
	}
	ping := time.NewTicker(period)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, connID domain.ConnID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("conn", string(connID)).Msg("readPump closing")
		ctl.mu.Lock()
		delete(ctl.conns, connID)
		ctl.mu.Unlock()
		ctl.limit.Forget(connID)
		ctl.deliver(ctl.router.Disconnect(connID))
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("conn", string(connID)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(connID, c, data)
		}
	}
}

// handleEvent decodes one inbound frame and dispatches it to the
// router. Malformed frames are dropped, never fatal to the connection.
func (ctl *Controller) handleEvent(connID domain.ConnID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("conn", string(connID)).Msg("bad json")
		return
	}

	switch env.Type {
	case app.EventJoinRoom:
		var p struct {
			Room string `json:"room"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "adapters.ws").Msg("bad join payload")
			return
		}
		ctl.deliver(ctl.router.Join(connID, domain.RoomID(p.Room), p.Name))
	case app.EventChatMessage:
		var p struct {
			Room    string `json:"room"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Str("module", "adapters.ws").Msg("bad message payload")
			return
		}
		if !ctl.limit.Allow(connID) {
			ctl.sendJSON(c, app.SystemPayload{
				Type:      app.EventSystemMessage,
				Message:   "you are sending messages too quickly, slow down",
				Timestamp: time.Now().UTC(),
				Code:      app.CodeRateLimited,
			})
			return
		}
		ctl.deliver(ctl.router.Message(connID, domain.RoomID(p.Room), p.Message))
	case app.EventLeaveRoom:
		ctl.deliver(ctl.router.Leave(connID))
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown event")
	}
}

// deliver fans router output out to live sockets. Recipients that went
// away between routing and delivery are skipped.
func (ctl *Controller) deliver(outs []app.Outbound) {
	for _, out := range outs {
		b, err := json.Marshal(out.Payload)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.ws").Msg("marshal outbound")
			continue
		}
		for _, id := range out.To {
			ctl.mu.RLock()
			conn, ok := ctl.conns[id]
			ctl.mu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.TrySend(b); err != nil {
				log.Warn().Err(err).Str("module", "adapters.ws").Str("conn", string(id)).Msg("dropped outbound")
			}
		}
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
