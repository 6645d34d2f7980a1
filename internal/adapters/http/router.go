package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/peerline/peerchat/internal/adapters/ws"
	"github.com/peerline/peerchat/internal/app"
	"github.com/peerline/peerchat/internal/config"
	"github.com/peerline/peerchat/internal/domain"
)

// ClientTokenMiddleware gives every browser a stable token in its
// session cookie; it identifies a client across sockets in the logs,
// not a connection.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set("ct", token)
			_ = sess.Save()
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, store *app.RoomStore, ctrl *ws.Controller, summarizer *app.Summarizer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if cfg.AllowedOrigin == "" || cfg.AllowedOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.AllowedOrigin}
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	sessStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PeerchatSessions", sessStore))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Str("origin", cfg.AllowedOrigin).Msg("router setup")

	r.GET("/summary/:room", func(c *gin.Context) {
		room := domain.RoomID(c.Param("room"))
		if !store.RoomExists(room) {
			c.JSON(http.StatusNotFound, gin.H{"summary": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summarizer.Summarize(c.Request.Context(), room)})
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": store.Rooms()})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleWS(ctx, c)
	})

	return r
}
