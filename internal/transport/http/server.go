package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomcast/internal/config"
	"github.com/vovakirdan/roomcast/internal/core"
)

// Pinger reports whether the durable store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds an HTTP server with the chat routes. The WebSocket route
// stays outside gin, whose writer cannot be hijacked after the upgrade flushes
// its headers.
func NewServer(
	handler *core.Handler,
	authenticator core.Authenticator,
	db Pinger,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler(db, logger))

	ws := NewWSHandler(handler, WSOptions{
		AllowedOrigins:     cfg.AllowedOrigins,
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)
	messages := NewMessageHandlers(handler, logger)

	api := router.Group("/api/v1/messages")
	api.PUT("/:id/read", AuthMiddleware(authenticator, logger), messages.MarkRead)

	mux := stdhttp.NewServeMux()
	mux.Handle("GET /api/v1/messages/ws/{room_id}", ws)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(db Pinger, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("health check: store unreachable")
			c.String(stdhttp.StatusServiceUnavailable, "unavailable")
			return
		}
		c.String(stdhttp.StatusOK, "ok")
	}
}
