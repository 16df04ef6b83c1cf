package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// identityKey is the gin context key the auth middleware stores the caller's
// identity under.
const identityKey = "user_id"

// IdentityVerifier reports whether identity belongs to a known user.
type IdentityVerifier interface {
	IdentityExists(ctx context.Context, identity string) (bool, error)
}

type HandlerConfig struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	MaxMessageSize    int64
	SendBufferSize    int
	EnableCompression bool
	AllowedOrigins    []string
}

type Handler struct {
	registry   *Registry
	processor  FrameProcessor
	verifier   IdentityVerifier
	upgrader   websocket.Upgrader
	pump       pumpConfig
	sendBuffer int
	logger     *logger.Logger
}

func NewHandler(registry *Registry, processor FrameProcessor, verifier IdentityVerifier, cfg HandlerConfig, log *logger.Logger) *Handler {
	pongWait := cfg.PongTimeout
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	pingPeriod := cfg.PingInterval
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = (pongWait * 9) / 10
	}
	maxMessageSize := cfg.MaxMessageSize
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}

	return &Handler{
		registry:  registry,
		processor: processor,
		verifier:  verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin:       originChecker(cfg.AllowedOrigins),
		},
		pump: pumpConfig{
			pongWait:       pongWait,
			pingPeriod:     pingPeriod,
			maxMessageSize: maxMessageSize,
		},
		sendBuffer: cfg.SendBufferSize,
		logger:     log,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	identity := c.GetString(identityKey)
	if identity == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	known, err := h.verifier.IdentityExists(c.Request.Context(), identity)
	if err != nil {
		h.logger.WithError(err).WithUserID(identity).Error("Failed to verify websocket identity")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	if !known {
		closeWithCode(conn, websocket.ClosePolicyViolation, "unknown user")
		return
	}

	client := NewClient(conn, identity, h.sendBuffer)
	if err := h.registry.Register(identity, client); err != nil {
		closeWithCode(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}

	log := h.logger.WithUserID(identity).WithField("session_id", client.ID)
	log.WithField("active_sessions", h.registry.SessionCount()).Info("WebSocket session opened")

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), logger.IdentityKey, identity))

	go client.writePump(h.pump, log)
	go func() {
		defer func() {
			cancel()
			h.registry.Unregister(identity, client)
			log.Info("WebSocket session closed")
		}()
		client.readPump(ctx, h.pump, h.processor, log)
	}()
}

func closeWithCode(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait),
	)
	_ = conn.Close()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		set[strings.ToLower(origin)] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
