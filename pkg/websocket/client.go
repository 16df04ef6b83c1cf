package websocket

import (
	"context"
	"sync"
	"time"

	"carrental/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait             = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 4096
	defaultSendBuffer     = 256
)

// FrameProcessor handles one inbound text frame and returns the reply for
// the originating session, or nil when there is nothing to reply.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, identity string, frame []byte) []byte
}

// Client is one live session. Outbound frames go through a buffered queue
// drained by writePump, so producers never block on the network.
type Client struct {
	ID       string
	Identity string

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, identity string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Client{
		ID:       uuid.NewString(),
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// Enqueue queues payload without blocking. It returns false when the session
// is closed or its queue is full.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close stops the write loop, which sends a close frame and releases the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

type pumpConfig struct {
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
}

// readPump processes frames strictly in arrival order. It returns when the
// peer goes away or the session is closed.
func (c *Client) readPump(ctx context.Context, cfg pumpConfig, processor FrameProcessor, log *logger.Logger) {
	defer c.Close()

	c.conn.SetReadLimit(cfg.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.WithError(err).Warn("WebSocket read failed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if reply := processor.ProcessFrame(ctx, c.Identity, frame); reply != nil {
			if !c.Enqueue(reply) {
				log.Warn("Reply dropped, session queue unavailable")
				return
			}
		}
	}
}

func (c *Client) writePump(cfg pumpConfig, log *logger.Logger) {
	ticker := time.NewTicker(cfg.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithError(err).Debug("WebSocket write failed")
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}
