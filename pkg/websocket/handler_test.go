package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownUsers map[string]bool

func (k knownUsers) IdentityExists(_ context.Context, identity string) (bool, error) {
	if identity == "broken@example.com" {
		return false, errors.New("store unavailable")
	}
	return k[identity], nil
}

type echoProcessor struct{}

func (echoProcessor) ProcessFrame(_ context.Context, identity string, frame []byte) []byte {
	return []byte(identity + ":" + strings.ToUpper(string(frame)))
}

func setupServer(t *testing.T) (*httptest.Server, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := newTestRegistry()
	handler := NewHandler(registry, echoProcessor{}, knownUsers{"alice@example.com": true}, HandlerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PongTimeout:     5 * time.Second,
	}, logger.NewNop())

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		if as := c.Query("as"); as != "" {
			c.Set("user_id", as)
		}
		c.Next()
	}, handler.HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
	})
	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server, identity string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=" + identity
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandler_UnknownIdentityClosedWithPolicyViolation(t *testing.T) {
	srv, registry := setupServer(t)
	conn := dial(t, srv, "mallory@example.com")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Empty(t, registry.ConnectedIdentities())
}

func TestHandler_MissingIdentityRejectedBeforeUpgrade(t *testing.T) {
	srv, _ := setupServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandler_VerifierErrorIsInternal(t *testing.T) {
	srv, _ := setupServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=broken@example.com"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHandler_FramesAreProcessedInOrder(t *testing.T) {
	srv, registry := setupServer(t)
	conn := dial(t, srv, "alice@example.com")

	require.Eventually(t, func() bool {
		return registry.IsConnected("alice@example.com")
	}, 2*time.Second, 10*time.Millisecond)

	for _, frame := range []string{"one", "two", "three"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"ONE", "TWO", "THREE"} {
		_, got, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com:"+want, string(got))
	}
}

func TestHandler_DeliverPushesToLiveSession(t *testing.T) {
	srv, registry := setupServer(t)
	conn := dial(t, srv, "alice@example.com")

	require.Eventually(t, func() bool {
		return registry.IsConnected("alice@example.com")
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, registry.Deliver("alice@example.com", []byte(`{"text":"hello"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello"}`, string(got))
}

func TestHandler_DisconnectUnregisters(t *testing.T) {
	srv, registry := setupServer(t)
	conn := dial(t, srv, "alice@example.com")

	require.Eventually(t, func() bool {
		return registry.IsConnected("alice@example.com")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	assert.Eventually(t, func() bool {
		return !registry.IsConnected("alice@example.com")
	}, 2*time.Second, 10*time.Millisecond)
}
