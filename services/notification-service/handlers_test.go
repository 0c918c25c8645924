package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/queue"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var secret = []byte("test-secret")

func sign(t *testing.T, id, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.UserClaims{
		UserID: id,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)
	return token
}

func startServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := &server{hub: hub, logger: zap.NewNop(), jwtSecret: secret, heartbeat: time.Hour}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts, hub
}

// dataLine returns the payload of the next "data:" line.
func dataLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestSubscribeRequiresValidToken(t *testing.T) {
	ts, _ := startServer(t)

	resp, err := http.Get(ts.URL + "/notifications/subscribe")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/notifications/subscribe?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubscribeStreamsEvents(t *testing.T) {
	ts, hub := startServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/notifications/subscribe", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sign(t, "a-1", middleware.RoleAdmin))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Contains(t, dataLine(t, reader), "connected")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(Message{Type: queue.KeyNotificationCreated, Data: json.RawMessage(`{"message":"Tugas baru"}`)})

	var got Message
	require.NoError(t, json.Unmarshal([]byte(dataLine(t, reader)), &got))
	assert.Equal(t, queue.KeyNotificationCreated, got.Type)
	assert.JSONEq(t, `{"message":"Tugas baru"}`, string(got.Data))
}

func TestHealth(t *testing.T) {
	ts, _ := startServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
