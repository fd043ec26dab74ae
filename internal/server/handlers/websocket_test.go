package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu           sync.Mutex
	subject      string
	handler      func([]byte)
	unsubscribed bool
	err          error
}

func (f *fakeSubscriber) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subject = subject
	f.handler = handler
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed = true
		return nil
	}, nil
}

func (f *fakeSubscriber) publish(data []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(data)
}

func (f *fakeSubscriber) isUnsubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

func dialTrending(t *testing.T, sub Subscriber) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(TrendingWebSocketHandler(sub, "trending.updated"))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return conn
}

func TestTrendingWebSocket_RelaysUpdates(t *testing.T) {
	sub := &fakeSubscriber{}
	conn := dialTrending(t, sub)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var welcome map[string]any
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome["type"])
	assert.Equal(t, "trending.updated", welcome["subject"])

	sub.publish([]byte(`{"contentId":"a","label":"on_fire"}`))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg, &evt))
	assert.Equal(t, "a", evt["contentId"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, sub.isUnsubscribed, 2*time.Second, 10*time.Millisecond)
}

func TestTrendingWebSocket_SubscribeFailureClosesConnection(t *testing.T) {
	conn := dialTrending(t, &fakeSubscriber{err: errors.New("nats down")})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
