package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToTargetsOneAccount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.URL.Query().Get("account"))
		hub.Upgrade(w, r, uint(id))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	alice, _, err := websocket.DefaultDialer.Dial(url+"?account=1", nil)
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := websocket.DefaultDialer.Dial(url+"?account=2", nil)
	require.NoError(t, err)
	defer bob.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	assert.True(t, hub.SendTo(1, []byte(`{"event":"payment.settled"}`)))

	_ = alice.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := alice.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"payment.settled"}`, string(msg))

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}
