package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByTokenIdentifier(_ context.Context, tokenIdentifier string) (*models.User, error) {
	if u, ok := f[tokenIdentifier]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func setupHub(t *testing.T) (*Hub, *auth.JWTManager, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("secret", "issuer", time.Hour)
	users := fakeUsers{
		"issuer|alice": {ID: "user-alice", Name: "Alice"},
	}

	hub := NewHub(logger)
	server := httptest.NewServer(NewHandler(hub, jwtManager, users, logger))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return hub, jwtManager, "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitOnline(t *testing.T, hub *Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.IsOnline(userID) }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishActivity(t *testing.T) {
	hub, jwtManager, url := setupHub(t)

	token, err := jwtManager.Generate(auth.Identity{Subject: "alice"})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitOnline(t, hub, "user-alice")

	hub.PublishActivity([]string{"user-alice", "user-offline"}, api.AuditLog{
		ID:        "log-1",
		ExpenseID: "exp-1",
		Action:    "create",
		Changes:   []models.FieldChange{},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string       `json:"type"`
		Data api.AuditLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "activity", msg.Type)
	assert.Equal(t, "log-1", msg.Data.ID)
	assert.Equal(t, "exp-1", msg.Data.ExpenseID)
}

func TestHandlerRejectsBadTokens(t *testing.T) {
	_, jwtManager, url := setupHub(t)

	unknown, err := jwtManager.Generate(auth.Identity{Subject: "mallory"})
	require.NoError(t, err)

	for name, query := range map[string]string{
		"missing": "",
		"invalid": "?token=garbage",
		"unknown": "?token=" + unknown,
	} {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestReconnectReplacesConnection(t *testing.T) {
	hub, jwtManager, url := setupHub(t)

	token, err := jwtManager.Generate(auth.Identity{Subject: "alice"})
	require.NoError(t, err)

	first, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer first.Close()
	waitOnline(t, hub, "user-alice")

	second, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer second.Close()

	// The first connection is closed by the hub once the second registers.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = first.ReadMessage()
	require.Error(t, err)

	waitOnline(t, hub, "user-alice")
	require.NoError(t, hub.SendToUser("user-alice", Message{Type: "ping"}))

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data))
}

func TestSendToOfflineUser(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, hub.IsOnline("nobody"))
	assert.Error(t, hub.SendToUser("nobody", Message{Type: "activity"}))
}
