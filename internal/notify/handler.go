package notify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/models"
)

// TokenValidator validates identity tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// UserResolver maps a token identifier to a user.
type UserResolver interface {
	GetUserByTokenIdentifier(ctx context.Context, tokenIdentifier string) (*models.User, error)
}

// Handler upgrades authenticated requests and registers them with a Hub.
type Handler struct {
	hub       *Hub
	validator TokenValidator
	users     UserResolver
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewHandler creates the websocket endpoint. The token is read from the
// "token" query parameter since browsers cannot set headers on upgrades.
func NewHandler(hub *Hub, validator TokenValidator, users UserResolver, logger *slog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		validator: validator,
		users:     users,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.validator.Validate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByTokenIdentifier(r.Context(), claims.Identity().TokenIdentifier())
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	h.hub.Register(user.ID, conn)
	defer h.hub.Unregister(user.ID, conn)

	// Clients only listen; reading keeps control frames flowing and notices
	// the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket error", "user_id", user.ID, "error", err)
			}
			return
		}
	}
}
