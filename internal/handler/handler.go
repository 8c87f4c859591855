package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/hub"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/service"
)

// WebsocketHandler is the HTTP face of the relay: it gates handshakes,
// upgrades accepted connections and hands them to the hub.
type WebsocketHandler struct {
	hub      *hub.Hub
	verifier service.IIdentityVerifier
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewWebsocketHandler creates a new WebsocketHandler. An empty origin list
// allows every origin (development mode).
func NewWebsocketHandler(h *hub.Hub, verifier service.IIdentityVerifier, allowedOrigins []string, log *slog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:      h,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// HandleConnection handles GET /ws. The claimed identity arrives as the
// `identity` query parameter; it is validated and normalized before the
// upgrade, so a rejected handshake never touches the registry.
func (h *WebsocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(r.URL.Query().Get("identity"))
	if identity == "" {
		http.Error(w, hub.ErrInvalidIdentity.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(r.Context(), identity); err != nil {
		h.log.Warn("identity rejected", "identity", identity, "error", err)
		http.Error(w, "Identity rejected", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.hub.HandleNewClient(conn, identity)
}

// HandleHealth handles GET /healthz with the current connection count and
// presence snapshot.
func (h *WebsocketHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	users := h.hub.OnlineIdentities()
	if users == nil {
		users = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"connections": h.hub.ConnectionCount(),
		"users":       users,
	})
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		return allowed[strings.TrimRight(origin, "/")]
	}
}
