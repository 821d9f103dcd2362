package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventdesk/backend/internal/identity"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/model/chat"
	chatservice "github.com/eventdesk/backend/internal/service/chat"
	"github.com/eventdesk/backend/internal/service/support"
	"github.com/eventdesk/backend/pkg/utils"
)

// Visitor-facing text used when the reply generator is down. The raw
// upstream error never leaves the server.
const assistantDownMessage = "Az asszisztens most nem elérhető. Kérlek, küldd el az üzeneted újra."

// Handler serves the visitor side of the helpdesk: identity resolution,
// sending a message, polling history.
type Handler struct {
	resolver   *identity.Resolver
	ledger     *chatservice.Service
	supportSvc *support.Service
}

// New creates the visitor chat handler.
func New(resolver *identity.Resolver, ledger *chatservice.Service, supportSvc *support.Service) *Handler {
	return &Handler{resolver: resolver, ledger: ledger, supportSvc: supportSvc}
}

// RegisterRoutes mounts the visitor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/session", h.handleResolveSession)
	r.Post("/chat/send", h.handleSend)
	r.Get("/chat/history/{sessionID}", h.handleHistory)
}

// handleResolveSession returns the caller's stable session key. A fresh
// guest token is allocated when the visitor presents none; the client
// must persist it for reuse across visits.
func (h *Handler) handleResolveSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		GuestToken string `json:"guestToken"`
	}
	if r.Body != nil {
		// An empty body is a valid first visit.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	var principalName string
	if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
		principalName = principal.Name
	}

	sessionID, allocated := h.resolver.Resolve(r.Context(), principalName, payload.GuestToken)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"allocated": allocated,
	})
}

// handleSend runs one visitor turn.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var principalName string
	if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
		principalName = principal.Name
	}
	sessionID, allocated := h.resolver.Resolve(r.Context(), principalName, payload.SessionID)

	result, err := h.supportSvc.HandleUserTurn(r.Context(), sessionID, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, chatservice.ErrEmptyText):
			utils.RespondError(w, http.StatusBadRequest, "message text is required")
		case errors.Is(err, support.ErrAssistantUnavailable):
			utils.RespondError(w, http.StatusBadGateway, assistantDownMessage)
		default:
			utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"allocated": allocated,
		"status":    result.Status,
		"reply":     result.Reply,
		"messages":  result.Messages,
	})
}

// handleHistory returns the full ordered ledger for one session. An
// unknown session yields an empty list: widgets poll before the first
// message exists.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	if !h.mayReadSession(r, sessionID) {
		utils.RespondError(w, http.StatusForbidden, "not your session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.ledger.History(r.Context(), sessionID))
}

// mayReadSession enforces session ownership. Knowing a guest token is
// the capability to read that guest session; named sessions require the
// matching principal or an operator.
func (h *Handler) mayReadSession(r *http.Request, sessionID string) bool {
	if chat.IsGuest(sessionID) {
		return true
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return false
	}
	return principal.Name == sessionID || principal.IsOperator()
}
