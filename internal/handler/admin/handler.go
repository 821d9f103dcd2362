package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/eventdesk/backend/internal/service/chat"
	"github.com/eventdesk/backend/internal/service/support"
	"github.com/eventdesk/backend/pkg/utils"
)

// Handler serves the operator console: the support queue, any session's
// transcript, replying, and resolving. The router mounts it behind the
// operator guard.
type Handler struct {
	ledger     *chatservice.Service
	supportSvc *support.Service
}

// New creates the operator handler.
func New(ledger *chatservice.Service, supportSvc *support.Service) *Handler {
	return &Handler{ledger: ledger, supportSvc: supportSvc}
}

// RegisterRoutes mounts the operator routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/support-requests", h.handleQueue)
	r.Get("/admin/chat/{sessionID}", h.handleHistory)
	r.Post("/admin/reply", h.handleReply)
	r.Post("/admin/resolve", h.handleResolve)
}

// handleQueue lists every session with at least one message, flagged
// ones distinguishable, most recently active first.
func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ledger.ListActive(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.ledger.History(r.Context(), sessionID))
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TargetSessionID string `json:"targetSessionId"`
		Message         string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.supportSvc.OperatorReply(r.Context(), payload.TargetSessionID, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, chatservice.ErrSessionRequired):
			utils.RespondError(w, http.StatusBadRequest, "targetSessionId is required")
		case errors.Is(err, chatservice.ErrEmptyText):
			utils.RespondError(w, http.StatusBadRequest, "message text is required")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "failed to send reply")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "sent",
		"message": msg,
	})
}

// handleResolve hands the session back to the assistant. Resolving an
// already-resolved session reports resolved=false and is not an error.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TargetSessionID string `json:"targetSessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := h.supportSvc.Resolve(r.Context(), payload.TargetSessionID)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionRequired) {
			utils.RespondError(w, http.StatusBadRequest, "targetSessionId is required")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":   "resolved",
		"resolved": changed,
	})
}
