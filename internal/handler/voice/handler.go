package voice

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eventdesk/backend/internal/identity"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/service/support"
	voicesvc "github.com/eventdesk/backend/internal/service/voice"
	"github.com/eventdesk/backend/pkg/utils"
)

const voiceDownMessage = "A hangüzenet feldolgozása nem sikerült. Kérlek, próbáld újra."

// Handler accepts one recorded audio blob per request and runs it
// through the voice pipeline.
type Handler struct {
	resolver *identity.Resolver
	pipeline *voicesvc.Pipeline
}

// New creates the voice handler.
func New(resolver *identity.Resolver, pipeline *voicesvc.Pipeline) *Handler {
	return &Handler{resolver: resolver, pipeline: pipeline}
}

// RegisterRoutes mounts the voice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/voice/process", h.handleProcess)
}

// handleProcess expects a multipart form with an "audio" file plus
// sessionId and optional language fields, and answers with transcript,
// reply text and base64 reply audio.
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}

	var principalName string
	if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
		principalName = principal.Name
	}
	sessionID, _ := h.resolver.Resolve(r.Context(), principalName, r.FormValue("sessionId"))

	result, err := h.pipeline.ProcessTurn(r.Context(), sessionID, audio, inferAudioFormat(header.Filename), r.FormValue("language"))
	if err != nil {
		switch {
		case errors.Is(err, voicesvc.ErrEmptyAudio):
			utils.RespondError(w, http.StatusBadRequest, "audio payload is empty")
		case errors.Is(err, voicesvc.ErrTranscriptionFailed), errors.Is(err, support.ErrAssistantUnavailable):
			log.Printf("[voice] turn failed for session=%s: %v", sessionID, err)
			utils.RespondError(w, http.StatusBadGateway, voiceDownMessage)
		default:
			log.Printf("[voice] unexpected error for session=%s: %v", sessionID, err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to process voice message")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

// inferAudioFormat maps the uploaded filename to a provider format.
func inferAudioFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".m4a":
		return "m4a"
	case ".aac":
		return "aac"
	default:
		// Browser MediaRecorder uploads arrive as webm.
		return "webm"
	}
}
