package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	adminHandler "github.com/eventdesk/backend/internal/handler/admin"
	chatHandler "github.com/eventdesk/backend/internal/handler/chat"
	voiceHandler "github.com/eventdesk/backend/internal/handler/voice"
	"github.com/eventdesk/backend/internal/identity"
	middlewarePkg "github.com/eventdesk/backend/internal/middleware"
	chatService "github.com/eventdesk/backend/internal/service/chat"
	supportService "github.com/eventdesk/backend/internal/service/support"
	voiceService "github.com/eventdesk/backend/internal/service/voice"
	"github.com/eventdesk/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. pipeline may be nil when
// the speech provider is not configured; the voice route then reports
// unavailable instead of disappearing.
func NewRouter(
	auth *middlewarePkg.Auth,
	resolver *identity.Resolver,
	ledger *chatService.Service,
	supportSvc *supportService.Service,
	pipeline *voiceService.Pipeline,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(auth.Authenticate)

	visitor := chatHandler.New(resolver, ledger, supportSvc)
	operator := adminHandler.New(ledger, supportSvc)

	r.Route("/api", func(api chi.Router) {
		visitor.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.RequireOperator)
			operator.RegisterRoutes(protected)
		})

		if pipeline != nil {
			voiceHandler.New(resolver, pipeline).RegisterRoutes(api)
		} else {
			api.Post("/voice/process", func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "voice processing unavailable")
			})
		}
	})

	return r
}
