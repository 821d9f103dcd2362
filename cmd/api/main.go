package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/handler"
	"github.com/eventdesk/backend/internal/identity"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/service/ai"
	chatservice "github.com/eventdesk/backend/internal/service/chat"
	speechservice "github.com/eventdesk/backend/internal/service/speech"
	"github.com/eventdesk/backend/internal/service/support"
	voiceservice "github.com/eventdesk/backend/internal/service/voice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ledger := chatservice.NewService()
	resolver := identity.NewResolver(ledger)

	// Automated responder: Ark model when configured, canned fallback
	// otherwise so the helpdesk keeps working without credentials.
	var responder support.Responder
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with the canned fallback responder")
			responder = ai.NewFallback()
		} else {
			log.Println("AI responder initialized successfully")
			responder = aiService
		}
	} else {
		log.Println("Ark credentials not configured, using the canned fallback responder")
		responder = ai.NewFallback()
	}

	supportSvc := support.NewService(ledger, responder)

	var pipeline *voiceservice.Pipeline
	if cfg.Speech.Enabled() {
		speechSvc := speechservice.NewService(cfg.Speech.ProviderConfig())
		pipeline = voiceservice.NewPipeline(speechSvc, speechSvc, supportSvc)
		log.Println("voice pipeline initialized successfully")
	} else {
		log.Println("speech provider credentials not configured, voice processing disabled")
	}

	auth := middleware.NewAuth(cfg.Auth.JWTSecret)
	if !cfg.Auth.Enabled() {
		log.Println("warning: AUTH_JWT_SECRET not set, all callers are anonymous and operator endpoints are unreachable")
	}

	router := handler.NewRouter(auth, resolver, ledger, supportSvc, pipeline)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Eventdesk helpdesk backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
