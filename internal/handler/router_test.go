package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventdesk/backend/internal/identity"
	middlewarePkg "github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/service/ai"
	chatService "github.com/eventdesk/backend/internal/service/chat"
	supportService "github.com/eventdesk/backend/internal/service/support"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	ledger := chatService.NewService()
	resolver := identity.NewResolver(ledger)
	supportSvc := supportService.NewService(ledger, ai.NewFallback())

	return NewRouter(middlewarePkg.NewAuth(testSecret), resolver, ledger, supportSvc, nil)
}

func mintToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestOperatorSurfaceGuard(t *testing.T) {
	router := newTestServer(t)

	// Anonymous caller gets 401.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/support-requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	// Authenticated visitor without the operator role gets 403.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/support-requests", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "kata", ""))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("visitor: status = %d, want 403", rec.Code)
	}

	// Operator passes.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/support-requests", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "ops", middlewarePkg.RoleOperator))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("operator: status = %d, want 200", rec.Code)
	}
}

func TestVisitorSurfaceIsOpen(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without any credentials", rec.Code)
	}
}

func TestVoiceRouteWithoutPipelineReportsUnavailable(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/voice/process", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPreflightRequestShortCircuits(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/send", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS headers on preflight")
	}
}
