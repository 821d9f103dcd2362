package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eventdesk/backend/internal/model/chat"
)

func TestResolveSessionAllocatesGuest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/session" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sessionId": "guest_abc123",
			"allocated": true,
		})
	}))
	defer server.Close()

	info, err := New(server.URL).ResolveSession(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveSession failed: %v", err)
	}
	if info.SessionID != "guest_abc123" || !info.Allocated {
		t.Errorf("unexpected session info: %+v", info)
	}
}

func TestSendDecodesTurnResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["sessionId"] != "guest_abc123" || payload["message"] != "hello" {
			t.Errorf("unexpected payload: %v", payload)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sessionId": "guest_abc123",
			"status":    "bot_replied",
			"reply":     "Szia! Miben segíthetek?",
			"messages": []map[string]string{
				{"sender": chat.SenderUser, "text": "hello"},
				{"sender": chat.SenderBot, "text": "Szia! Miben segíthetek?"},
			},
		})
	}))
	defer server.Close()

	result, err := New(server.URL).Send(context.Background(), "guest_abc123", "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Status != "bot_replied" {
		t.Errorf("status = %q, want bot_replied", result.Status)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(result.Messages))
	}
	if result.Messages[1].Sender != chat.SenderBot {
		t.Errorf("second message sender = %q, want bot", result.Messages[1].Sender)
	}
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "message text is required"})
	}))
	defer server.Close()

	_, err := New(server.URL).Send(context.Background(), "guest_abc123", "")
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if !strings.Contains(err.Error(), "message text is required") {
		t.Errorf("error %q does not carry the server message", err)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]chat.QueueEntry{})
	}))
	defer server.Close()

	c := New(server.URL, WithBearerToken("operator-token"))
	if _, err := c.SupportRequests(context.Background()); err != nil {
		t.Fatalf("SupportRequests failed: %v", err)
	}
	if gotAuth != "Bearer operator-token" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
}

func TestResolveReportsIdempotentOutcome(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "resolved",
			"resolved": calls == 1,
		})
	}))
	defer server.Close()

	c := New(server.URL, WithBearerToken("operator-token"))
	changed, err := c.Resolve(context.Background(), "guest_abc123")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !changed {
		t.Error("first resolve should report a state change")
	}
	changed, err = c.Resolve(context.Background(), "guest_abc123")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if changed {
		t.Error("repeated resolve should report no state change")
	}
}

func TestProcessVoiceUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm failed: %v", err)
		}
		if r.FormValue("sessionId") != "guest_abc123" {
			t.Errorf("sessionId = %q", r.FormValue("sessionId"))
		}
		if r.FormValue("language") != "hu-HU" {
			t.Errorf("language = %q", r.FormValue("language"))
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("FormFile failed: %v", err)
		}
		defer file.Close()
		if header.Filename != "turn.webm" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"sessionId": "guest_abc123",
			"userText":  "mikor kezdődik a koncert",
			"aiText":    "A koncert este nyolckor kezdődik.",
			"status":    "bot_replied",
		})
	}))
	defer server.Close()

	result, err := New(server.URL).ProcessVoice(context.Background(), "guest_abc123", []byte("fake-audio"), "turn.webm", "hu-HU")
	if err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}
	if result.UserText == "" || result.ReplyText == "" {
		t.Errorf("unexpected voice result: %+v", result)
	}
}

func TestRequestTimeoutViaContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := New(server.URL).History(ctx, "guest_abc123"); err == nil {
		t.Fatal("expected a context deadline error")
	}
}
