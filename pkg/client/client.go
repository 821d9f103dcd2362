// Package client is the Go API client used by the visitor widget, the
// operator console and the command line tools. All convergence is
// pull-based: there is no push channel, callers poll through the
// pollers in this package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/model/chat"
)

// Client talks to the helpdesk HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	bearer     string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken attaches an operator/account bearer token to every
// request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = token }
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionInfo is the outcome of identity resolution. When Allocated is
// true the caller must persist SessionID as its guest token.
type SessionInfo struct {
	SessionID string `json:"sessionId"`
	Allocated bool   `json:"allocated"`
}

// SendResult is the server's answer to one visitor message.
type SendResult struct {
	SessionID string         `json:"sessionId"`
	Allocated bool           `json:"allocated"`
	Status    string         `json:"status"`
	Reply     string         `json:"reply"`
	Messages  []chat.Message `json:"messages"`
}

// VoiceResult is the server's answer to one uploaded voice message.
type VoiceResult struct {
	SessionID   string `json:"sessionId"`
	UserText    string `json:"userText"`
	ReplyText   string `json:"aiText"`
	AudioBase64 string `json:"audioBase64,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
	Status      string `json:"status"`
}

// ResolveSession resolves the caller's stable session key, allocating a
// guest token on first contact.
func (c *Client) ResolveSession(ctx context.Context, guestToken string) (*SessionInfo, error) {
	var info SessionInfo
	err := c.postJSON(ctx, "/api/chat/session", map[string]string{"guestToken": guestToken}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Send submits one visitor message.
func (c *Client) Send(ctx context.Context, sessionID, message string) (*SendResult, error) {
	var result SendResult
	err := c.postJSON(ctx, "/api/chat/send", map[string]string{
		"sessionId": sessionID,
		"message":   message,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches the full ordered ledger for a session. An empty list
// is a normal answer for a conversation that has not started.
func (c *Client) History(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var messages []chat.Message
	if err := c.getJSON(ctx, "/api/chat/history/"+sessionID, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SupportRequests fetches the operator queue.
func (c *Client) SupportRequests(ctx context.Context) ([]chat.QueueEntry, error) {
	var entries []chat.QueueEntry
	if err := c.getJSON(ctx, "/api/admin/support-requests", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AdminHistory fetches any session's ledger (operator only).
func (c *Client) AdminHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var messages []chat.Message
	if err := c.getJSON(ctx, "/api/admin/chat/"+sessionID, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// AdminReply sends an operator message into a session.
func (c *Client) AdminReply(ctx context.Context, sessionID, message string) error {
	return c.postJSON(ctx, "/api/admin/reply", map[string]string{
		"targetSessionId": sessionID,
		"message":         message,
	}, nil)
}

// Resolve hands a session back to the assistant. The returned bool is
// false when the session was already resolved.
func (c *Client) Resolve(ctx context.Context, sessionID string) (bool, error) {
	var result struct {
		Resolved bool `json:"resolved"`
	}
	if err := c.postJSON(ctx, "/api/admin/resolve", map[string]string{
		"targetSessionId": sessionID,
	}, &result); err != nil {
		return false, err
	}
	return result.Resolved, nil
}

// ProcessVoice uploads one recorded blob and returns transcript, reply
// text and reply audio.
func (c *Client) ProcessVoice(ctx context.Context, sessionID string, audio []byte, filename, language string) (*VoiceResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}
	_ = form.WriteField("sessionId", sessionID)
	if language != "" {
		_ = form.WriteField("language", language)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/voice/process", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var result VoiceResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
