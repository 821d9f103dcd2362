package identity

import (
	"context"
	"strings"

	"github.com/lithammer/shortuuid/v4"

	"github.com/eventdesk/backend/internal/model/chat"
	chatservice "github.com/eventdesk/backend/internal/service/chat"
)

// Resolver maps a request's credentials to a stable session key.
// Resolution never fails: an authenticated principal owns one session
// per account, an anonymous visitor reuses its client-held guest token,
// and a first-time visitor gets a fresh token allocated here.
type Resolver struct {
	sessions *chatservice.Service
}

// NewResolver wires the resolver to the session store.
func NewResolver(sessions *chatservice.Service) *Resolver {
	return &Resolver{sessions: sessions}
}

// Resolve returns the session key for the caller and whether a new guest
// token was allocated. The caller is responsible for handing a freshly
// allocated token back to the client for persistence. As a side effect
// the session exists in the store afterwards, NeedsHuman=false on first
// contact.
func (r *Resolver) Resolve(ctx context.Context, principal, guestToken string) (string, bool) {
	principal = strings.TrimSpace(principal)
	guestToken = strings.TrimSpace(guestToken)

	sessionID := principal
	allocated := false
	if sessionID == "" {
		if chat.IsGuest(guestToken) && len(guestToken) > len(chat.GuestPrefix) {
			sessionID = guestToken
		} else {
			sessionID = chat.GuestPrefix + shortuuid.New()
			allocated = true
		}
	}

	// Cannot fail: the key is never empty at this point.
	_, _ = r.sessions.EnsureSession(ctx, sessionID)
	return sessionID, allocated
}
