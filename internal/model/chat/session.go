package chat

import (
	"strings"
	"time"
)

// GuestPrefix marks client-allocated anonymous session keys.
const GuestPrefix = "guest_"

// Session captures one visitor's continuous support conversation.
// The ID is either an authenticated principal name or a client-held
// guest token.
type Session struct {
	ID           string    `json:"id"`
	NeedsHuman   bool      `json:"needsHuman"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// IsGuest reports whether the session key is an anonymous guest token.
func IsGuest(sessionID string) bool {
	return strings.HasPrefix(sessionID, GuestPrefix)
}
