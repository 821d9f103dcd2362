package chat

import "time"

// Message senders. The ledger never stores any other value.
const (
	SenderUser   = "user"
	SenderBot    = "bot"
	SenderAdmin  = "admin"
	SenderSystem = "system"
)

// Message is one immutable ledger entry. Timestamps are monotonically
// non-decreasing within a session; entries are never edited or deleted.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidSender reports whether sender is one of the four ledger senders.
func ValidSender(sender string) bool {
	switch sender {
	case SenderUser, SenderBot, SenderAdmin, SenderSystem:
		return true
	default:
		return false
	}
}
