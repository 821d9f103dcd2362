package chat

import "time"

// QueueEntry is one row of the operator-facing support queue. It is a
// projection computed from Session and ledger state, never stored.
type QueueEntry struct {
	SessionID    string    `json:"sessionId"`
	NeedsHuman   bool      `json:"needsHuman"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
