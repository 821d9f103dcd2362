package client

import (
	"sync"

	"github.com/eventdesk/backend/internal/model/chat"
)

// Entry is one displayable line of a conversation. Pending marks a
// locally echoed message the server has not confirmed yet.
type Entry struct {
	Sender  string
	Text    string
	Pending bool
}

// ConversationView merges server snapshots with optimistic local
// echoes. A visitor message is shown immediately via AddPending and
// reconciled away as soon as any snapshot containing it arrives.
type ConversationView struct {
	mu        sync.Mutex
	confirmed []chat.Message
	pending   []string
}

// AddPending records a just-sent message for optimistic display.
func (v *ConversationView) AddPending(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(v.pending, text)
}

// ApplySnapshot replaces the confirmed state with a fresh server
// snapshot and drops the pending echoes the snapshot confirms. Each
// confirmed user message absorbs at most one echo, so sending the same
// text twice keeps the second echo until the server confirms it too.
func (v *ConversationView) ApplySnapshot(messages []chat.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.confirmed = messages

	available := make(map[string]int)
	for _, m := range messages {
		if m.Sender == chat.SenderUser {
			available[m.Text]++
		}
	}

	remaining := v.pending[:0]
	for _, text := range v.pending {
		if available[text] > 0 {
			available[text]--
			continue
		}
		remaining = append(remaining, text)
	}
	v.pending = remaining
}

// Entries returns the current display order: confirmed messages
// followed by still-unconfirmed echoes.
func (v *ConversationView) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries := make([]Entry, 0, len(v.confirmed)+len(v.pending))
	for _, m := range v.confirmed {
		entries = append(entries, Entry{Sender: m.Sender, Text: m.Text})
	}
	for _, text := range v.pending {
		entries = append(entries, Entry{Sender: chat.SenderUser, Text: text, Pending: true})
	}
	return entries
}
