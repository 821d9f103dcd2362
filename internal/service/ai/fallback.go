package ai

import (
	"context"

	"github.com/eventdesk/backend/internal/analysis/intent"
	"github.com/eventdesk/backend/internal/model/chat"
)

// Canned replies used when no model credentials are configured.
const (
	fallbackGreeting  = "Szia! Miben segíthetek?"
	fallbackGratitude = "Szívesen! Ha bármi másban segíthetek, írj nyugodtan."
	fallbackDefault   = "Ez egy automata válasz. Ha emberi segítségre van szükséged, írd be: 'ember'."
)

// Fallback is the deterministic responder used when the Ark model is not
// configured. It answers small talk from the intent analyzer and hands
// off everything it cannot classify as greetable.
type Fallback struct{}

// NewFallback returns the canned-reply responder.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Reply mirrors Service.Reply without any network call.
func (f *Fallback) Reply(_ context.Context, _ []chat.Message, userText string) (string, error) {
	switch intent.Analyze(userText).Intent {
	case intent.Handoff:
		return Sentinel, nil
	case intent.Greeting:
		return fallbackGreeting, nil
	case intent.Gratitude:
		return fallbackGratitude, nil
	default:
		return fallbackDefault, nil
	}
}
