package support

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/eventdesk/backend/internal/model/chat"
	"github.com/eventdesk/backend/internal/service/ai"
	chatservice "github.com/eventdesk/backend/internal/service/chat"
)

// ErrAssistantUnavailable means the reply generator failed and the turn
// was dropped without touching the ledger. The visitor must resend.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// Visitor-facing texts for the two escalation transitions.
const (
	handoffNotice = "Átkapcsollak egy kollégához. Kérlek várj..."
	resolveNotice = "A beszélgetést az adminisztrátor lezárta. Visszatérés AI módba."
)

// Responder is the opaque automated-reply collaborator. The returned
// reply may be the hand-off sentinel (see ai.IsHandoff).
type Responder interface {
	Reply(ctx context.Context, history []chat.Message, userText string) (string, error)
}

// TurnStatus tells the caller how a visitor turn ended.
type TurnStatus string

const (
	StatusBotReplied         TurnStatus = "bot_replied"
	StatusWaitingForOperator TurnStatus = "waiting_for_admin"
	StatusHandedOff          TurnStatus = "human_transfer_initiated"
)

// TurnResult summarizes the ledger writes of one visitor turn.
type TurnResult struct {
	Status   TurnStatus
	Session  chat.Session
	Messages []chat.Message
	// Reply is the visitor-facing text produced this turn: the bot
	// answer, or the system hand-off notice on escalation. Empty while
	// an operator owns the session.
	Reply string
}

// Service runs the escalation state machine around the ledger: it decides
// per visitor turn whether the assistant answers, the session escalates,
// or the operator keeps the floor.
type Service struct {
	ledger    *chatservice.Service
	responder Responder
}

// NewService wires the orchestrator. responder must not be nil; pass
// ai.NewFallback() when no model is configured.
func NewService(ledger *chatservice.Service, responder Responder) *Service {
	return &Service{ledger: ledger, responder: responder}
}

// HandleUserTurn processes one visitor message, typed or transcribed.
//
// While the session is escalated the message is appended alone and the
// assistant stays silent until an operator resolves. Otherwise the
// responder is consulted first, outside any session lock, and the
// resulting pair (user+bot, or user+system hand-off with the flag set)
// is appended atomically. A responder failure leaves the ledger
// untouched.
func (s *Service) HandleUserTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, chatservice.ErrEmptyText
	}

	session, err := s.ledger.EnsureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.NeedsHuman {
		msgs, session, err := s.ledger.ApplyTurn(ctx, sessionID, chatservice.Turn{
			Drafts: []chatservice.Draft{{Sender: chat.SenderUser, Text: text}},
		})
		if err != nil {
			return nil, err
		}
		return &TurnResult{Status: StatusWaitingForOperator, Session: session, Messages: msgs}, nil
	}

	history := s.ledger.History(ctx, sessionID)
	reply, err := s.responder.Reply(ctx, history, text)
	if err != nil {
		log.Printf("[support] responder failed for session=%s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	if ai.IsHandoff(reply) {
		escalate := true
		msgs, session, err := s.ledger.ApplyTurn(ctx, sessionID, chatservice.Turn{
			Drafts: []chatservice.Draft{
				{Sender: chat.SenderUser, Text: text},
				{Sender: chat.SenderSystem, Text: handoffNotice},
			},
			NeedsHuman: &escalate,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("[support] session=%s escalated to operator", sessionID)
		return &TurnResult{Status: StatusHandedOff, Session: session, Messages: msgs, Reply: handoffNotice}, nil
	}

	msgs, session, err := s.ledger.ApplyTurn(ctx, sessionID, chatservice.Turn{
		Drafts: []chatservice.Draft{
			{Sender: chat.SenderUser, Text: text},
			{Sender: chat.SenderBot, Text: reply},
		},
	})
	if err != nil {
		return nil, err
	}
	return &TurnResult{Status: StatusBotReplied, Session: session, Messages: msgs, Reply: reply}, nil
}

// OperatorReply appends a human operator's message. The escalation flag
// is left untouched: only an explicit resolve hands the session back.
func (s *Service) OperatorReply(ctx context.Context, sessionID, text string) (chat.Message, error) {
	return s.ledger.Append(ctx, sessionID, chat.SenderAdmin, text)
}

// Resolve hands the session back to the assistant. Idempotent: the
// hand-back notice is appended only when the flag actually flips.
func (s *Service) Resolve(ctx context.Context, sessionID string) (bool, error) {
	changed, err := s.ledger.Resolve(ctx, sessionID, resolveNotice)
	if err != nil {
		return false, err
	}
	if changed {
		log.Printf("[support] session=%s resolved, back to assistant", sessionID)
	}
	return changed, nil
}
