package support

import (
	"context"
	"errors"
	"testing"

	"github.com/eventdesk/backend/internal/model/chat"
	"github.com/eventdesk/backend/internal/service/ai"
	chatservice "github.com/eventdesk/backend/internal/service/chat"
)

type scriptedResponder struct {
	reply string
	err   error
	calls int
}

func (r *scriptedResponder) Reply(_ context.Context, _ []chat.Message, _ string) (string, error) {
	r.calls++
	return r.reply, r.err
}

func senders(msgs []chat.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Sender
	}
	return out
}

func TestHandleUserTurnBotReplies(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, &scriptedResponder{reply: "Szia! Miben segíthetek?"})
	ctx := context.Background()

	result, err := svc.HandleUserTurn(ctx, "guest_ab12cd", "hello")
	if err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}
	if result.Status != StatusBotReplied {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Reply != "Szia! Miben segíthetek?" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if result.Session.NeedsHuman {
		t.Fatal("plain turn must not escalate")
	}

	history := ledger.History(ctx, "guest_ab12cd")
	got := senders(history)
	if len(got) != 2 || got[0] != chat.SenderUser || got[1] != chat.SenderBot {
		t.Fatalf("unexpected ledger senders: %v", got)
	}
	if history[0].Text != "hello" {
		t.Fatalf("user text not persisted verbatim: %q", history[0].Text)
	}
}

func TestHandleUserTurnSentinelEscalates(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, &scriptedResponder{reply: ai.Sentinel})
	ctx := context.Background()

	result, err := svc.HandleUserTurn(ctx, "guest_esc", "ezt nem érti a bot")
	if err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}
	if result.Status != StatusHandedOff {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if !result.Session.NeedsHuman {
		t.Fatal("escalated session must be flagged")
	}

	history := ledger.History(ctx, "guest_esc")
	got := senders(history)
	if len(got) != 2 || got[0] != chat.SenderUser || got[1] != chat.SenderSystem {
		t.Fatalf("expected user+system only, got %v", got)
	}
	for _, msg := range history {
		if ai.IsHandoff(msg.Text) {
			t.Fatal("raw sentinel leaked into the ledger")
		}
	}
}

func TestHandleUserTurnSuppressedWhileEscalated(t *testing.T) {
	ledger := chatservice.NewService()
	responder := &scriptedResponder{reply: "nem kéne futnom"}
	svc := NewService(ledger, responder)
	ctx := context.Background()

	escalate := true
	if _, _, err := ledger.ApplyTurn(ctx, "guest_wait", chatservice.Turn{
		Drafts:     []chatservice.Draft{{Sender: chat.SenderUser, Text: "embert!"}},
		NeedsHuman: &escalate,
	}); err != nil {
		t.Fatalf("ApplyTurn err: %v", err)
	}

	result, err := svc.HandleUserTurn(ctx, "guest_wait", "még itt vagyok")
	if err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}
	if result.Status != StatusWaitingForOperator {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if responder.calls != 0 {
		t.Fatal("assistant must stay silent while an operator owns the session")
	}
	if got := senders(ledger.History(ctx, "guest_wait")); got[len(got)-1] != chat.SenderUser {
		t.Fatalf("expected trailing user message, got %v", got)
	}
}

func TestHandleUserTurnResponderFailureTouchesNothing(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, &scriptedResponder{err: errors.New("model down")})
	ctx := context.Background()

	_, err := svc.HandleUserTurn(ctx, "guest_down", "hello")
	if !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
	if got := len(ledger.History(ctx, "guest_down")); got != 0 {
		t.Fatalf("failed turn leaked %d messages", got)
	}
}

func TestResolveReturnsSessionToAssistant(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, &scriptedResponder{reply: ai.Sentinel})
	ctx := context.Background()

	if _, err := svc.HandleUserTurn(ctx, "guest_cycle", "ember"); err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}

	changed, err := svc.Resolve(ctx, "guest_cycle")
	if err != nil || !changed {
		t.Fatalf("resolve: changed=%v err=%v", changed, err)
	}

	history := ledger.History(ctx, "guest_cycle")
	last := history[len(history)-1]
	if last.Sender != chat.SenderSystem {
		t.Fatalf("resolve must append one system notice, got %s", last.Sender)
	}

	// Second resolve: no flag change, no extra message.
	changed, err = svc.Resolve(ctx, "guest_cycle")
	if err != nil {
		t.Fatalf("second resolve err: %v", err)
	}
	if changed {
		t.Fatal("second resolve must be a no-op")
	}
	if got := len(ledger.History(ctx, "guest_cycle")); got != len(history) {
		t.Fatalf("second resolve appended: %d -> %d", len(history), got)
	}
}

func TestOperatorReplyKeepsFlag(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, &scriptedResponder{reply: ai.Sentinel})
	ctx := context.Background()

	if _, err := svc.HandleUserTurn(ctx, "guest_op", "ember"); err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}

	msg, err := svc.OperatorReply(ctx, "guest_op", "Jó napot, miben segíthetek?")
	if err != nil {
		t.Fatalf("OperatorReply err: %v", err)
	}
	if msg.Sender != chat.SenderAdmin {
		t.Fatalf("unexpected sender: %s", msg.Sender)
	}

	session, _ := ledger.GetSession(ctx, "guest_op")
	if !session.NeedsHuman {
		t.Fatal("operator reply must not clear the escalation flag")
	}
}

func TestFallbackEndToEndScenario(t *testing.T) {
	ledger := chatservice.NewService()
	svc := NewService(ledger, ai.NewFallback())
	ctx := context.Background()

	// Scenario one: greeting, assistant handles.
	result, err := svc.HandleUserTurn(ctx, "guest_ab12cd", "hello")
	if err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}
	if result.Reply != "Szia! Miben segíthetek?" {
		t.Fatalf("unexpected greeting reply: %q", result.Reply)
	}
	entries := ledger.ListActive(ctx)
	if len(entries) != 1 || entries[0].NeedsHuman {
		t.Fatalf("queue should show one unflagged session, got %+v", entries)
	}

	// Scenario two: explicit human request escalates, operator resolves.
	result, err = svc.HandleUserTurn(ctx, "guest_ab12cd", "embert kérek")
	if err != nil {
		t.Fatalf("HandleUserTurn err: %v", err)
	}
	if result.Status != StatusHandedOff {
		t.Fatalf("expected hand-off, got %s", result.Status)
	}
	entries = ledger.ListActive(ctx)
	if len(entries) != 1 || !entries[0].NeedsHuman {
		t.Fatalf("queue should flag the session, got %+v", entries)
	}

	if changed, err := svc.Resolve(ctx, "guest_ab12cd"); err != nil || !changed {
		t.Fatalf("resolve: changed=%v err=%v", changed, err)
	}
	session, _ := ledger.GetSession(ctx, "guest_ab12cd")
	if session.NeedsHuman {
		t.Fatal("resolved session still flagged")
	}
}
