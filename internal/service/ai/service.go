package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/eventdesk/backend/internal/config"
	"github.com/eventdesk/backend/internal/model/chat"
)

// Sentinel is the distinguished reply meaning "hand this session to a
// human operator". It is an internal protocol value between the reply
// generator and the escalation machinery and must never reach a visitor.
const Sentinel = "[[NEEDS_HUMAN]]"

// IsHandoff reports whether a generated reply is the hand-off sentinel.
// Models occasionally wrap the marker in extra prose, so a containment
// check is deliberate.
func IsHandoff(reply string) bool {
	return strings.Contains(reply, Sentinel)
}

const systemPrompt = `Te az Eventdesk rendezvénykezelő alkalmazás ügyfélszolgálati asszisztense vagy.
Válaszolj röviden, kedvesen, a kérdés nyelvén (alapértelmezés: magyar).
Csak a rendezvényekkel, naptárral és a fiókkal kapcsolatos kérdésekben segíts.
Ha nem tudsz érdemben segíteni, vagy a látogató kifejezetten emberi ügyintézőt kér,
a válaszod legyen pontosan ez a jelölő, minden más szöveg nélkül: ` + Sentinel

// Service generates automated helpdesk replies through an eino chain.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the reply chain against the configured Ark model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{chatModel: chatModel, cfg: cfg, chain: runnable}, nil
}

// Reply produces the assistant's answer for one visitor turn. The
// returned string may be the hand-off sentinel; callers must check
// IsHandoff before surfacing it.
func (s *Service) Reply(ctx context.Context, history []chat.Message, userText string) (string, error) {
	input := map[string]any{
		"system":  systemPrompt,
		"history": buildHistoryMessages(history),
		"query":   userText,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	log.Printf("[ai] generated reply length=%d handoff=%v", len(reply), IsHandoff(reply))
	return reply, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}
