// chatprobe is a manual smoke-test tool for a running helpdesk API.
// It drives the same HTTP surface the widget and the operator console
// use, through pkg/client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eventdesk/backend/internal/model/chat"
	"github.com/eventdesk/backend/pkg/client"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	baseURL := flag.String("url", envOr("CHATPROBE_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("CHATPROBE_TOKEN"), "bearer token for operator modes")
	mode := flag.String("mode", "", "mode: send, history, watch, queue, reply, resolve, voice")
	session := flag.String("session", "", "session id (guest token or account session)")
	text := flag.String("text", "", "message text for send/reply modes")
	audioPath := flag.String("audio", "", "audio file path for voice mode")
	language := flag.String("lang", "", "language code for voice mode")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	opts := []client.Option{}
	if *token != "" {
		opts = append(opts, client.WithBearerToken(*token))
	}
	api := client.New(*baseURL, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "send":
		runSend(ctx, api, *session, *text)
	case "history":
		runHistory(ctx, api, *session, *token != "")
	case "watch":
		runWatch(api, *session, *token != "")
	case "queue":
		runQueue(ctx, api)
	case "reply":
		runReply(ctx, api, *session, *text)
	case "resolve":
		runResolve(ctx, api, *session)
	case "voice":
		runVoice(ctx, api, *session, *audioPath, *language)
	default:
		flag.Usage()
		log.Fatal("specify a mode with -mode")
	}
}

func runSend(ctx context.Context, api *client.Client, session, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("send mode needs -text")
	}

	if session == "" {
		info, err := api.ResolveSession(ctx, "")
		if err != nil {
			log.Fatalf("session resolve failed: %v", err)
		}
		session = info.SessionID
		log.Printf("allocated guest session %s", session)
	}

	result, err := api.Send(ctx, session, text)
	if err != nil {
		log.Fatalf("send failed: %v", err)
	}

	log.Printf("status=%s session=%s", result.Status, result.SessionID)
	printMessages(result.Messages)
}

func runHistory(ctx context.Context, api *client.Client, session string, operator bool) {
	if session == "" {
		log.Fatal("history mode needs -session")
	}

	messages, err := fetchHistory(ctx, api, session, operator)
	if err != nil {
		log.Fatalf("history fetch failed: %v", err)
	}
	printMessages(messages)
}

// runWatch polls history until interrupted, printing only messages it
// has not shown yet.
func runWatch(api *client.Client, session string, operator bool) {
	if session == "" {
		log.Fatal("watch mode needs -session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seen := 0
	snapshot := func(messages []chat.Message) {
		for _, m := range messages[min(seen, len(messages)):] {
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.Sender, m.Text)
		}
		seen = len(messages)
	}

	var poller *client.HistoryPoller
	if operator {
		poller = client.NewConsoleHistoryPoller(api, session, snapshot)
	} else {
		poller = client.NewHistoryPoller(api, session, 0, snapshot)
	}

	log.Printf("watching session %s (Ctrl-C to stop)", session)
	poller.Run(ctx)
}

func runQueue(ctx context.Context, api *client.Client) {
	entries, err := api.SupportRequests(ctx)
	if err != nil {
		log.Fatalf("queue fetch failed: %v", err)
	}
	if len(entries) == 0 {
		log.Print("no active sessions")
		return
	}
	for _, e := range entries {
		marker := " "
		if e.NeedsHuman {
			marker = "!"
		}
		fmt.Printf("%s %-28s last active %s\n", marker, e.SessionID, e.LastActiveAt.Format(time.RFC3339))
	}
}

func runReply(ctx context.Context, api *client.Client, session, text string) {
	if session == "" || strings.TrimSpace(text) == "" {
		log.Fatal("reply mode needs -session and -text")
	}
	if err := api.AdminReply(ctx, session, text); err != nil {
		log.Fatalf("reply failed: %v", err)
	}
	log.Printf("reply sent to %s", session)
}

func runResolve(ctx context.Context, api *client.Client, session string) {
	if session == "" {
		log.Fatal("resolve mode needs -session")
	}
	changed, err := api.Resolve(ctx, session)
	if err != nil {
		log.Fatalf("resolve failed: %v", err)
	}
	if changed {
		log.Printf("session %s handed back to the assistant", session)
	} else {
		log.Printf("session %s was not escalated", session)
	}
}

func runVoice(ctx context.Context, api *client.Client, session, audioPath, language string) {
	if audioPath == "" {
		log.Fatal("voice mode needs -audio")
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("failed to read audio file: %v", err)
	}

	if session == "" {
		info, err := api.ResolveSession(ctx, "")
		if err != nil {
			log.Fatalf("session resolve failed: %v", err)
		}
		session = info.SessionID
		log.Printf("allocated guest session %s", session)
	}

	result, err := api.ProcessVoice(ctx, session, audio, filepath.Base(audioPath), language)
	if err != nil {
		log.Fatalf("voice turn failed: %v", err)
	}

	log.Printf("status=%s", result.Status)
	log.Printf("heard: %q", result.UserText)
	log.Printf("reply: %q", result.ReplyText)
	if result.AudioBase64 != "" {
		log.Printf("reply audio: %d base64 chars (%s)", len(result.AudioBase64), result.AudioFormat)
	} else {
		log.Print("reply audio: none")
	}
}

func fetchHistory(ctx context.Context, api *client.Client, session string, operator bool) ([]chat.Message, error) {
	if operator {
		return api.AdminHistory(ctx, session)
	}
	return api.History(ctx, session)
}

func printMessages(messages []chat.Message) {
	for _, m := range messages {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.Sender, m.Text)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
