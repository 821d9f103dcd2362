package client

import (
	"context"
	"log"
	"time"

	"github.com/eventdesk/backend/internal/model/chat"
)

// Polling cadences. The visitor widget refreshes its own thread every
// 3s, the operator console refreshes an open thread every 2s, and the
// queue view every 5s.
const (
	DefaultHistoryInterval = 3 * time.Second
	ConsoleHistoryInterval = 2 * time.Second
	DefaultQueueInterval   = 5 * time.Second
)

// HistoryPoller periodically fetches one session's full ledger and
// hands each fetch to the snapshot callback. Snapshots replace local
// state entirely, so a missed poll is self-healing.
type HistoryPoller struct {
	client    *Client
	sessionID string
	interval  time.Duration
	admin     bool
	snapshot  func([]chat.Message)
}

// NewHistoryPoller builds a poller for the visitor surface. An
// interval of 0 means DefaultHistoryInterval.
func NewHistoryPoller(c *Client, sessionID string, interval time.Duration, snapshot func([]chat.Message)) *HistoryPoller {
	if interval <= 0 {
		interval = DefaultHistoryInterval
	}
	return &HistoryPoller{
		client:    c,
		sessionID: sessionID,
		interval:  interval,
		snapshot:  snapshot,
	}
}

// NewConsoleHistoryPoller builds a poller reading through the operator
// endpoint, at the faster console cadence.
func NewConsoleHistoryPoller(c *Client, sessionID string, snapshot func([]chat.Message)) *HistoryPoller {
	p := NewHistoryPoller(c, sessionID, ConsoleHistoryInterval, snapshot)
	p.admin = true
	return p
}

// Run polls until ctx is canceled. It fetches once immediately, then
// on every tick. Fetch failures are logged and the next tick retries;
// a fetch that completes after cancellation is discarded.
func (p *HistoryPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *HistoryPoller) poll(ctx context.Context) {
	var (
		messages []chat.Message
		err      error
	)
	if p.admin {
		messages, err = p.client.AdminHistory(ctx, p.sessionID)
	} else {
		messages, err = p.client.History(ctx, p.sessionID)
	}
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[poller] history fetch failed for %s: %v", p.sessionID, err)
		}
		return
	}
	// The poller may have been stopped while the request was in
	// flight; a stale snapshot must not be delivered.
	if ctx.Err() != nil {
		return
	}
	p.snapshot(messages)
}

// QueuePoller periodically fetches the operator support queue.
type QueuePoller struct {
	client   *Client
	interval time.Duration
	snapshot func([]chat.QueueEntry)
}

// NewQueuePoller builds a queue poller. An interval of 0 means
// DefaultQueueInterval.
func NewQueuePoller(c *Client, interval time.Duration, snapshot func([]chat.QueueEntry)) *QueuePoller {
	if interval <= 0 {
		interval = DefaultQueueInterval
	}
	return &QueuePoller{client: c, interval: interval, snapshot: snapshot}
}

// Run polls until ctx is canceled, same contract as HistoryPoller.Run.
func (p *QueuePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *QueuePoller) poll(ctx context.Context) {
	entries, err := p.client.SupportRequests(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[poller] queue fetch failed: %v", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	p.snapshot(entries)
}
