package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatsync/pkg/errs"
)

// Heartbeat cadence and the bounded backoff used on transient failure.
const (
	HeartbeatInterval = 5 * time.Second
	backoffBase       = time.Second
	maxBeatAttempts   = 3
)

// PresenceAPI is the presence surface the runner drives.
type PresenceAPI interface {
	Heartbeat() (bool, error)
	MarkOffline() error
}

// HeartbeatRunner keeps the subject's lastSeen fresh while the client is
// visible. Visibility hooks map to markOffline and an immediate re-beat.
type HeartbeatRunner struct {
	api PresenceAPI

	mu     sync.Mutex
	hidden bool
	kick   chan struct{}
}

func NewHeartbeatRunner(api PresenceAPI) *HeartbeatRunner {
	return &HeartbeatRunner{api: api, kick: make(chan struct{}, 1)}
}

// Run beats every HeartbeatInterval until ctx is cancelled, skipping beats
// while hidden. On cancellation it marks the subject offline.
func (h *HeartbeatRunner) Run(ctx context.Context) {
	h.beat()
	t := time.NewTicker(HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = h.api.MarkOffline()
			return
		case <-h.kick:
			h.beat()
		case <-t.C:
			h.mu.Lock()
			hidden := h.hidden
			h.mu.Unlock()
			if !hidden {
				h.beat()
			}
		}
	}
}

// beat retries transient failures with exponential backoff, bounded so a
// dead network cannot pile up goroutine time. Other errors are dropped;
// the next tick tries again anyway.
func (h *HeartbeatRunner) beat() {
	delay := backoffBase
	for attempt := 1; ; attempt++ {
		_, err := h.api.Heartbeat()
		if err == nil || !errors.Is(err, errs.ErrTransient) {
			return
		}
		if attempt >= maxBeatAttempts {
			return
		}
		time.Sleep(delay)
		delay *= 2
	}
}

// Hidden marks the client invisible (tab hidden, page unload) and pushes
// the subject offline immediately.
func (h *HeartbeatRunner) Hidden() {
	h.mu.Lock()
	h.hidden = true
	h.mu.Unlock()
	_ = h.api.MarkOffline()
}

// Visible resumes beating with an immediate heartbeat rather than waiting
// out the current tick.
func (h *HeartbeatRunner) Visible() {
	h.mu.Lock()
	h.hidden = false
	h.mu.Unlock()
	select {
	case h.kick <- struct{}{}:
	default:
	}
}
