package client

import (
	"errors"
	"sync"
	"time"
)

// Timing of the typing side channel. The debounce batches keystrokes into
// one signal; the idle timer clears the signal after a pause.
const (
	TypingDebounce = 300 * time.Millisecond
	TypingIdle     = 3 * time.Second
)

// ErrSendInFlight reports a submit while the previous send has not
// resolved yet. The input stays editable; only submission is gated.
var ErrSendInFlight = errors.New("send already in flight")

// ErrNothingToRetry reports a retry with no retained failed send.
var ErrNothingToRetry = errors.New("no failed send to retry")

// Messenger is the message-submission surface the controller drives.
type Messenger interface {
	Send(conversationID, content string) error
}

// TypingAPI is the typing-signal surface the controller drives.
type TypingAPI interface {
	Set(conversationID string) error
	Clear(conversationID string) error
}

// Compose coordinates one conversation's input box: draft persistence,
// typing-signal cadence and submission with optimistic clear. Every timer
// it sets is cancelled on its exit paths (submit, Close, new keystroke).
type Compose struct {
	conversationID string
	messenger      Messenger
	typing         TypingAPI
	drafts         *DraftStore

	mu       sync.Mutex
	input    string
	failed   string
	inFlight bool
	closed   bool
	debounce *time.Timer
	idle     *time.Timer
}

// NewCompose builds a controller for one open conversation, restoring any
// unexpired draft into the input.
func NewCompose(conversationID string, m Messenger, t TypingAPI, d *DraftStore) *Compose {
	c := &Compose{conversationID: conversationID, messenger: m, typing: t, drafts: d}
	if text, ok := d.Load(conversationID); ok {
		c.input = text
	}
	return c
}

// Input returns the current input text.
func (c *Compose) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput records a keystroke: the draft is persisted immediately, the
// debounced typing signal is re-armed and the inactivity clear is pushed
// out.
func (c *Compose) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.input = text
	_ = c.drafts.Save(c.conversationID, text)

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(TypingDebounce, func() {
		// best-effort side channel; a lost tick is tolerated
		_ = c.typing.Set(c.conversationID)
	})

	if c.idle != nil {
		c.idle.Stop()
	}
	c.idle = time.AfterFunc(TypingIdle, func() {
		_ = c.typing.Clear(c.conversationID)
	})
}

// stopTimers cancels both timers. Caller holds c.mu.
func (c *Compose) stopTimers() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.idle != nil {
		c.idle.Stop()
		c.idle = nil
	}
}

// Submit sends the current input. The typing signal is cleared
// synchronously first so no stale indicator flickers after the message
// lands; the input is cleared optimistically and restored on failure, with
// the failed text retained for one Retry.
func (c *Compose) Submit() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("compose controller closed")
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	text := c.input
	c.stopTimers()
	c.inFlight = true
	c.input = ""
	_ = c.drafts.Clear(c.conversationID)
	c.mu.Unlock()

	_ = c.typing.Clear(c.conversationID)

	err := c.messenger.Send(c.conversationID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		// restore so nothing the user typed is lost
		if c.input == "" {
			c.input = text
			_ = c.drafts.Save(c.conversationID, text)
		}
		c.failed = text
		return err
	}
	c.failed = ""
	return nil
}

// Retry re-sends the last failed text once. The retained text is dropped
// whether or not the retry succeeds; sends are never retried silently
// beyond this.
func (c *Compose) Retry() error {
	c.mu.Lock()
	if c.failed == "" {
		c.mu.Unlock()
		return ErrNothingToRetry
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	text := c.failed
	c.failed = ""
	c.inFlight = true
	c.mu.Unlock()

	err := c.messenger.Send(c.conversationID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err == nil {
		if c.input == text {
			c.input = ""
			_ = c.drafts.Clear(c.conversationID)
		}
	}
	return err
}

// Close is the mandatory cleanup on unmount or conversation switch: timers
// stopped, typing cleared unconditionally, current input left as a draft.
func (c *Compose) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimers()
	if c.input != "" {
		_ = c.drafts.Save(c.conversationID, c.input)
	}
	c.mu.Unlock()

	// not debounced and not optional; stuck indicators are worse than a
	// wasted call
	_ = c.typing.Clear(c.conversationID)
}
