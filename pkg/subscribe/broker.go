package subscribe

import (
	"sync"

	"chatsync/pkg/telemetry"
)

// The reactive transport that re-delivers query results is an external
// collaborator; this package only carries the observer contract. Stores
// publish topic notifications after successful mutations and subscribers
// re-run their (pure) queries on each tick. Ticks coalesce: a slow
// subscriber sees at least one notification, not necessarily one per write.

const DirectoryTopic = "directory"

// ConversationTopic notifies subscribers of one conversation's messages and
// typing rows.
func ConversationTopic(id string) string { return "conv:" + id }

// InboxTopic notifies a viewer's conversation-list subscribers.
func InboxTopic(subject string) string { return "inbox:" + subject }

// Subscription receives coalesced change notifications for its topics.
type Subscription struct {
	topics []string
	ch     chan string
	once   sync.Once
}

// C yields the topic names that changed. The channel closes on Cancel.
func (s *Subscription) C() <-chan string { return s.ch }

type broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

var defaultBroker = &broker{subs: make(map[string]map[*Subscription]struct{})}

// Subscribe registers interest in one or more topics.
func Subscribe(topics ...string) *Subscription {
	s := &Subscription{topics: topics, ch: make(chan string, 8)}
	defaultBroker.mu.Lock()
	for _, t := range topics {
		m, ok := defaultBroker.subs[t]
		if !ok {
			m = make(map[*Subscription]struct{})
			defaultBroker.subs[t] = m
		}
		m[s] = struct{}{}
	}
	defaultBroker.mu.Unlock()
	telemetry.ActiveSubscriptions.Inc()
	return s
}

// Cancel detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		defaultBroker.mu.Lock()
		for _, t := range s.topics {
			if m, ok := defaultBroker.subs[t]; ok {
				delete(m, s)
				if len(m) == 0 {
					delete(defaultBroker.subs, t)
				}
			}
		}
		defaultBroker.mu.Unlock()
		close(s.ch)
		telemetry.ActiveSubscriptions.Dec()
	})
}

// Publish notifies every subscriber of each topic. Non-blocking: a full
// subscriber channel drops the tick, which is fine because any pending tick
// already forces a re-query.
func Publish(topics ...string) {
	defaultBroker.mu.RLock()
	defer defaultBroker.mu.RUnlock()
	for _, t := range topics {
		for s := range defaultBroker.subs[t] {
			select {
			case s.ch <- t:
			default:
			}
		}
	}
}
