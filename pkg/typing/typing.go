package typing

import (
	"fmt"
	"sort"
	"time"

	"chatsync/pkg/errs"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/subscribe"
	"chatsync/pkg/telemetry"
)

const (
	// Window is how long a typing row counts as "currently typing".
	Window = 3 * time.Second
	// CleanupAge bounds storage growth: rows older than this are purged by
	// the periodic sweep regardless of the display window.
	CleanupAge = 5 * time.Minute
)

// now is swapped out by tests.
var now = time.Now

func requireParticipant(convID, subject string) (models.Conversation, error) {
	c, err := store.GetConversation(convID)
	if err != nil {
		return c, err
	}
	if !c.HasParticipant(subject) {
		return c, fmt.Errorf("%w: not a participant of %s", errs.ErrUnauthorized, convID)
	}
	return c, nil
}

// Set upserts the (conversation,user) typing row with a fresh timestamp.
// Safe to call twice; a repeat only refreshes the window.
func Set(convID, subject string) error {
	if _, err := requireParticipant(convID, subject); err != nil {
		return err
	}
	t := models.TypingState{Conversation: convID, Subject: subject, TS: now().UTC().UnixNano()}
	if err := store.UpsertTyping(t); err != nil {
		return err
	}
	subscribe.Publish(subscribe.ConversationTopic(convID))
	return nil
}

// Clear removes the row if present; clearing an absent row is a no-op.
func Clear(convID, subject string) error {
	if _, err := requireParticipant(convID, subject); err != nil {
		return err
	}
	if err := store.DeleteTyping(convID, subject); err != nil {
		return err
	}
	subscribe.Publish(subscribe.ConversationTopic(convID))
	return nil
}

// View is the typing projection for one conversation and viewer.
type View struct {
	Subjects []string `json:"subjects,omitempty"`
	Names    []string `json:"names,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// ActiveTypists returns everyone currently typing in the conversation
// except the viewer, resolved to display names, plus the rendered
// indicator text.
func ActiveTypists(convID, viewer string) (View, error) {
	if _, err := requireParticipant(convID, viewer); err != nil {
		return View{}, err
	}
	rows, err := store.ListTyping(convID)
	if err != nil {
		return View{}, err
	}
	cutoff := now().UTC().Add(-Window).UnixNano()
	var v View
	for _, t := range rows {
		if t.Subject == viewer || t.TS <= cutoff {
			continue
		}
		name := t.Subject
		if u, err := store.GetUser(t.Subject); err == nil && u.Name != "" {
			name = u.Name
		}
		v.Subjects = append(v.Subjects, t.Subject)
		v.Names = append(v.Names, name)
	}
	sort.Strings(v.Names)
	v.Text = indicatorText(v.Names)
	return v, nil
}

func indicatorText(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	case 2:
		return names[0] + " and " + names[1] + " are typing..."
	default:
		return "Several people are typing..."
	}
}

// SweepExpired purges rows older than CleanupAge. Not needed for
// correctness of ActiveTypists, which already filters by freshness; it only
// bounds storage.
func SweepExpired() (int, error) {
	cutoff := now().UTC().Add(-CleanupAge).UnixNano()
	n, err := store.SweepTyping(cutoff)
	if err != nil {
		return 0, err
	}
	telemetry.TypingSweepDeleted.Add(float64(n))
	return n, nil
}
