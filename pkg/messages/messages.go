package messages

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/subscribe"
	"chatsync/pkg/telemetry"
)

// MaxContentLen is the post-trim content limit in characters.
const MaxContentLen = 10000

// DeletedPlaceholder replaces soft-deleted content in read paths that
// cannot drop the row (conversation previews, by-id fetches).
const DeletedPlaceholder = "message deleted"

func requireConversation(convID, subject string) (models.Conversation, error) {
	c, err := store.GetConversation(convID)
	if err != nil {
		return c, err
	}
	if !c.HasParticipant(subject) {
		return c, fmt.Errorf("%w: not a participant of %s", errs.ErrUnauthorized, convID)
	}
	return c, nil
}

// Send validates and stores a message, then patches the conversation's
// last-message timestamp. The sender is stored in read_by at insert time,
// so "seen by a recipient" stays len(read_by) > 1. A failed timestamp
// patch after a successful insert is logged, not surfaced: the message must
// remain visible, and the next send repairs the ordering hint.
func Send(convID, sender, content string) (models.Message, error) {
	var m models.Message
	content = strings.TrimSpace(content)
	if content == "" {
		return m, fmt.Errorf("%w: message content is empty", errs.ErrInvalidArgument)
	}
	if len([]rune(content)) > MaxContentLen {
		return m, fmt.Errorf("%w: message content exceeds %d characters", errs.ErrInvalidArgument, MaxContentLen)
	}
	conv, err := requireConversation(convID, sender)
	if err != nil {
		return m, err
	}

	m = models.Message{
		ID:           "msg-" + uuid.NewString(),
		Conversation: convID,
		Sender:       sender,
		Content:      content,
		ReadBy:       []string{sender},
	}
	m, err = store.AppendMessage(m)
	if err != nil {
		return m, err
	}
	telemetry.MessagesSent.Inc()

	if err := store.PatchConversationLastMessage(convID, m.TS); err != nil {
		logger.Log.Warn("last_message_patch_failed", zap.String("conversation", convID), zap.Error(err))
	}

	topics := []string{subscribe.ConversationTopic(convID)}
	for _, p := range conv.Participants {
		topics = append(topics, subscribe.InboxTopic(p))
	}
	subscribe.Publish(topics...)
	return m, nil
}

// List returns the conversation's non-deleted messages in sent order, each
// enriched with the sender's current profile (a deliberate simplification:
// no historical snapshot).
func List(convID, viewer string) ([]models.MessageView, error) {
	if _, err := requireConversation(convID, viewer); err != nil {
		return nil, err
	}
	msgs, err := store.ListMessages(convID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		if m.Deleted {
			continue
		}
		out = append(out, ViewOf(m, viewer))
	}
	return out, nil
}

// ViewOf builds the render projection for one message.
func ViewOf(m models.Message, viewer string) models.MessageView {
	v := models.MessageView{
		ID:           m.ID,
		Conversation: m.Conversation,
		Sender:       m.Sender,
		SenderName:   m.Sender,
		Content:      m.Content,
		TS:           m.TS,
		Deleted:      m.Deleted,
		IsMine:       m.Sender == viewer,
		IsRead:       len(m.ReadBy) > 1,
	}
	if u, err := store.GetUser(m.Sender); err == nil {
		if u.Name != "" {
			v.SenderName = u.Name
		}
		v.SenderAvatar = u.AvatarURL
	}
	if m.Deleted {
		v.Content = DeletedPlaceholder
	}
	v.Reactions = GroupReactions(m.Reactions, viewer)
	return v
}

// GroupReactions aggregates reactions by emoji preserving first-seen order.
func GroupReactions(rs []models.Reaction, viewer string) []models.ReactionGroup {
	if len(rs) == 0 {
		return nil
	}
	idx := map[string]int{}
	var out []models.ReactionGroup
	for _, r := range rs {
		i, ok := idx[r.Emoji]
		if !ok {
			i = len(out)
			idx[r.Emoji] = i
			out = append(out, models.ReactionGroup{Emoji: r.Emoji})
		}
		out[i].Count++
		if r.User == viewer {
			out[i].Reacted = true
		}
	}
	return out
}

// MarkRead adds viewer to the message's read set. Idempotent: already-read
// and sender-self calls change nothing. The read-set append runs inside the
// store's serialized mutate cycle so two members marking the same message
// at once both land.
func MarkRead(msgID, viewer string) error {
	m, _, err := store.GetMessage(msgID)
	if err != nil {
		return err
	}
	if _, err := requireConversation(m.Conversation, viewer); err != nil {
		return err
	}
	changed := false
	m, err = store.MutateMessage(msgID, func(m *models.Message) bool {
		if viewer == m.Sender || m.ReadByUser(viewer) {
			return false
		}
		m.ReadBy = append(m.ReadBy, viewer)
		changed = true
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	telemetry.ReadsMarked.Inc()
	subscribe.Publish(subscribe.ConversationTopic(m.Conversation), subscribe.InboxTopic(viewer))
	return nil
}

// UnreadCount counts non-deleted messages the viewer has not read and did
// not send. Recomputed on every read; never cached.
func UnreadCount(convID, viewer string) (int, error) {
	if _, err := requireConversation(convID, viewer); err != nil {
		return 0, err
	}
	msgs, err := store.ListMessages(convID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if m.Deleted || m.Sender == viewer || m.ReadByUser(viewer) {
			continue
		}
		n++
	}
	return n, nil
}

// ToggleReaction flips the (emoji, viewer) entry: insert if absent, remove
// if present. A retry simply re-flips, which is safe.
func ToggleReaction(msgID, viewer, emoji string) (models.Message, error) {
	var m models.Message
	if strings.TrimSpace(emoji) == "" {
		return m, fmt.Errorf("%w: emoji is empty", errs.ErrInvalidArgument)
	}
	m, _, err := store.GetMessage(msgID)
	if err != nil {
		return m, err
	}
	if _, err := requireConversation(m.Conversation, viewer); err != nil {
		return m, err
	}
	m, err = store.MutateMessage(msgID, func(m *models.Message) bool {
		found := -1
		for i, r := range m.Reactions {
			if r.Emoji == emoji && r.User == viewer {
				found = i
				break
			}
		}
		if found >= 0 {
			m.Reactions = append(m.Reactions[:found], m.Reactions[found+1:]...)
		} else {
			m.Reactions = append(m.Reactions, models.Reaction{Emoji: emoji, User: viewer})
		}
		return true
	})
	if err != nil {
		return m, err
	}
	telemetry.ReactionsToggled.Inc()
	subscribe.Publish(subscribe.ConversationTopic(m.Conversation))
	return m, nil
}

// Delete soft-deletes a message. Only the author may delete; the record is
// retained and read paths suppress the content.
func Delete(msgID, requester string) error {
	m, _, err := store.GetMessage(msgID)
	if err != nil {
		return err
	}
	if m.Sender != requester {
		return fmt.Errorf("%w: only the author can delete a message", errs.ErrUnauthorized)
	}
	changed := false
	m, err = store.MutateMessage(msgID, func(m *models.Message) bool {
		if m.Deleted {
			return false
		}
		m.Deleted = true
		changed = true
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	logger.Log.Info("message_soft_deleted", zap.String("msg_id", msgID), zap.String("conversation", m.Conversation))
	subscribe.Publish(subscribe.ConversationTopic(m.Conversation))
	return nil
}

// LatestPreview returns the newest message as a list preview, with deleted
// content replaced by the placeholder. Returns nil when the conversation
// has no messages.
func LatestPreview(convID string) (*models.MessagePreview, error) {
	msgs, err := store.ListMessages(convID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	p := &models.MessagePreview{
		Sender:     last.Sender,
		SenderName: last.Sender,
		Content:    last.Content,
		TS:         last.TS,
	}
	if u, err := store.GetUser(last.Sender); err == nil && u.Name != "" {
		p.SenderName = u.Name
	}
	if last.Deleted {
		p.Content = DeletedPlaceholder
	}
	return p, nil
}
