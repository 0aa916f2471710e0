package conversations

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/messages"
	"chatsync/pkg/models"
	"chatsync/pkg/presence"
	"chatsync/pkg/store"
	"chatsync/pkg/subscribe"
)

// now is swapped out by tests.
var now = time.Now

// DirectKey is the deterministic dedup key for a direct pair: the sorted
// subjects joined by "_". It doubles as the conversation id for direct
// chats.
func DirectKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

func requireUser(subject string) error {
	if _, err := store.GetUser(subject); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %s", errs.ErrNotFound, subject)
		}
		return err
	}
	return nil
}

// GetOrCreate resolves the direct conversation between two users, creating
// it on first contact. Two simultaneous calls for the same pair converge on
// one conversation: the insert of the dedup index is not assumed atomic
// against concurrent creation, so an insert conflict triggers a re-lookup
// and the loser adopts the winner's id.
func GetOrCreate(a, b string) (models.Conversation, error) {
	var c models.Conversation
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" || a == b {
		return c, fmt.Errorf("%w: a direct conversation needs two distinct participants", errs.ErrInvalidArgument)
	}
	if err := requireUser(a); err != nil {
		return c, err
	}
	if err := requireUser(b); err != nil {
		return c, err
	}

	key := DirectKey(a, b)
	if id, err := store.LookupConversationKey(key); err == nil {
		return store.GetConversation(id)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return c, err
	}

	c = models.Conversation{
		ID:           key,
		Key:          key,
		Participants: []string{a, b},
		CreatedTS:    now().UTC().UnixNano(),
	}
	sort.Strings(c.Participants)
	if err := store.CreateConversation(c); err != nil {
		if errors.Is(err, store.ErrKeyExists) {
			winner, lerr := store.LookupConversationKey(key)
			if lerr != nil {
				return c, lerr
			}
			logger.Log.Info("conversation_create_race_resolved", zap.String("key", key), zap.String("winner", winner))
			return store.GetConversation(winner)
		}
		return c, err
	}
	subscribe.Publish(subscribe.InboxTopic(a), subscribe.InboxTopic(b))
	return c, nil
}

// CreateGroup creates a new group conversation with the creator plus at
// least two other members. Groups are never deduplicated; every call makes
// a fresh one under a random token.
func CreateGroup(creator string, others []string, name string) (models.Conversation, error) {
	var c models.Conversation
	name = strings.TrimSpace(name)
	if name == "" {
		return c, fmt.Errorf("%w: group name is required", errs.ErrInvalidArgument)
	}

	set := map[string]struct{}{creator: {}}
	for _, o := range others {
		o = strings.TrimSpace(o)
		if o != "" {
			set[o] = struct{}{}
		}
	}
	if len(set) < 3 {
		return c, fmt.Errorf("%w: a group needs the creator and at least two others", errs.ErrInvalidArgument)
	}
	members := make([]string, 0, len(set))
	for m := range set {
		if err := requireUser(m); err != nil {
			return c, err
		}
		members = append(members, m)
	}
	sort.Strings(members)

	token := fmt.Sprintf("group_%d_%s", now().UTC().UnixMilli(), uuid.NewString()[:8])
	c = models.Conversation{
		ID:           token,
		Key:          token,
		Participants: members,
		CreatedTS:    now().UTC().UnixNano(),
		IsGroup:      true,
		GroupName:    name,
		CreatedBy:    creator,
	}
	if err := store.CreateConversation(c); err != nil {
		return c, err
	}
	logger.Log.Info("group_created", zap.String("conversation", c.ID), zap.Int("members", len(members)))
	topics := make([]string, 0, len(members))
	for _, m := range members {
		topics = append(topics, subscribe.InboxTopic(m))
	}
	subscribe.Publish(topics...)
	return c, nil
}

// RequireParticipant loads a conversation and authorizes the viewer.
// Responses built from the Unauthorized error must not reveal whether the
// conversation exists.
func RequireParticipant(id, viewer string) (models.Conversation, error) {
	c, err := store.GetConversation(id)
	if err != nil {
		return c, err
	}
	if !c.HasParticipant(viewer) {
		return c, fmt.Errorf("%w: not a participant of %s", errs.ErrUnauthorized, id)
	}
	return c, nil
}

// GetByID returns the viewer's header projection: the other participant's
// profile with tri-state presence for direct chats, name and member count
// for groups.
func GetByID(id, viewer string) (models.ConversationSummary, error) {
	c, err := RequireParticipant(id, viewer)
	if err != nil {
		return models.ConversationSummary{}, err
	}
	return summarize(c, viewer)
}

func summarize(c models.Conversation, viewer string) (models.ConversationSummary, error) {
	s := models.ConversationSummary{
		ID:             c.ID,
		IsGroup:        c.IsGroup,
		LastActivityTS: c.LastMessageTS,
	}
	if s.LastActivityTS == 0 {
		s.LastActivityTS = c.CreatedTS
	}
	if c.IsGroup {
		s.GroupName = c.GroupName
		s.MemberCount = len(c.Participants)
	} else {
		other := c.Other(viewer)
		if u, err := store.GetUser(other); err == nil {
			v := presence.ViewOf(u, false)
			s.Other = &v
		} else {
			// deleted account; keep the row with a bare subject
			s.Other = &models.UserView{Subject: other, Name: other, Status: presence.StatusOffline, StatusText: presence.StatusText(presence.StatusOffline)}
		}
	}
	return s, nil
}

// ListForViewer scans all conversations, keeps the viewer's, enriches each
// with the latest-message preview, presence and unread count, and sorts
// descending by last activity. Full-scan-then-filter is fine at this data
// scale; index by participant before porting to large deployments.
func ListForViewer(viewer string) ([]models.ConversationSummary, error) {
	all, err := store.ListConversations()
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationSummary, 0, len(all))
	for _, c := range all {
		if !c.HasParticipant(viewer) {
			continue
		}
		s, err := summarize(c, viewer)
		if err != nil {
			return nil, err
		}
		if s.LastMessage, err = messages.LatestPreview(c.ID); err != nil {
			return nil, err
		}
		if s.Unread, err = messages.UnreadCount(c.ID, viewer); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivityTS > out[j].LastActivityTS
	})
	return out, nil
}

// GetGroupMembers returns each member's profile with presence and a
// self-highlighting flag.
func GetGroupMembers(id, viewer string) ([]models.UserView, error) {
	c, err := RequireParticipant(id, viewer)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserView, 0, len(c.Participants))
	for _, p := range c.Participants {
		u, err := store.GetUser(p)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				out = append(out, models.UserView{Subject: p, Name: p, Status: presence.StatusOffline, StatusText: presence.StatusText(presence.StatusOffline), IsCurrentUser: p == viewer})
				continue
			}
			return nil, err
		}
		out = append(out, presence.ViewOf(u, p == viewer))
	}
	return out, nil
}
