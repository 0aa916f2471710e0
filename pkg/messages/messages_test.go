package messages

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"chatsync/pkg/errs"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
)

// seedConversation creates users and a conversation directly in the store;
// conversation-creation behavior has its own tests.
func seedConversation(t *testing.T, id string, participants ...string) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	for _, p := range participants {
		u := models.User{Subject: p, Name: strings.ToUpper(p[:1]) + p[1:]}
		if err := store.SaveUser(u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	c := models.Conversation{ID: id, Key: id, Participants: participants, CreatedTS: 1}
	if err := store.SaveConversation(c); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
}

func TestSendValidation(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	if _, err := Send("alice_bob", "alice", "   "); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("whitespace-only content should be invalid, got %v", err)
	}
	if _, err := Send("alice_bob", "alice", strings.Repeat("a", MaxContentLen+1)); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("oversized content should be invalid, got %v", err)
	}
	// exactly at the limit is fine
	if _, err := Send("alice_bob", "alice", strings.Repeat("a", MaxContentLen)); err != nil {
		t.Fatalf("content at the limit should pass, got %v", err)
	}
	if _, err := Send("alice_bob", "mallory", "hi"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("non-participant send should be unauthorized, got %v", err)
	}
	if _, err := Send("missing", "alice", "hi"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown conversation should be not-found, got %v", err)
	}
}

func TestSendTrimsAndStamps(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	m, err := Send("alice_bob", "alice", "  hello bob  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.Content != "hello bob" {
		t.Fatalf("content not trimmed: %q", m.Content)
	}
	if m.TS == 0 {
		t.Fatalf("store must assign sentAt")
	}
	if len(m.ReadBy) != 1 || m.ReadBy[0] != "alice" {
		t.Fatalf("sender must be in readBy at insert: %+v", m.ReadBy)
	}

	c, err := store.GetConversation("alice_bob")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if c.LastMessageTS != m.TS {
		t.Fatalf("lastMessageTS not patched: %d vs %d", c.LastMessageTS, m.TS)
	}
}

func TestListExcludesDeleted(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	m1, err := Send("alice_bob", "alice", "first")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := Send("alice_bob", "bob", "second"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := Delete(m1.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	out, err := List("alice_bob", "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Content != "second" {
		t.Fatalf("deleted rows must be dropped from list: %+v", out)
	}
	if out[0].SenderName != "Bob" {
		t.Fatalf("sender profile not resolved: %+v", out[0])
	}
	if out[0].IsMine {
		t.Fatalf("bob's message is not alice's")
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	m, err := Send("alice_bob", "alice", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	n, err := UnreadCount("alice_bob", "bob")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 1 {
		t.Fatalf("bob should have 1 unread, got %d", n)
	}

	for i := 0; i < 3; i++ {
		if err := MarkRead(m.ID, "bob"); err != nil {
			t.Fatalf("markRead #%d: %v", i, err)
		}
	}
	got, _, err := store.GetMessage(m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.ReadBy) != 2 {
		t.Fatalf("repeated markRead must not duplicate: %+v", got.ReadBy)
	}

	// the sender marking their own message is a no-op
	if err := MarkRead(m.ID, "alice"); err != nil {
		t.Fatalf("self markRead: %v", err)
	}

	n, err = UnreadCount("alice_bob", "bob")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 0 {
		t.Fatalf("unread after read = %d, want 0", n)
	}

	view := ViewOf(got, "alice")
	if !view.IsRead {
		t.Fatalf("isRead should flip once a recipient has read")
	}
}

func TestMarkReadConcurrentReaders(t *testing.T) {
	members := []string{"sender", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"}
	seedConversation(t, "bigroom", members...)

	m, err := Send("bigroom", "sender", "read me, everyone")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	errc := make(chan error, len(members)-1)
	for _, r := range members[1:] {
		wg.Add(1)
		go func(viewer string) {
			defer wg.Done()
			<-start
			errc <- MarkRead(m.ID, viewer)
		}(r)
	}
	close(start)
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			t.Fatalf("markRead: %v", err)
		}
	}

	got, _, err := store.GetMessage(m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.ReadBy) != len(members) {
		t.Fatalf("readBy has %d entries, want %d (concurrent reads lost): %+v", len(got.ReadBy), len(members), got.ReadBy)
	}
	seen := map[string]bool{}
	for _, r := range got.ReadBy {
		if seen[r] {
			t.Fatalf("duplicate read mark for %s: %+v", r, got.ReadBy)
		}
		seen[r] = true
	}
	for _, r := range members[1:] {
		n, err := UnreadCount("bigroom", r)
		if err != nil {
			t.Fatalf("unread: %v", err)
		}
		if n != 0 {
			t.Fatalf("%s still shows %d unread after marking", r, n)
		}
	}
}

func TestUnreadCountSkipsOwnAndDeleted(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	if _, err := Send("alice_bob", "alice", "one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	m2, err := Send("alice_bob", "alice", "two")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := Send("alice_bob", "bob", "from bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := Delete(m2.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	n, err := UnreadCount("alice_bob", "bob")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 1 {
		t.Fatalf("bob unread = %d, want 1 (deleted and own excluded)", n)
	}
}

func TestToggleReactionFlips(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	m, err := Send("alice_bob", "alice", "react to me")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	r1, err := ToggleReaction(m.ID, "bob", "👍")
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if len(r1.Reactions) != 1 {
		t.Fatalf("reactions: %+v", r1.Reactions)
	}
	r2, err := ToggleReaction(m.ID, "bob", "👍")
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if len(r2.Reactions) != 0 {
		t.Fatalf("second toggle must remove: %+v", r2.Reactions)
	}

	if _, err := ToggleReaction(m.ID, "bob", " "); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("blank emoji should be invalid, got %v", err)
	}
	if _, err := ToggleReaction(m.ID, "mallory", "👍"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("non-participant should be unauthorized, got %v", err)
	}
}

func TestGroupReactionsProjection(t *testing.T) {
	rs := []models.Reaction{
		{Emoji: "👍", User: "alice"},
		{Emoji: "❤️", User: "bob"},
		{Emoji: "👍", User: "bob"},
	}
	groups := GroupReactions(rs, "bob")
	if len(groups) != 2 {
		t.Fatalf("groups: %+v", groups)
	}
	if groups[0].Emoji != "👍" || groups[0].Count != 2 || !groups[0].Reacted {
		t.Fatalf("first group: %+v", groups[0])
	}
	if groups[1].Emoji != "❤️" || groups[1].Count != 1 || !groups[1].Reacted {
		t.Fatalf("second group: %+v", groups[1])
	}
	if GroupReactions(nil, "bob") != nil {
		t.Fatalf("no reactions should project to nil")
	}
}

func TestDeleteIsAuthorOnlyAndSoft(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	m, err := Send("alice_bob", "alice", "delete me")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := Delete(m.ID, "bob"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("only the author may delete, got %v", err)
	}
	if err := Delete(m.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := Delete(m.ID, "alice"); err != nil {
		t.Fatalf("repeat delete should be a no-op, got %v", err)
	}

	got, _, err := store.GetMessage(m.ID)
	if err != nil {
		t.Fatalf("record must be retained after delete, got %v", err)
	}
	if !got.Deleted {
		t.Fatalf("not marked deleted")
	}
	v := ViewOf(got, "bob")
	if v.Content != DeletedPlaceholder {
		t.Fatalf("by-id view must hide content, got %q", v.Content)
	}
}

func TestLatestPreview(t *testing.T) {
	seedConversation(t, "alice_bob", "alice", "bob")

	p, err := LatestPreview("alice_bob")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p != nil {
		t.Fatalf("empty conversation should have no preview")
	}

	if _, err := Send("alice_bob", "alice", "older"); err != nil {
		t.Fatalf("send: %v", err)
	}
	last, err := Send("alice_bob", "bob", "latest")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	p, err = LatestPreview("alice_bob")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p == nil || p.Content != "latest" || p.SenderName != "Bob" {
		t.Fatalf("preview: %+v", p)
	}

	if err := Delete(last.ID, "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p, err = LatestPreview("alice_bob")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.Content != DeletedPlaceholder {
		t.Fatalf("deleted latest should show the placeholder, got %q", p.Content)
	}
}
