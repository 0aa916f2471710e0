package presence

import (
	"testing"
	"time"

	"chatsync/pkg/models"
	"chatsync/pkg/store"
)

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })
}

func TestStatusOfThresholds(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixNow(t, base)

	cases := []struct {
		name  string
		delta time.Duration
		want  string
	}{
		{"just now", 0, StatusActive},
		{"just under active window", ActiveWindow - time.Millisecond, StatusActive},
		{"at active boundary", ActiveWindow, StatusRecent},
		{"just under recent window", RecentWindow - time.Millisecond, StatusRecent},
		{"at recent boundary", RecentWindow, StatusOffline},
		{"long gone", 24 * time.Hour, StatusOffline},
	}
	for _, tc := range cases {
		lastSeen := base.Add(-tc.delta).UnixNano()
		if got := StatusOf(lastSeen); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
	if got := StatusOf(0); got != StatusOffline {
		t.Fatalf("never seen: got %s", got)
	}
}

func TestOnlineNowIsStricter(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixNow(t, base)

	// 30s ago: "active" in a conversation header, but not "online now" in
	// the directory listing. The two policies disagree on purpose.
	lastSeen := base.Add(-30 * time.Second).UnixNano()
	if StatusOf(lastSeen) != StatusActive {
		t.Fatalf("30s ago should be active")
	}
	if OnlineNow(lastSeen) {
		t.Fatalf("30s ago must not count as online now")
	}
	if !OnlineNow(base.Add(-OnlineWindow + time.Millisecond).UnixNano()) {
		t.Fatalf("just inside the online window should count")
	}
	if OnlineNow(base.Add(-OnlineWindow).UnixNano()) {
		t.Fatalf("at the boundary should not count")
	}
	if OnlineNow(0) {
		t.Fatalf("never seen is never online")
	}
}

func TestStatusText(t *testing.T) {
	if StatusText(StatusActive) != "Active now" {
		t.Fatalf("active text: %q", StatusText(StatusActive))
	}
	if StatusText(StatusRecent) != "Active recently" {
		t.Fatalf("recent text: %q", StatusText(StatusRecent))
	}
	if StatusText(StatusOffline) != "Offline" {
		t.Fatalf("offline text: %q", StatusText(StatusOffline))
	}
}

func TestHeartbeatSoftFailsBeforeSync(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ok, err := Heartbeat("not-synced-yet")
	if err != nil {
		t.Fatalf("unsynced heartbeat must not error, got %v", err)
	}
	if ok {
		t.Fatalf("unsynced heartbeat should report not ready")
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixNow(t, base)
	if err := store.SaveUser(models.User{Subject: "alice", Name: "Alice"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ok, err = Heartbeat("alice")
	if err != nil || !ok {
		t.Fatalf("heartbeat: ok=%v err=%v", ok, err)
	}
	u, err := store.GetUser("alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.LastSeen != base.UnixNano() {
		t.Fatalf("lastSeen = %d, want %d", u.LastSeen, base.UnixNano())
	}
	if StatusOf(u.LastSeen) != StatusActive || !OnlineNow(u.LastSeen) {
		t.Fatalf("fresh heartbeat should read as active and online")
	}
}

func TestMarkOfflineRewinds(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixNow(t, base)

	if err := store.SaveUser(models.User{Subject: "alice", Name: "Alice", LastSeen: base.UnixNano()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := MarkOffline("alice"); err != nil {
		t.Fatalf("markOffline: %v", err)
	}
	u, err := store.GetUser("alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if StatusOf(u.LastSeen) != StatusOffline {
		t.Fatalf("after markOffline status = %s", StatusOf(u.LastSeen))
	}

	// unsynced subjects are a no-op, same race as heartbeat
	if err := MarkOffline("ghost"); err != nil {
		t.Fatalf("markOffline for unsynced subject must not error, got %v", err)
	}
}
