package client

import (
	"path/filepath"
	"testing"
	"time"
)

func fixNow(t *testing.T, at time.Time) func(time.Time) {
	t.Helper()
	old := now
	current := at
	now = func() time.Time { return current }
	t.Cleanup(func() { now = old })
	return func(to time.Time) { current = to }
}

func newTestDrafts(t *testing.T) *DraftStore {
	t.Helper()
	return NewDraftStore(filepath.Join(t.TempDir(), "drafts.json"))
}

func TestDraftRoundTrip(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	d := newTestDrafts(t)

	if _, ok := d.Load("c1"); ok {
		t.Fatalf("empty store should have no draft")
	}
	if err := d.Save("c1", "half-typed message"); err != nil {
		t.Fatalf("save: %v", err)
	}
	text, ok := d.Load("c1")
	if !ok || text != "half-typed message" {
		t.Fatalf("got %q, %v", text, ok)
	}

	// drafts are per conversation
	if _, ok := d.Load("c2"); ok {
		t.Fatalf("draft leaked across conversations")
	}
}

func TestDraftExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	advance := fixNow(t, base)
	d := newTestDrafts(t)

	if err := d.Save("c1", "keep me a while"); err != nil {
		t.Fatalf("save: %v", err)
	}

	advance(base.Add(DraftTTL - time.Second))
	if text, ok := d.Load("c1"); !ok || text != "keep me a while" {
		t.Fatalf("draft should survive within the TTL, got %q, %v", text, ok)
	}

	advance(base.Add(DraftTTL + time.Second))
	if _, ok := d.Load("c1"); ok {
		t.Fatalf("draft should expire after the TTL")
	}
}

func TestDraftSaveRefreshesExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	advance := fixNow(t, base)
	d := newTestDrafts(t)

	if err := d.Save("c1", "v1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	advance(base.Add(4 * time.Minute))
	if err := d.Save("c1", "v2"); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	advance(base.Add(8 * time.Minute))
	if text, ok := d.Load("c1"); !ok || text != "v2" {
		t.Fatalf("re-save should restart the clock, got %q, %v", text, ok)
	}
}

func TestDraftClear(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	d := newTestDrafts(t)

	if err := d.Save("c1", "text"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := d.Clear("c1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := d.Clear("c1"); err != nil {
		t.Fatalf("repeat clear should be a no-op, got %v", err)
	}
	if _, ok := d.Load("c1"); ok {
		t.Fatalf("cleared draft still present")
	}

	// saving empty text also clears
	if err := d.Save("c2", "x"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := d.Save("c2", ""); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := d.Load("c2"); ok {
		t.Fatalf("empty save should clear")
	}
}

func TestDraftsPersistAcrossInstances(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	path := filepath.Join(t.TempDir(), "drafts.json")

	d1 := NewDraftStore(path)
	if err := d1.Save("c1", "survives restarts"); err != nil {
		t.Fatalf("save: %v", err)
	}

	d2 := NewDraftStore(path)
	if text, ok := d2.Load("c1"); !ok || text != "survives restarts" {
		t.Fatalf("got %q, %v", text, ok)
	}
}
