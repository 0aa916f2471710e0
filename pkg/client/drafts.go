package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DraftTTL bounds how long unsent text survives a conversation switch.
const DraftTTL = 5 * time.Minute

var now = time.Now

type draft struct {
	Text    string `json:"text"`
	SavedAt int64  `json:"saved_at"` // unix nanos
}

// DraftStore persists unsent message text per conversation in a single
// JSON file. Entries expire DraftTTL after their last save; expired rows
// are dropped lazily on load and on the next write.
type DraftStore struct {
	mu   sync.Mutex
	path string
}

// NewDraftStore uses the given file path, creating parent directories on
// first write.
func NewDraftStore(path string) *DraftStore {
	return &DraftStore{path: path}
}

func (d *DraftStore) read() map[string]draft {
	out := map[string]draft{}
	b, err := os.ReadFile(d.path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]draft{}
	}
	cutoff := now().Add(-DraftTTL).UnixNano()
	for k, v := range out {
		if v.SavedAt < cutoff {
			delete(out, k)
		}
	}
	return out
}

// write replaces the file via temp+rename so a crash mid-write never
// leaves a truncated draft file behind.
func (d *DraftStore) write(m map[string]draft) error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(d.path), ".drafts-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	_ = f.Sync()
	_ = f.Close()
	return os.Rename(tmp, d.path)
}

// Save stores text for a conversation, stamping the expiry clock. Empty
// text clears the entry instead.
func (d *DraftStore) Save(conversationID, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.read()
	if text == "" {
		delete(m, conversationID)
	} else {
		m[conversationID] = draft{Text: text, SavedAt: now().UnixNano()}
	}
	return d.write(m)
}

// Load returns the unexpired draft for a conversation, if any.
func (d *DraftStore) Load(conversationID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr, ok := d.read()[conversationID]
	if !ok {
		return "", false
	}
	return dr.Text, true
}

// Clear removes the draft for a conversation. Idempotent.
func (d *DraftStore) Clear(conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.read()
	if _, ok := m[conversationID]; !ok {
		return nil
	}
	delete(m, conversationID)
	return d.write(m)
}
