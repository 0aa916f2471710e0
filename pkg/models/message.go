package models

// Reaction is one user's reaction to a message. At most one entry exists
// per (emoji, user) pair; toggling removes it again.
type Reaction struct {
	Emoji string `json:"emoji"`
	User  string `json:"user"`
}

// Message is the stored message document. It is never hard-deleted;
// deletion sets the flag and read paths suppress the content.
type Message struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation"`
	Sender       string `json:"sender"`
	Content      string `json:"content"`
	// Sent timestamp (ns), assigned by the store at insert time; messages
	// within one conversation are totally ordered by it.
	TS      int64 `json:"ts"`
	Deleted bool  `json:"deleted,omitempty"`
	// ReadBy lists subjects that have viewed the message. The sender is
	// inserted at send time, so "seen by a recipient" is len(ReadBy) > 1.
	ReadBy    []string   `json:"read_by,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

// ReadByUser reports whether subject has already read the message.
func (m *Message) ReadByUser(subject string) bool {
	for _, s := range m.ReadBy {
		if s == subject {
			return true
		}
	}
	return false
}
