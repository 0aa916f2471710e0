package models

// Conversation holds identity and membership for a direct or group chat.
// Participants are immutable after creation.
type Conversation struct {
	ID string `json:"id"`
	// Key deduplicates direct conversations: sorted "<a>_<b>" for pairs,
	// a random "group_<ts>_<rand>" token for groups.
	Key          string   `json:"key"`
	Participants []string `json:"participants"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts"`
	// LastMessageTS (ns) - patched on every successful send; zero until the
	// first message.
	LastMessageTS int64  `json:"last_message_ts,omitempty"`
	IsGroup       bool   `json:"is_group,omitempty"`
	GroupName     string `json:"group_name,omitempty"`
	// CreatedBy is set for groups only.
	CreatedBy string `json:"created_by,omitempty"`
}

// HasParticipant reports whether subject belongs to the conversation.
func (c *Conversation) HasParticipant(subject string) bool {
	for _, p := range c.Participants {
		if p == subject {
			return true
		}
	}
	return false
}

// Other returns the participant that is not viewer. Only meaningful for
// direct conversations.
func (c *Conversation) Other(viewer string) string {
	for _, p := range c.Participants {
		if p != viewer {
			return p
		}
	}
	return ""
}
