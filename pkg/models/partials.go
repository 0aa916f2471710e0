package models

// Read-side projections. These are computed per request and never stored;
// composite values (unread counts, presence, typing text) must be
// re-derived on every read because no cross-document transaction exists.

// UserView is a profile snapshot enriched with derived presence.
type UserView struct {
	Subject       string `json:"subject"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Status        string `json:"status"`
	StatusText    string `json:"status_text"`
	IsCurrentUser bool   `json:"is_current_user,omitempty"`
}

// MessagePreview is the latest-message summary shown in conversation lists.
type MessagePreview struct {
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	TS         int64  `json:"ts"`
}

// ConversationSummary is one row of the viewer's conversation list.
type ConversationSummary struct {
	ID          string          `json:"id"`
	IsGroup     bool            `json:"is_group,omitempty"`
	GroupName   string          `json:"group_name,omitempty"`
	MemberCount int             `json:"member_count,omitempty"`
	Other       *UserView       `json:"other,omitempty"`
	LastMessage *MessagePreview `json:"last_message,omitempty"`
	// LastActivityTS is last_message_ts falling back to created_ts; the
	// list is sorted descending by it.
	LastActivityTS int64 `json:"last_activity_ts"`
	Unread         int   `json:"unread"`
}

// ReactionGroup aggregates reactions by emoji for display.
type ReactionGroup struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

// MessageView is a message enriched for rendering: current sender profile,
// deleted-content suppression, viewer-relative read/reaction state.
type MessageView struct {
	ID           string          `json:"id"`
	Conversation string          `json:"conversation"`
	Sender       string          `json:"sender"`
	SenderName   string          `json:"sender_name"`
	SenderAvatar string          `json:"sender_avatar,omitempty"`
	Content      string          `json:"content"`
	TS           int64           `json:"ts"`
	Deleted      bool            `json:"deleted,omitempty"`
	IsMine       bool            `json:"is_mine,omitempty"`
	// IsRead is true once someone besides the sender has read the message.
	IsRead    bool            `json:"is_read"`
	Reactions []ReactionGroup `json:"reactions,omitempty"`
}
