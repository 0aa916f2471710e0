package models

// TypingState is the ephemeral per-(conversation,user) typing record.
// One row per pair; writes are upserts of TS.
type TypingState struct {
	Conversation string `json:"conversation"`
	Subject      string `json:"subject"`
	// Last typing timestamp (ns). A row counts as "currently typing" only
	// while it is younger than the display window; older rows are swept by
	// the janitor.
	TS int64 `json:"ts"`
}
