package models

// User mirrors an identity-provider account into the local directory.
// Records are created and updated only by the directory-sync webhook and
// removed only on an explicit account-deletion event.
type User struct {
	// Subject is the stable identity-provider subject; it is the record key.
	Subject   string `json:"subject"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	// LastSeen timestamp (ns). Presence is derived from this on read;
	// there is no stored online flag.
	LastSeen int64 `json:"last_seen,omitempty"`
}
