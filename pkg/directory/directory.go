package directory

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/presence"
	"chatsync/pkg/store"
	"chatsync/pkg/subscribe"
)

// The directory mirrors identity-provider accounts. Records arrive through
// the sync webhook, keyed idempotently by subject; the core never invents
// users on its own.

// SyncUpsert creates or updates the record for a subject, preserving the
// locally-maintained lastSeen across profile updates.
func SyncUpsert(subject, name, email, avatarURL string) (models.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return models.User{}, fmt.Errorf("%w: subject is required", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return models.User{}, fmt.Errorf("%w: name is required", errs.ErrInvalidArgument)
	}
	u := models.User{Subject: subject, Name: name, Email: email, AvatarURL: avatarURL}
	if prev, err := store.GetUser(subject); err == nil {
		u.LastSeen = prev.LastSeen
	} else if !errors.Is(err, errs.ErrNotFound) {
		return models.User{}, err
	}
	if err := store.SaveUser(u); err != nil {
		return models.User{}, err
	}
	logger.Log.Info("directory_user_synced", zap.String("subject", subject))
	subscribe.Publish(subscribe.DirectoryTopic)
	return u, nil
}

// Delete removes a user on an account-deletion event. Idempotent.
func Delete(subject string) error {
	if err := store.DeleteUser(subject); err != nil {
		return err
	}
	logger.Log.Info("directory_user_deleted", zap.String("subject", subject))
	subscribe.Publish(subscribe.DirectoryTopic)
	return nil
}

// Get loads one profile.
func Get(subject string) (models.User, error) {
	return store.GetUser(subject)
}

// Entry is one row of the user-directory listing. Online uses the strict
// 10-second policy, which intentionally disagrees with the tri-state
// presence shown in conversation headers.
type Entry struct {
	Subject       string `json:"subject"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Online        bool   `json:"online"`
	IsCurrentUser bool   `json:"is_current_user,omitempty"`
}

// List returns every known user ordered by name, flagging who is online
// right now and which row is the viewer.
func List(viewer string) ([]Entry, error) {
	users, err := store.ListUsers()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(users))
	for _, u := range users {
		out = append(out, Entry{
			Subject:       u.Subject,
			Name:          u.Name,
			Email:         u.Email,
			AvatarURL:     u.AvatarURL,
			Online:        presence.OnlineNow(u.LastSeen),
			IsCurrentUser: u.Subject == viewer,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
