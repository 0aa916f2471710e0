package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

const userPrefix = "user:"

func userKey(subject string) string { return userPrefix + subject }

// SaveUser upserts a user record keyed by subject.
func SaveUser(u models.User) error {
	if strings.TrimSpace(u.Subject) == "" {
		return fmt.Errorf("%w: user subject is empty", errs.ErrInvalidArgument)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := setRaw(userKey(u.Subject), b); err != nil {
		return err
	}
	logger.Log.Debug("user_saved", zap.String("subject", u.Subject))
	return nil
}

// GetUser loads a user by subject.
func GetUser(subject string) (models.User, error) {
	var u models.User
	v, err := getRaw(userKey(subject))
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid user record %s: %w", subject, err)
	}
	return u, nil
}

// DeleteUser removes the record for subject. Deleting an absent record is
// not an error; the webhook retries.
func DeleteUser(subject string) error {
	return deleteRaw(userKey(subject))
}

// ListUsers returns all directory records.
func ListUsers() ([]models.User, error) {
	var out []models.User
	err := scanPrefix(userPrefix, func(_ string, v []byte) error {
		var u models.User
		if err := json.Unmarshal(v, &u); err != nil {
			// skip unknown shapes rather than failing the listing
			logger.Log.Warn("skipping_invalid_user_record", zap.Error(err))
			return nil
		}
		out = append(out, u)
		return nil
	})
	return out, err
}

// TouchUserLastSeen patches LastSeen on an existing record. Returns
// errs.ErrNotFound while the directory sync has not delivered the user yet.
func TouchUserLastSeen(subject string, ts int64) error {
	u, err := GetUser(subject)
	if err != nil {
		return err
	}
	u.LastSeen = ts
	return SaveUser(u)
}
