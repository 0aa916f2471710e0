package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

const typingPrefix = "typing:"

func typingKey(convID, subject string) string {
	return typingPrefix + convID + ":" + subject
}

// UpsertTyping writes the (conversation,user) typing row. One row exists
// per pair; repeated calls only refresh the timestamp.
func UpsertTyping(t models.TypingState) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal typing state: %w", err)
	}
	return setRaw(typingKey(t.Conversation, t.Subject), b)
}

// DeleteTyping removes the row if present; deleting an absent row is a
// no-op so clears are safe to call twice.
func DeleteTyping(convID, subject string) error {
	err := deleteRaw(typingKey(convID, subject))
	if err != nil && errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	return err
}

// ListTyping returns all typing rows for a conversation, fresh or stale;
// the caller applies the freshness window.
func ListTyping(convID string) ([]models.TypingState, error) {
	var out []models.TypingState
	err := scanPrefix(typingPrefix+convID+":", func(k string, v []byte) error {
		var t models.TypingState
		if err := json.Unmarshal(v, &t); err != nil {
			logger.Log.Warn("skipping_invalid_typing_record", zap.String("key", k), zap.Error(err))
			return nil
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// SweepTyping deletes all typing rows older than cutoff (ns) across every
// conversation and returns the number removed. Read paths already filter by
// freshness; the sweep only bounds storage growth.
func SweepTyping(cutoff int64) (int, error) {
	var stale []string
	err := scanPrefix(typingPrefix, func(k string, v []byte) error {
		var t models.TypingState
		if err := json.Unmarshal(v, &t); err != nil {
			stale = append(stale, k)
			return nil
		}
		if t.TS < cutoff {
			stale = append(stale, k)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range stale {
		if err := deleteRaw(k); err != nil {
			return 0, err
		}
	}
	if len(stale) > 0 {
		logger.Log.Info("typing_rows_swept", zap.Int("count", len(stale)))
	}
	return len(stale), nil
}
