package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

const (
	convPrefix    = "conv:"
	convKeyPrefix = "convkey:"
)

func convMetaKey(id string) string { return convPrefix + id + ":meta" }
func convIndexKey(key string) string { return convKeyPrefix + key }

// convKeyMu serializes the check-and-set on the convkey index. The loser
// of a creation race gets ErrKeyExists and must re-read the index; it never
// touches the winner's meta document.
var convKeyMu sync.Mutex

// convMetaMu serializes read-modify-write cycles on conversation meta.
var convMetaMu sync.Mutex

// SaveConversation stores conversation metadata under a reserved key.
func SaveConversation(c models.Conversation) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := setRaw(convMetaKey(c.ID), b); err != nil {
		return err
	}
	logger.Log.Info("conversation_saved", zap.String("conversation", c.ID))
	return nil
}

// GetConversation loads conversation metadata by id.
func GetConversation(id string) (models.Conversation, error) {
	var c models.Conversation
	v, err := getRaw(convMetaKey(id))
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(v, &c); err != nil {
		return c, fmt.Errorf("invalid conversation record %s: %w", id, err)
	}
	return c, nil
}

// ListConversations returns all conversation metadata records. This is a
// full scan filtered by the caller; acceptable at the target data scale but
// the first thing to index by participant when the dataset grows.
func ListConversations() ([]models.Conversation, error) {
	var out []models.Conversation
	err := scanPrefix(convPrefix, func(k string, v []byte) error {
		if !strings.HasSuffix(k, ":meta") {
			return nil
		}
		var c models.Conversation
		if err := json.Unmarshal(v, &c); err != nil {
			logger.Log.Warn("skipping_invalid_conversation_record", zap.String("key", k), zap.Error(err))
			return nil
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// CreateConversation claims the dedup key and stores the meta document as
// one serialized step, the two writes batched so neither can land alone.
// Returns ErrKeyExists, without writing anything, when another writer
// already claimed the key.
func CreateConversation(c models.Conversation) error {
	convKeyMu.Lock()
	defer convKeyMu.Unlock()
	if _, err := getRaw(convIndexKey(c.Key)); err == nil {
		return ErrKeyExists
	} else if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := setPairRaw(convMetaKey(c.ID), b, convIndexKey(c.Key), []byte(c.ID)); err != nil {
		return err
	}
	logger.Log.Info("conversation_created", zap.String("conversation", c.ID))
	return nil
}

// LookupConversationKey resolves a conversation key to its id, or
// errs.ErrNotFound.
func LookupConversationKey(key string) (string, error) {
	v, err := getRaw(convIndexKey(key))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// PatchConversationLastMessage bumps last_message_ts. The cycle is locked
// so two concurrent sends cannot roll the stamp backwards. Failure here
// after a successful message insert is an accepted inconsistency window:
// the message stays visible and the next send repairs the ordering hint.
func PatchConversationLastMessage(id string, ts int64) error {
	convMetaMu.Lock()
	defer convMetaMu.Unlock()
	c, err := GetConversation(id)
	if err != nil {
		return err
	}
	if ts > c.LastMessageTS {
		c.LastMessageTS = ts
	}
	return SaveConversation(c)
}
