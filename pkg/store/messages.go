package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

const msgIndexPrefix = "msgid:"

// seq breaks key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// msgMu serializes read-modify-write cycles on message documents. Each
// pebble write is atomic per key, but two concurrent load-mutate-store
// cycles would both read the old document and the slower writer would
// silently drop the faster one's change.
var msgMu sync.Mutex

func msgPrefix(convID string) string { return convPrefix + convID + ":msg:" }

func msgIndexKey(id string) string { return msgIndexPrefix + id }

// AppendMessage inserts a message into its conversation with a sortable
// timestamp key and indexes it by message id for later mutation. The store
// assigns the sent timestamp; messages within one conversation are totally
// ordered by it.
func AppendMessage(m models.Message) (models.Message, error) {
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	m.TS = ts
	key := fmt.Sprintf("%s%020d-%06d", msgPrefix(m.Conversation), ts, s)

	data, err := json.Marshal(m)
	if err != nil {
		return m, fmt.Errorf("failed to marshal message: %w", err)
	}
	// one batch: a message that lists must also resolve by id, or it could
	// never be marked read, reacted to or deleted
	if err := setPairRaw(key, data, msgIndexKey(m.ID), []byte(key)); err != nil {
		logger.Log.Error("save_message_failed", zap.String("conversation", m.Conversation), zap.String("key", key), zap.Error(err))
		return m, err
	}
	logger.Log.Info("message_saved", zap.String("conversation", m.Conversation), zap.String("msg_id", m.ID))
	return m, nil
}

// GetMessage loads a message by id via the msgid index. The returned
// storage key is passed back to UpdateMessage for in-place rewrites.
func GetMessage(id string) (models.Message, string, error) {
	var m models.Message
	kv, err := getRaw(msgIndexKey(id))
	if err != nil {
		return m, "", err
	}
	key := string(kv)
	v, err := getRaw(key)
	if err != nil {
		return m, "", err
	}
	if err := json.Unmarshal(v, &m); err != nil {
		return m, "", fmt.Errorf("invalid message record %s: %w", id, err)
	}
	return m, key, nil
}

// UpdateMessage rewrites a message document in place. Callers mutating an
// existing document must go through MutateMessage instead so the
// load-mutate-store cycle is serialized.
func UpdateMessage(key string, m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return setRaw(key, data)
}

// MutateMessage loads a message by id, applies fn and rewrites the
// document, all under one lock so concurrent mutations of the same
// document never lose writes. fn reports whether it changed the document;
// an unchanged document is not rewritten.
func MutateMessage(id string, fn func(m *models.Message) bool) (models.Message, error) {
	msgMu.Lock()
	defer msgMu.Unlock()
	m, key, err := GetMessage(id)
	if err != nil {
		return m, err
	}
	if !fn(&m) {
		return m, nil
	}
	if err := UpdateMessage(key, m); err != nil {
		return m, err
	}
	return m, nil
}

// ListMessages returns all messages for a conversation in insertion order.
func ListMessages(convID string) ([]models.Message, error) {
	var out []models.Message
	err := scanPrefix(msgPrefix(convID), func(k string, v []byte) error {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			logger.Log.Warn("skipping_invalid_message_record", zap.String("key", k), zap.Error(err))
			return nil
		}
		out = append(out, m)
		return nil
	})
	return out, err
}
