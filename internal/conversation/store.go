// Package conversation persists per-chat message lists.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/kv"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

// Store persists the ordered message list of each conversation. Every save
// replaces the whole list and rewrites the entry, which restarts the bucket
// TTL: active conversations never expire, abandoned ones do.
type Store struct {
	store  kv.Store
	logger *logger.Logger
}

// NewStore creates a conversation store over the given bucket.
func NewStore(store kv.Store, log *logger.Logger) *Store {
	return &Store{
		store:  store,
		logger: log,
	}
}

func key(id string) string {
	return "conversation." + id
}

// Save replaces the full message list for a conversation.
func (s *Store) Save(ctx context.Context, id string, messages []model.ChatMessage) error {
	record := model.ConversationRecord{
		ID:       id,
		Messages: messages,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := s.store.Put(ctx, key(id), data); err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", id, err)
	}
	return nil
}

// Load returns the stored message list, or absence when no record exists.
// An undecodable record is treated as absent; the store applies no schema
// validation beyond deserialization.
func (s *Store) Load(ctx context.Context, id string) ([]model.ChatMessage, bool, error) {
	data, found, err := s.store.Get(ctx, key(id))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}

	var record model.ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("stored conversation has unexpected shape",
			zap.String("chat_id", id),
			zap.Error(err),
		)
		return nil, false, nil
	}

	return record.Messages, true, nil
}
