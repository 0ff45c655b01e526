// Package service orchestrates the chat turn pipeline.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/classify"
	"github.com/manoa-its/helpdesk-assistant/internal/compose"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/internal/scrape"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/metrics"
)

// ErrEmptyMessage is returned when a turn arrives without user text.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ConversationStore persists per-chat message lists.
type ConversationStore interface {
	Save(ctx context.Context, id string, messages []model.ChatMessage) error
	Load(ctx context.Context, id string) ([]model.ChatMessage, bool, error)
}

// PageRetriever produces extracted page text for a URL.
type PageRetriever interface {
	Fetch(ctx context.Context, url string) *model.CachedPage
}

// Recorder is the analytics sink.
type Recorder interface {
	Record(ctx context.Context, event model.AnalyticsEvent) error
}

// Replier composes the reply for a classified turn.
type Replier interface {
	Compose(ctx context.Context, analysis classify.Analysis, page *model.CachedPage, history []model.ChatMessage) *compose.Reply
}

// ChatService runs one stateless request handler invocation per turn:
// classify, optionally scrape, compose, persist, record. External-service
// failures degrade; persistence failures are logged and swallowed so the
// turn still completes from in-memory data.
type ChatService struct {
	conversations ConversationStore
	retriever     PageRetriever
	composer      Replier
	recorder      Recorder
	logger        *logger.Logger
}

// NewChatService creates the turn pipeline.
func NewChatService(
	conversations ConversationStore,
	retriever PageRetriever,
	composer Replier,
	recorder Recorder,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		retriever:     retriever,
		composer:      composer,
		recorder:      recorder,
		logger:        log,
	}
}

// HandleTurn processes one user message and returns the composed reply.
func (s *ChatService) HandleTurn(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	chatID := req.ChatID
	newSession := chatID == ""
	if newSession {
		chatID = uuid.Must(uuid.NewV7()).String()
	}
	log := s.logger.WithChat(chatID)

	history := s.loadHistory(ctx, chatID, req, log)
	history = append(history, model.ChatMessage{
		Role:    model.RoleUser,
		Content: message,
	})

	analysis := classify.Analyze(history)

	var page *model.CachedPage
	if url := scrape.FindURL(message); url != "" {
		page = s.retriever.Fetch(ctx, url)
		if page.Failed() {
			log.Info("page retrieval failed, composing without page context",
				zap.String("url", url),
			)
		}
	}

	reply := s.composer.Compose(ctx, analysis, page, history)

	assistantMsg := model.ChatMessage{
		Role:           model.RoleAssistant,
		Content:        reply.Message,
		AttachedImage:  reply.Image,
		OptionsOffered: reply.Options,
	}
	history = append(history, assistantMsg)

	if err := s.conversations.Save(ctx, chatID, history); err != nil {
		log.Warn("failed to persist conversation, turn continues in memory", zap.Error(err))
		metrics.StoreErrorsTotal.WithLabelValues("conversation", "save").Inc()
	}

	s.recordTurnEvents(ctx, chatID, newSession, analysis.State, log)
	metrics.ChatTurnsTotal.WithLabelValues(string(analysis.State)).Inc()

	return &model.ChatResponse{
		Message:   reply.Message,
		Options:   reply.Options,
		ShowInput: reply.ShowInput,
		Image:     reply.Image,
		ChatID:    chatID,
		State:     analysis.State,
	}, nil
}

// History returns the stored message list for a conversation.
func (s *ChatService) History(ctx context.Context, chatID string) ([]model.ChatMessage, bool, error) {
	return s.conversations.Load(ctx, chatID)
}

// loadHistory prefers the persisted record; the client-supplied message
// list is the fallback when the store has nothing or is unreachable.
func (s *ChatService) loadHistory(ctx context.Context, chatID string, req *model.ChatRequest, log *logger.Logger) []model.ChatMessage {
	stored, found, err := s.conversations.Load(ctx, chatID)
	if err != nil {
		log.Warn("failed to load conversation, using client history", zap.Error(err))
		metrics.StoreErrorsTotal.WithLabelValues("conversation", "load").Inc()
		return req.Messages
	}
	if !found {
		return req.Messages
	}
	return stored
}

func (s *ChatService) recordTurnEvents(ctx context.Context, chatID string, newSession bool, state model.ConversationState, log *logger.Logger) {
	events := make([]model.AnalyticsEvent, 0, 4)
	now := time.Now().UTC()

	if newSession {
		events = append(events, model.AnalyticsEvent{Type: model.EventSessionStart})
	}
	events = append(events,
		model.AnalyticsEvent{Type: model.EventMessageSent},
		model.AnalyticsEvent{Type: model.EventMessageReceived},
	)
	if state == model.StateProcessComplete {
		events = append(events, model.AnalyticsEvent{Type: model.EventSessionCompleted})
	}

	for _, event := range events {
		event.ID = uuid.Must(uuid.NewV7()).String()
		event.SessionID = chatID
		event.CreatedAt = now
		if err := s.recorder.Record(ctx, event); err != nil {
			log.Warn("failed to record analytics event",
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
			metrics.StoreErrorsTotal.WithLabelValues("analytics", "record").Inc()
		}
	}
}
