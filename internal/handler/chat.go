package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/middleware"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/internal/service"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

// ChatHandler handles the chat and history endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ChatID != "" {
		if err := middleware.ValidateChatID(req.ChatID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.chatService.HandleTurn(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("chat turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/v1/chat/{id}/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")
	if err := middleware.ValidateChatID(chatID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, found, err := h.chatService.History(r.Context(), chatID)
	if err != nil {
		h.logger.Error("failed to load history", zap.String("chat_id", chatID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, &model.HistoryResponse{
		ChatID:   chatID,
		Messages: messages,
	})
}
