package model

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message  string        `json:"message"`
	Messages []ChatMessage `json:"messages,omitempty"`
	ChatID   string        `json:"chatId,omitempty"`
}

// ChatResponse is the composed reply for one turn.
type ChatResponse struct {
	Message   string            `json:"message"`
	Options   []Option          `json:"options,omitempty"`
	ShowInput bool              `json:"showInput"`
	Image     *ImageRef         `json:"image,omitempty"`
	ChatID    string            `json:"chatId"`
	State     ConversationState `json:"state"`
}

// HistoryResponse is the body of GET /api/v1/chat/{id}/history.
type HistoryResponse struct {
	ChatID   string        `json:"chatId"`
	Messages []ChatMessage `json:"messages"`
}

// RecordEventRequest is the body of POST /api/v1/analytics/events.
type RecordEventRequest struct {
	Type            AnalyticsEventType `json:"type"`
	SessionID       string             `json:"sessionId"`
	QuickActionType string             `json:"quickActionType,omitempty"`
}

// SummaryRangeResponse is the body of GET /api/v1/analytics/summary/range.
type SummaryRangeResponse struct {
	Summaries []DailySummary `json:"summaries"`
}

// AISummaryRequest is the body of POST /api/v1/analytics/ai-summary.
type AISummaryRequest struct {
	Summary DailySummary `json:"summary"`
}

// AISummaryResponse carries one generated paragraph of prose.
type AISummaryResponse struct {
	Summary string `json:"summary"`
}
