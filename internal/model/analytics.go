package model

import (
	"time"
)

// AnalyticsEventType enumerates the discrete events the UI and the chat
// pipeline report.
type AnalyticsEventType string

const (
	EventSessionStart       AnalyticsEventType = "session_start"
	EventSessionCompleted   AnalyticsEventType = "session_completed"
	EventMessageSent        AnalyticsEventType = "message_sent"
	EventMessageReceived    AnalyticsEventType = "message_received"
	EventQuickActionClicked AnalyticsEventType = "quick_action_clicked"
)

// AnalyticsEvent is one append-only usage record.
type AnalyticsEvent struct {
	ID              string             `json:"id"`
	Type            AnalyticsEventType `json:"type"`
	SessionID       string             `json:"sessionId"`
	QuickActionType string             `json:"quickActionType,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// DailySummary is the one-row-per-day rolling aggregate. The date key is
// bucketed in Hawaii Standard Time.
type DailySummary struct {
	Date                  string         `json:"date"`
	TotalSessions         int            `json:"totalSessions"`
	UniqueSessions        int            `json:"uniqueSessions"`
	TotalMessages         int            `json:"totalMessages"`
	AvgMessagesPerSession float64        `json:"avgMessagesPerSession"`
	QuickActionClicks     map[string]int `json:"quickActionClicks"`
	CompletedSessions     int            `json:"completedSessions"`
}
