package analytics

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

// noon UTC on 2025-03-01 is 02:00 HST the same day.
var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "analytics.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var eventSeq int

func event(typ model.AnalyticsEventType, sessionID string) model.AnalyticsEvent {
	eventSeq++
	return model.AnalyticsEvent{
		ID:        fmt.Sprintf("evt-%d", eventSeq),
		Type:      typ,
		SessionID: sessionID,
		CreatedAt: testTime,
	}
}

func TestDateKey_BucketsInHST(t *testing.T) {
	// 08:00 UTC is still 22:00 HST the previous day.
	early := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-03-01", DateKey(early))

	late := time.Date(2025, 3, 2, 11, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-03-02", DateKey(late))
}

func TestRecord_SessionStartsCountTotalAndUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-b")))

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalSessions)
	require.Equal(t, 2, summary.UniqueSessions)
}

func TestRecord_RepeatedStartForSameSessionNotUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-a")))

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalSessions)
	require.Equal(t, 1, summary.UniqueSessions)
}

func TestRecord_MessagesAndCompletions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventMessageSent, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventMessageReceived, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventMessageSent, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventMessageReceived, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventSessionCompleted, "session-a")))

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalSessions)
	require.Equal(t, 4, summary.TotalMessages)
	require.Equal(t, 1, summary.CompletedSessions)
}

func TestRecord_QuickActionTallyIncrementsOnlyItsKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	quickAction := func(actionType string) model.AnalyticsEvent {
		e := event(model.EventQuickActionClicked, "session-a")
		e.QuickActionType = actionType
		return e
	}

	require.NoError(t, s.Record(ctx, quickAction("I forgot my password")))
	require.NoError(t, s.Record(ctx, quickAction("I forgot my password")))
	require.NoError(t, s.Record(ctx, quickAction("I forgot my username")))

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"I forgot my password": 2,
		"I forgot my username": 1,
	}, summary.QuickActionClicks)
	require.Equal(t, 0, summary.TotalMessages)
}

func TestRecord_QuickActionWithoutTypeBucketedAsUnknown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event(model.EventQuickActionClicked, "session-a")))

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.Equal(t, map[string]int{"unknown": 1}, summary.QuickActionClicks)
}

func TestRecord_UnknownEventTypeRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.Record(context.Background(), event("page_viewed", "session-a"))
	require.Error(t, err)

	_, err = s.Summary(context.Background(), DateKey(testTime))
	require.ErrorIs(t, err, ErrNoSummary)
}

func TestSummary_AverageComputedOnRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-a")))
	require.NoError(t, s.Record(ctx, event(model.EventSessionStart, "session-b")))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, event(model.EventMessageSent, "session-a")))
	}

	summary, err := s.Summary(ctx, DateKey(testTime))
	require.NoError(t, err)
	require.InDelta(t, 2.5, summary.AvgMessagesPerSession, 0.001)
}

func TestSummary_MissingDate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Summary(context.Background(), "1999-01-01")
	require.ErrorIs(t, err, ErrNoSummary)
}

func TestRange_ReturnsOrderedDays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dayOne := event(model.EventSessionStart, "session-a")
	dayTwo := event(model.EventSessionStart, "session-b")
	dayTwo.CreatedAt = testTime.Add(24 * time.Hour)
	dayThree := event(model.EventSessionStart, "session-c")
	dayThree.CreatedAt = testTime.Add(48 * time.Hour)

	require.NoError(t, s.Record(ctx, dayTwo))
	require.NoError(t, s.Record(ctx, dayOne))
	require.NoError(t, s.Record(ctx, dayThree))

	summaries, err := s.Range(ctx, "2025-03-01", "2025-03-02")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "2025-03-01", summaries[0].Date)
	require.Equal(t, "2025-03-02", summaries[1].Date)
}

func TestRange_NoMatchingDaysIsEmptyNotNil(t *testing.T) {
	s := newTestStore(t)

	summaries, err := s.Range(context.Background(), "1999-01-01", "1999-01-31")
	require.NoError(t, err)
	require.NotNil(t, summaries)
	require.Empty(t, summaries)
}

func TestRecord_SingleSummaryRowPerDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := event(model.EventSessionStart, fmt.Sprintf("session-%d", i))
		require.NoError(t, s.Record(ctx, e))
	}

	var rows int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM daily_summaries WHERE day = ?`, DateKey(testTime),
	).Scan(&rows))
	require.Equal(t, 1, rows)
}
