package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manoa-its/helpdesk-assistant/internal/classify"
	"github.com/manoa-its/helpdesk-assistant/internal/llm"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

type scriptedResponse struct {
	content string
	err     error
}

type mockLLM struct {
	responses []scriptedResponse
	requests  []*llm.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	idx := len(m.requests)
	m.requests = append(m.requests, req)
	if idx >= len(m.responses) {
		return nil, errors.New("no scripted response")
	}
	r := m.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{Content: r.content}, nil
}

func (m *mockLLM) Name() string { return "mock" }

func loginErrorAnalysis() classify.Analysis {
	return classify.Analysis{
		State:     model.StateHasLoginError,
		Step:      1,
		Sentiment: model.SentimentNeutral,
	}
}

func history() []model.ChatMessage {
	return []model.ChatMessage{
		{Role: model.RoleUser, Content: "I can't log in, getting invalid email error"},
	}
}

func TestCompose_UsesLLMReply(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "Sorry about that! Click the forgot link to start."},
		{content: `{"options":[{"label":"Found it","value":"I found the link"}],"showInput":true}`},
	}}
	c := New(mock, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.Equal(t, "Sorry about that! Click the forgot link to start.", reply.Message)
	require.Equal(t, []model.Option{{Label: "Found it", Value: "I found the link"}}, reply.Options)
	require.True(t, reply.ShowInput)
}

func TestCompose_FallsBackToCannedOnError(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{err: errors.New("service unavailable")},
		{err: errors.New("service unavailable")},
	}}
	c := New(mock, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.Equal(t, fallbackMessages[model.StateHasLoginError], reply.Message)
	require.Equal(t, fallbackOptions[model.StateHasLoginError], reply.Options)
	require.True(t, reply.ShowInput)
}

func TestCompose_FallsBackToCannedOnEmptyReply(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "   "},
		{err: errors.New("skip options")},
	}}
	c := New(mock, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())
	require.Equal(t, fallbackMessages[model.StateHasLoginError], reply.Message)
}

func TestCompose_NilClientUsesCannedEverything(t *testing.T) {
	c := New(nil, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.Equal(t, fallbackMessages[model.StateHasLoginError], reply.Message)
	require.Equal(t, fallbackOptions[model.StateHasLoginError], reply.Options)
	require.True(t, reply.ShowInput)
}

func TestCompose_SystemPromptCarriesStateAndKnowledgeBase(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{err: errors.New("skip options")},
	}}
	c := New(mock, logger.NewNop())

	c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.NotEmpty(t, mock.requests)
	system := mock.requests[0].System
	require.Contains(t, system, "Step 1.")
	require.Contains(t, system, "has_login_error")
	require.NotContains(t, system, "The user shared a web page")
}

func TestCompose_PageContextIncludedWhenPresent(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{err: errors.New("skip options")},
	}}
	c := New(mock, logger.NewNop())

	page := &model.CachedPage{
		URL:     "https://its.example.edu/help",
		Title:   "Login Help",
		Content: "Use the New User panel.",
	}
	c.Compose(context.Background(), loginErrorAnalysis(), page, history())

	system := mock.requests[0].System
	require.Contains(t, system, "Use the New User panel.")
	require.Contains(t, system, "Login Help")
}

func TestCompose_FailedPageContributesNoContext(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{err: errors.New("skip options")},
	}}
	c := New(mock, logger.NewNop())

	page := &model.CachedPage{
		URL:   "https://its.example.edu/help",
		Error: "Failed to scrape URL",
	}
	reply := c.Compose(context.Background(), loginErrorAnalysis(), page, history())

	require.Equal(t, "reply", reply.Message)
	require.NotContains(t, mock.requests[0].System, "The user shared a web page")
}

func TestCompose_FrustrationSoftensPrompt(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{err: errors.New("skip options")},
	}}
	c := New(mock, logger.NewNop())

	analysis := loginErrorAnalysis()
	analysis.Sentiment = model.SentimentFrustrated
	c.Compose(context.Background(), analysis, nil, history())

	require.Contains(t, mock.requests[0].System, "frustrated")
}

func TestCompose_MalformedOptionsDegradeToRuleBased(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{content: "sorry, no JSON today"},
	}}
	c := New(mock, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.Equal(t, fallbackOptions[model.StateHasLoginError], reply.Options)
	require.True(t, reply.ShowInput)
}

func TestCompose_OptionsClampedToFour(t *testing.T) {
	var labels []string
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		labels = append(labels, `{"label":"`+s+`","value":"`+s+`"}`)
	}
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "reply"},
		{content: `{"options":[` + strings.Join(labels, ",") + `],"showInput":false}`},
	}}
	c := New(mock, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())

	require.Len(t, reply.Options, 4)
	require.False(t, reply.ShowInput)
}

func TestCompose_AttachesStateImage(t *testing.T) {
	c := New(nil, logger.NewNop())

	reply := c.Compose(context.Background(), loginErrorAnalysis(), nil, history())
	require.NotNil(t, reply.Image)

	initial := classify.Analysis{State: model.StateInitial, Sentiment: model.SentimentNeutral}
	reply = c.Compose(context.Background(), initial, nil, history())
	require.Nil(t, reply.Image)
}

func TestAISummary_FallbackOnError(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{err: errors.New("service unavailable")},
	}}
	c := New(mock, logger.NewNop())

	summary := model.DailySummary{
		Date:                  "2025-03-01",
		TotalSessions:         4,
		UniqueSessions:        3,
		TotalMessages:         20,
		AvgMessagesPerSession: 5,
		CompletedSessions:     2,
	}
	got := c.AISummary(context.Background(), summary)

	require.Contains(t, got, "2025-03-01")
	require.Contains(t, got, "4 sessions")
	require.Contains(t, got, "2 sessions completed")
}

func TestAISummary_UsesLLMProse(t *testing.T) {
	mock := &mockLLM{responses: []scriptedResponse{
		{content: "A quiet day at the help desk."},
	}}
	c := New(mock, logger.NewNop())

	got := c.AISummary(context.Background(), model.DailySummary{Date: "2025-03-01"})
	require.Equal(t, "A quiet day at the help desk.", got)
}
