// Package compose turns a classified conversation state into a reply,
// grounding the LLM in the fixed recovery procedure and degrading to
// canned text when the service fails.
package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/classify"
	"github.com/manoa-its/helpdesk-assistant/internal/llm"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/metrics"
)

const (
	// historyLimit bounds how many trailing turns are replayed to the LLM.
	historyLimit = 20

	maxSuggestedOptions = 4
)

// Reply is the composed response for one turn.
type Reply struct {
	Message   string
	Options   []model.Option
	ShowInput bool
	Image     *model.ImageRef
}

// Composer builds prompts and obtains completions. A nil LLM client is
// allowed; every reply then comes from the canned per-state fallbacks.
type Composer struct {
	llm    llm.Client
	logger *logger.Logger
}

// New creates a composer.
func New(client llm.Client, log *logger.Logger) *Composer {
	return &Composer{
		llm:    client,
		logger: log,
	}
}

// Compose produces the reply for a turn. The history already includes the
// current user message as its last entry. Page may be nil or failed; a
// failed page contributes no context rather than failing the turn.
func (c *Composer) Compose(ctx context.Context, analysis classify.Analysis, page *model.CachedPage, history []model.ChatMessage) *Reply {
	reply := &Reply{
		Message:   c.primary(ctx, analysis, page, history),
		ShowInput: true,
		Image:     stateImages[analysis.State],
	}

	options, showInput := c.suggestOptions(ctx, analysis.State, history)
	reply.Options = options
	reply.ShowInput = showInput

	return reply
}

func (c *Composer) primary(ctx context.Context, analysis classify.Analysis, page *model.CachedPage, history []model.ChatMessage) string {
	if c.llm == nil {
		return fallbackMessages[analysis.State]
	}

	req := &llm.CompletionRequest{
		System:      c.systemPrompt(analysis, page),
		Messages:    toTurns(history),
		MaxTokens:   512,
		Temperature: 0.4,
	}

	start := time.Now()
	resp, err := c.llm.Complete(ctx, req)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			c.logger.Warn("primary completion failed, using canned reply",
				zap.String("state", string(analysis.State)),
				zap.Error(err),
			)
		}
		metrics.RecordLLMRequest(c.llm.Name(), "reply", "error", time.Since(start).Seconds())
		metrics.LLMFallbacksTotal.WithLabelValues("reply").Inc()
		return fallbackMessages[analysis.State]
	}

	metrics.RecordLLMRequest(c.llm.Name(), "reply", "success", time.Since(start).Seconds())
	return strings.TrimSpace(resp.Content)
}

func (c *Composer) systemPrompt(analysis classify.Analysis, page *model.CachedPage) string {
	var b strings.Builder
	b.WriteString(knowledgeBase)

	b.WriteString("\n\nThe user is currently at: ")
	b.WriteString(string(analysis.State))
	if guidance, ok := stateGuidance[analysis.State]; ok {
		b.WriteString("\n")
		b.WriteString(guidance)
	}

	if analysis.Sentiment == model.SentimentFrustrated {
		b.WriteString("\nThe user sounds frustrated. Be extra patient and reassuring.")
	}
	if len(analysis.Emails) > 0 {
		b.WriteString("\nEmail addresses the user has mentioned: ")
		b.WriteString(strings.Join(analysis.Emails, ", "))
	}

	if page != nil && !page.Failed() && page.Content != "" {
		b.WriteString("\n\nThe user shared a web page. Its content, for reference:\n")
		b.WriteString("Title: " + page.Title + "\n")
		b.WriteString(page.Content)
	}

	return b.String()
}

// optionsEnvelope is the structured shape requested from the secondary
// completion.
type optionsEnvelope struct {
	Options   []model.Option `json:"options"`
	ShowInput *bool          `json:"showInput"`
}

// suggestOptions asks the LLM for 2-4 short suggested replies as JSON and
// parses the output defensively. Any failure degrades to the rule-based
// per-state option set with free-text input enabled.
func (c *Composer) suggestOptions(ctx context.Context, state model.ConversationState, history []model.ChatMessage) ([]model.Option, bool) {
	if c.llm == nil {
		return fallbackOptions[state], true
	}

	var last string
	if len(history) > 0 {
		last = history[len(history)-1].Content
	}

	req := &llm.CompletionRequest{
		System: `Suggest short replies the user might tap next in an IT-support chat.
Respond with JSON only, in the form
{"options":[{"label":"...","value":"..."}],"showInput":true}
with 2 to 4 options. Labels are at most 5 words. Set showInput to false
only when the options fully cover the sensible replies.`,
		Messages: []llm.ChatMessage{{
			Role:    string(model.RoleUser),
			Content: fmt.Sprintf("Conversation state: %s\nLast message: %s", state, last),
		}},
		MaxTokens:   256,
		Temperature: 0.2,
	}

	start := time.Now()
	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		c.logger.Debug("options completion failed, using rule-based set", zap.Error(err))
		metrics.RecordLLMRequest(c.llm.Name(), "options", "error", time.Since(start).Seconds())
		metrics.LLMFallbacksTotal.WithLabelValues("options").Inc()
		return fallbackOptions[state], true
	}
	metrics.RecordLLMRequest(c.llm.Name(), "options", "success", time.Since(start).Seconds())

	options, showInput, ok := parseOptions(resp.Content)
	if !ok {
		metrics.LLMFallbacksTotal.WithLabelValues("options").Inc()
		return fallbackOptions[state], true
	}
	return options, showInput
}

// parseOptions extracts and validates the options envelope from LLM free
// text. It is separated from the calling logic so the fallback path can be
// exercised without an LLM.
func parseOptions(raw string) ([]model.Option, bool, bool) {
	block, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, true, false
	}

	var envelope optionsEnvelope
	if err := json.Unmarshal([]byte(block), &envelope); err != nil {
		return nil, true, false
	}

	var options []model.Option
	for _, opt := range envelope.Options {
		if strings.TrimSpace(opt.Label) == "" || strings.TrimSpace(opt.Value) == "" {
			continue
		}
		options = append(options, opt)
		if len(options) == maxSuggestedOptions {
			break
		}
	}
	if len(options) == 0 {
		return nil, true, false
	}

	showInput := true
	if envelope.ShowInput != nil {
		showInput = *envelope.ShowInput
	}
	return options, showInput, true
}

// AISummary generates one paragraph of prose describing a daily analytics
// snapshot, with a deterministic fallback when the LLM is unavailable.
func (c *Composer) AISummary(ctx context.Context, summary model.DailySummary) string {
	fallback := fmt.Sprintf(
		"On %s the assistant handled %d sessions (%d unique) and %d messages, averaging %.1f messages per session; %d sessions completed the recovery flow.",
		summary.Date, summary.TotalSessions, summary.UniqueSessions,
		summary.TotalMessages, summary.AvgMessagesPerSession, summary.CompletedSessions,
	)

	if c.llm == nil {
		return fallback
	}

	snapshot, err := json.Marshal(summary)
	if err != nil {
		return fallback
	}

	start := time.Now()
	resp, err := c.llm.Complete(ctx, &llm.CompletionRequest{
		System: "Write one short paragraph of plain prose summarizing this IT help desk usage snapshot for a staff dashboard. No lists, no markdown.",
		Messages: []llm.ChatMessage{{
			Role:    string(model.RoleUser),
			Content: string(snapshot),
		}},
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		metrics.RecordLLMRequest(c.llm.Name(), "summary", "error", time.Since(start).Seconds())
		metrics.LLMFallbacksTotal.WithLabelValues("summary").Inc()
		return fallback
	}
	metrics.RecordLLMRequest(c.llm.Name(), "summary", "success", time.Since(start).Seconds())
	return strings.TrimSpace(resp.Content)
}

func toTurns(history []model.ChatMessage) []llm.ChatMessage {
	start := len(history) - historyLimit
	if start < 0 {
		start = 0
	}
	turns := make([]llm.ChatMessage, 0, len(history)-start)
	for _, msg := range history[start:] {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			continue
		}
		turns = append(turns, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return turns
}
