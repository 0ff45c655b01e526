package classify

import (
	"regexp"
	"strings"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
)

// frustrationThreshold is the recent-window match count at which the
// sentiment is promoted to frustrated.
const frustrationThreshold = 3

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

var frustrationPhrases = phrases(
	"not working",
	"doesn't work",
	"still can't",
	"still cannot",
	"nothing happened",
	"this is ridiculous",
	"frustrated",
	"give up",
	"ugh",
	"come on",
	"again?",
)

// Analysis is the richer classification of a conversation: the resolved
// state plus signals the composer uses to soften or redirect replies.
type Analysis struct {
	State            model.ConversationState
	Step             int
	Emails           []string
	FrustrationScore int
	Sentiment        model.Sentiment
}

// stepRule maps wording in the last assistant message to the step the user
// was most recently instructed to perform.
type stepRule struct {
	step    int
	state   model.ConversationState
	phrases phraseList
}

// assistantRules is ordered from latest step to earliest; first match wins.
var assistantRules = []stepRule{
	{6, model.StateProcessComplete, phrases(
		"you're all set",
		"glad it worked",
		"glad you're back in",
		"successfully logged in",
	)},
	{5, model.StatePasswordResetInProgress, phrases(
		"password reset email",
		"reset link",
		"check your inbox for the reset",
	)},
	{5, model.StateReadyForPasswordReset, phrases(
		"now that you have your username",
		`click "forgot password"`,
		"forgot password link",
	)},
	{4, model.StateUsernameEmailSent, phrases(
		"username has been sent",
		"check your email for your username",
		"email with your username",
	)},
	{3, model.StateEmailValidated, phrases(
		"your email is in our system",
		"existing student record",
		"request your username",
	)},
	{2, model.StateCheckingEmail, phrases(
		"right side of the page",
		"new user section",
		"enter your email address",
	)},
	{1, model.StateHasLoginError, phrases(
		"trouble logging in",
		"sorry you're locked out",
		"forgot your username",
	)},
}

// Analyze layers the assistant-message-driven pass over the user-driven
// cascade. Resolution when the two disagree: the restart override always
// wins; otherwise the assistant-driven state is authoritative because it
// reflects the last instruction actually given; the user-driven cascade is
// the fallback.
func Analyze(messages []model.ChatMessage) Analysis {
	a := Analysis{
		State:     model.StateInitial,
		Emails:    extractEmails(messages),
		Sentiment: model.SentimentNeutral,
	}

	a.FrustrationScore = frustrationScore(messages)
	if a.FrustrationScore >= frustrationThreshold {
		a.Sentiment = model.SentimentFrustrated
	}

	userState := Classify(messages)
	assistantStep, assistantState, found := lastAssistantStep(messages)

	switch {
	case userState == model.StateRestartNeeded:
		a.State = model.StateRestartNeeded
		a.Step = assistantStep
	case found:
		a.State = assistantState
		a.Step = assistantStep
	default:
		a.State = userState
		a.Step = stepForState(userState)
	}

	return a
}

func lastAssistantStep(messages []model.ChatMessage) (int, model.ConversationState, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != model.RoleAssistant {
			continue
		}
		content := strings.ToLower(messages[i].Content)
		for _, r := range assistantRules {
			if r.phrases.matches(content) {
				return r.step, r.state, true
			}
		}
		return 0, model.StateInitial, false
	}
	return 0, model.StateInitial, false
}

// stepForState gives the step number implied by a user-driven state, used
// when no assistant message has matched yet.
func stepForState(state model.ConversationState) int {
	switch state {
	case model.StateHasLoginError:
		return 1
	case model.StateCheckingEmail:
		return 2
	case model.StateEmailValidated:
		return 3
	case model.StateUsernameEmailSent:
		return 4
	case model.StateReadyForPasswordReset, model.StatePasswordResetInProgress:
		return 5
	case model.StateProcessComplete:
		return 6
	default:
		return 0
	}
}

// extractEmails collects every email address mentioned across the history,
// deduplicated case-insensitively in first-seen order.
func extractEmails(messages []model.ChatMessage) []string {
	seen := make(map[string]struct{})
	var emails []string
	for _, msg := range messages {
		for _, match := range emailRe.FindAllString(msg.Content, -1) {
			lower := strings.ToLower(match)
			if _, ok := seen[lower]; ok {
				continue
			}
			seen[lower] = struct{}{}
			emails = append(emails, lower)
		}
	}
	return emails
}

func frustrationScore(messages []model.ChatMessage) int {
	start := len(messages) - recentWindow
	if start < 0 {
		start = 0
	}
	var recent strings.Builder
	for _, msg := range messages[start:] {
		if msg.Role != model.RoleUser {
			continue
		}
		recent.WriteString(strings.ToLower(msg.Content))
		recent.WriteString(" ")
	}

	return frustrationPhrases.count(recent.String())
}
