// Package classify infers where a user is in the account-recovery flow
// from the conversation history.
//
// Classification is a heuristic, not a parser: an ordered cascade of
// keyword rules is evaluated top to bottom and the first match wins.
// Contradictory histories resolve by rule order, with one exception: the
// restart override is scoped to the most recent messages so that a user
// who says "not working" after an earlier success is sent back to retry.
package classify

import (
	"regexp"
	"strings"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
)

// recentWindow is how many trailing messages the recency-scoped rules see.
const recentWindow = 3

// phraseList is a set of phrases compiled for whole-word matching.
type phraseList []*regexp.Regexp

// phrases compiles each phrase anchored on word boundaries, so
// "got my username" cannot match inside "forgot my username".
func phrases(list ...string) phraseList {
	compiled := make(phraseList, len(list))
	for i, p := range list {
		expr := regexp.QuoteMeta(p)
		if wordByte(p[0]) {
			expr = `\b` + expr
		}
		if wordByte(p[len(p)-1]) {
			expr += `\b`
		}
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

func wordByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func (pl phraseList) matches(s string) bool {
	for _, re := range pl {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (pl phraseList) count(s string) int {
	n := 0
	for _, re := range pl {
		n += len(re.FindAllStringIndex(s, -1))
	}
	return n
}

// rule is one entry in the ordered cascade.
type rule struct {
	name  string
	state model.ConversationState
	match func(h history) bool
}

// history is the preprocessed view of a conversation the rules match on.
type history struct {
	all    string // lowercased concatenation of every message
	recent string // lowercased concatenation of the trailing window
}

// restartPhrases signal the user wants to retry with different input.
var restartPhrases = phrases(
	"start over",
	"try different email",
	"try a different email",
	"different email",
	"not working",
	"didn't work",
	"nothing in spam",
	"nothing in my spam",
	"try again",
)

var (
	successPhrases        = phrases("successfully")
	successOutcomePhrases = phrases("logged in", "reset password", "reset my password", "it worked")
	resetPhrases          = phrases("password reset")
	resetContextPhrases   = phrases("email", "link")
	haveUsernamePhrases   = phrases("got my username", "have my username", "found my username", "found it!")
	usernamePhrases       = phrases("username")
	usernameSentPhrases   = phrases("sent", "check your email")
	validatedPhrases      = phrases("existing student record", "validation error", "email exists")
	checkingEmailPhrases  = phrases("new user", "right side", "checking email")
	loginErrorPhrases     = phrases(
		"can't log in",
		"can't login",
		"cannot log in",
		"invalid email",
		"invalid username",
		"login error",
		"locked out",
		"lockout",
		"error",
	)
)

// rules is the cascade, in priority order. First match wins; there is no
// re-evaluation and no backtracking.
var rules = []rule{
	{
		name:  "restart_override",
		state: model.StateRestartNeeded,
		match: func(h history) bool {
			return restartPhrases.matches(h.recent)
		},
	},
	{
		name:  "process_complete",
		state: model.StateProcessComplete,
		match: func(h history) bool {
			return successPhrases.matches(h.all) && successOutcomePhrases.matches(h.all)
		},
	},
	{
		name:  "password_reset_in_progress",
		state: model.StatePasswordResetInProgress,
		match: func(h history) bool {
			return resetPhrases.matches(h.all) && resetContextPhrases.matches(h.all)
		},
	},
	{
		name:  "ready_for_password_reset",
		state: model.StateReadyForPasswordReset,
		match: func(h history) bool {
			return haveUsernamePhrases.matches(h.all)
		},
	},
	{
		name:  "username_email_sent",
		state: model.StateUsernameEmailSent,
		match: func(h history) bool {
			return usernamePhrases.matches(h.all) && usernameSentPhrases.matches(h.all)
		},
	},
	{
		name:  "email_validated",
		state: model.StateEmailValidated,
		match: func(h history) bool {
			return validatedPhrases.matches(h.all)
		},
	},
	{
		name:  "checking_email",
		state: model.StateCheckingEmail,
		match: func(h history) bool {
			return checkingEmailPhrases.matches(h.recent)
		},
	},
	{
		name:  "has_login_error",
		state: model.StateHasLoginError,
		match: func(h history) bool {
			return loginErrorPhrases.matches(h.all)
		},
	},
}

// Classify maps a message history to a conversation state. It is a total,
// deterministic function: the same history always yields the same state.
func Classify(messages []model.ChatMessage) model.ConversationState {
	h := preprocess(messages)
	for _, r := range rules {
		if r.match(h) {
			return r.state
		}
	}
	return model.StateInitial
}

func preprocess(messages []model.ChatMessage) history {
	var all, recent strings.Builder
	start := len(messages) - recentWindow
	if start < 0 {
		start = 0
	}
	for i, msg := range messages {
		all.WriteString(strings.ToLower(msg.Content))
		all.WriteString(" ")
		if i >= start {
			recent.WriteString(strings.ToLower(msg.Content))
			recent.WriteString(" ")
		}
	}
	return history{
		all:    all.String(),
		recent: recent.String(),
	}
}
