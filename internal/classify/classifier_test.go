package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
)

func user(content string) model.ChatMessage {
	return model.ChatMessage{Role: model.RoleUser, Content: content}
}

func assistant(content string) model.ChatMessage {
	return model.ChatMessage{Role: model.RoleAssistant, Content: content}
}

func TestClassify_Cascade(t *testing.T) {
	tests := []struct {
		name     string
		messages []model.ChatMessage
		want     model.ConversationState
	}{
		{
			name:     "empty history is initial",
			messages: nil,
			want:     model.StateInitial,
		},
		{
			name:     "greeting is initial",
			messages: []model.ChatMessage{user("hi there")},
			want:     model.StateInitial,
		},
		{
			name:     "login error on first message",
			messages: []model.ChatMessage{user("I can't log in, getting invalid email error")},
			want:     model.StateHasLoginError,
		},
		{
			name:     "locked out is a login error",
			messages: []model.ChatMessage{user("I'm locked out of my account")},
			want:     model.StateHasLoginError,
		},
		{
			name: "new user section is checking email",
			messages: []model.ChatMessage{
				user("I can't log in"),
				user("ok I'm on the right side in the New User box"),
			},
			want: model.StateCheckingEmail,
		},
		{
			name: "existing record means email validated",
			messages: []model.ChatMessage{
				user("I can't log in"),
				user("it says there's an existing student record for that email"),
			},
			want: model.StateEmailValidated,
		},
		{
			name: "username sent",
			messages: []model.ChatMessage{
				user("I forgot my username"),
				assistant("Your username has been sent, check your email for it."),
			},
			want: model.StateUsernameEmailSent,
		},
		{
			name: "got username is ready for reset",
			messages: []model.ChatMessage{
				user("I forgot my username"),
				user("got my username, it's jdoe4"),
			},
			want: model.StateReadyForPasswordReset,
		},
		{
			name: "password reset with email context",
			messages: []model.ChatMessage{
				user("I clicked forgot password"),
				user("the password reset email just arrived with a link"),
			},
			want: model.StatePasswordResetInProgress,
		},
		{
			name: "success phrase completes",
			messages: []model.ChatMessage{
				user("I reset my password"),
				user("I successfully logged in, thanks!"),
			},
			want: model.StateProcessComplete,
		},
		{
			name: "restart phrase in recent window",
			messages: []model.ChatMessage{
				user("I can't log in"),
				user("it's not working, nothing in spam either"),
			},
			want: model.StateRestartNeeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.messages))
		})
	}
}

func TestClassify_ForgotUsernameDoesNotMatchGotUsername(t *testing.T) {
	// Phrases match on word boundaries: "forgot my username" must not
	// satisfy "got my username" and jump the user to the reset step.
	require.Equal(t, model.StateInitial, Classify([]model.ChatMessage{
		user("I forgot my username"),
	}))

	messages := []model.ChatMessage{
		user("I forgot my username"),
		assistant("Your username has been sent, check your email for it."),
	}
	require.Equal(t, model.StateUsernameEmailSent, Classify(messages))
}

func TestClassify_RecentRestartBeatsOldSuccess(t *testing.T) {
	// A success phrase buried in non-recent turns must not block the
	// recency-scoped restart override.
	messages := []model.ChatMessage{
		user("I successfully logged in, it worked"),
		assistant("Great!"),
		user("wait, now something else"),
		user("actually it's not working again"),
		user("still nothing in spam"),
	}
	require.Equal(t, model.StateRestartNeeded, Classify(messages))
}

func TestClassify_OldRestartDoesNotOverride(t *testing.T) {
	// Restart phrases outside the recent window carry no override weight;
	// the completion rule sees the success phrase in the full history.
	messages := []model.ChatMessage{
		user("this is not working"),
		assistant("Let's start from the username request."),
		user("ok requested it"),
		assistant("Check your inbox."),
		user("found it"),
		user("I successfully logged in!"),
		user("thanks so much"),
	}
	require.Equal(t, model.StateProcessComplete, Classify(messages))
}

func TestClassify_Idempotent(t *testing.T) {
	messages := []model.ChatMessage{
		user("I can't log in, getting invalid email error"),
		assistant("Sorry you're having trouble logging in."),
		user("ok what now"),
	}
	first := Classify(messages)
	second := Classify(messages)
	require.Equal(t, first, second)
}

func TestClassify_OrderedCascadeValidationErrorBeatsGenericError(t *testing.T) {
	// "validation error" contains "error"; the email-validated rule sits
	// above the login-error rule and must win.
	messages := []model.ChatMessage{
		user("I entered my email and got a validation error saying it exists"),
	}
	require.Equal(t, model.StateEmailValidated, Classify(messages))
}
