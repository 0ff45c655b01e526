package model

// ConversationState is the classifier's view of where the user is in the
// fixed account-recovery flow. It is recomputed from the full message
// history on every turn, never persisted.
type ConversationState string

const (
	StateInitial                 ConversationState = "initial"
	StateHasLoginError           ConversationState = "has_login_error"
	StateCheckingEmail           ConversationState = "checking_email_validation"
	StateEmailValidated          ConversationState = "email_validated_ready_for_username"
	StateUsernameEmailSent       ConversationState = "username_email_sent"
	StateReadyForPasswordReset   ConversationState = "ready_for_password_reset"
	StatePasswordResetInProgress ConversationState = "password_reset_in_progress"
	StateProcessComplete         ConversationState = "process_complete"
	StateRestartNeeded           ConversationState = "restart_needed"
)

// Sentiment is the coarse mood derived from recent user messages.
type Sentiment string

const (
	SentimentNeutral    Sentiment = "neutral"
	SentimentFrustrated Sentiment = "frustrated"
)
