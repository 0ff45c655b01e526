package compose

import (
	"github.com/manoa-its/helpdesk-assistant/internal/model"
)

// knowledgeBase is the static description of the account-recovery
// procedure. It grounds every prompt so the model never invents steps.
const knowledgeBase = `You are the IT Help Desk assistant for a university login portal.
You walk users through this exact username/password recovery procedure, one
step at a time, and never skip ahead:

Step 1. Go to the login portal and click "Forgot your username or password?"
        below the sign-in form.
Step 2. On the right side of the page, under the "New User?" section, enter
        the personal email address you used when you applied. This checks
        whether an account record exists for you.
Step 3. If the page reports that the email exists (you may see a message
        about an existing student record, or a validation error saying the
        email is already registered), that is good news: your account is
        there. Click "Request Username".
Step 4. Check your personal email inbox for a message containing your
        username. Check the spam folder too. This can take a few minutes.
Step 5. Once you have your username, return to the login page, click
        "Forgot Password", enter the username, and follow the reset link
        that is emailed to you.
Step 6. Log in with your username and new password.

Rules:
- Give exactly one step of instructions per reply.
- Be brief, warm, and concrete. No jargon.
- If the user seems stuck or says something is not working, tell them to
  start over from Step 2 with a different email address they might have
  used when applying.
- Never ask for the user's password.`

// stateGuidance is the extra instruction injected per classified state.
var stateGuidance = map[model.ConversationState]string{
	model.StateInitial:                 "The user has just arrived. Greet them briefly and start with Step 1.",
	model.StateHasLoginError:           "The user hit a login error. Acknowledge it and walk them through Step 1, then point them at Step 2.",
	model.StateCheckingEmail:           "The user is on the New User section. Help them with Step 2: entering their personal email on the right side.",
	model.StateEmailValidated:          "The email was validated against an existing record. Move to Step 3: request the username.",
	model.StateUsernameEmailSent:       "The username email has been sent. Step 4: have them check inbox and spam.",
	model.StateReadyForPasswordReset:   "The user has their username. Step 5: click Forgot Password and follow the reset link.",
	model.StatePasswordResetInProgress: "A password reset email is on its way. Help them finish Step 5 and log in.",
	model.StateProcessComplete:         "The user is back in. Congratulate them briefly and offer further help.",
	model.StateRestartNeeded:           "Something did not work. Calmly restart them from Step 2 with a different email address they might have used.",
}

// fallbackMessages are the canned replies used when the LLM call fails or
// returns nothing. One literal per state.
var fallbackMessages = map[model.ConversationState]string{
	model.StateInitial:                 "Hi! I can help you recover your university account. First, go to the login portal and click \"Forgot your username or password?\" below the sign-in form.",
	model.StateHasLoginError:           "Sorry you're having trouble logging in. Let's fix it: on the login page, click \"Forgot your username or password?\" and we'll recover your account step by step.",
	model.StateCheckingEmail:           "On the right side of the page, under the \"New User?\" section, enter the personal email address you used when you applied. That checks whether your account record exists.",
	model.StateEmailValidated:          "Good news — your email is in our system, so your account exists. Click \"Request Username\" and we'll get your username sent to you.",
	model.StateUsernameEmailSent:       "Your username has been sent. Check your email for your username — and check the spam folder too. It can take a few minutes to arrive.",
	model.StateReadyForPasswordReset:   "Now that you have your username, go back to the login page and click \"Forgot Password\". Enter your username and a reset link will be emailed to you.",
	model.StatePasswordResetInProgress: "A password reset email is on its way. Open the reset link, choose a new password, then log in with your username and the new password.",
	model.StateProcessComplete:         "You're all set! Glad it worked. Is there anything else I can help you with?",
	model.StateRestartNeeded:           "No problem — let's start over. Try Step 2 again with a different email address you might have used when you applied, and tell me what the page says.",
}

// fallbackOptions are the rule-based suggested replies used when the
// secondary options completion fails to parse.
var fallbackOptions = map[model.ConversationState][]model.Option{
	model.StateInitial: {
		{Label: "I forgot my password", Value: "I forgot my password"},
		{Label: "I forgot my username", Value: "I forgot my username"},
		{Label: "I can't log in", Value: "I can't log in"},
	},
	model.StateHasLoginError: {
		{Label: "I found the link", Value: "I found the forgot username link"},
		{Label: "I don't see it", Value: "I don't see that link"},
	},
	model.StateCheckingEmail: {
		{Label: "It says email exists", Value: "It says the email exists"},
		{Label: "It says new user", Value: "It says I'm a new user"},
	},
	model.StateEmailValidated: {
		{Label: "I clicked Request Username", Value: "I clicked request username"},
	},
	model.StateUsernameEmailSent: {
		{Label: "Got my username!", Value: "Got my username"},
		{Label: "Nothing in my inbox", Value: "Nothing in my inbox or spam"},
	},
	model.StateReadyForPasswordReset: {
		{Label: "I clicked Forgot Password", Value: "I clicked forgot password"},
	},
	model.StatePasswordResetInProgress: {
		{Label: "I reset it, logging in", Value: "I reset my password and I'm logging in"},
		{Label: "No reset email yet", Value: "The reset email hasn't arrived"},
	},
	model.StateProcessComplete: {
		{Label: "All good, thanks!", Value: "All good, thanks"},
		{Label: "I have another question", Value: "I have another question"},
	},
	model.StateRestartNeeded: {
		{Label: "Try a different email", Value: "I'll try a different email"},
		{Label: "I'm stuck", Value: "I'm still stuck"},
	},
}

// stateImages maps states to the illustrative screenshot the UI shows
// alongside the reply.
var stateImages = map[model.ConversationState]*model.ImageRef{
	model.StateHasLoginError:           {Src: "/images/steps/forgot-link.png", Alt: "Forgot username or password link"},
	model.StateCheckingEmail:           {Src: "/images/steps/new-user-panel.png", Alt: "New User panel on the right side"},
	model.StateEmailValidated:          {Src: "/images/steps/request-username.png", Alt: "Request Username button"},
	model.StateReadyForPasswordReset:   {Src: "/images/steps/forgot-password.png", Alt: "Forgot Password form"},
	model.StatePasswordResetInProgress: {Src: "/images/steps/reset-email.png", Alt: "Password reset email"},
}
