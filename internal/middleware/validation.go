package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > 10000 {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateChatID validates a conversation identifier.
func ValidateChatID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid chat ID format")
	}
	return nil
}

// ValidateDateKey validates a YYYY-MM-DD analytics date key.
func ValidateDateKey(date string) error {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return errors.New("invalid date format, expected YYYY-MM-DD")
	}
	for i, c := range date {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return errors.New("invalid date format, expected YYYY-MM-DD")
		}
	}
	return nil
}
