// Package model defines data structures for the helpdesk assistant.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ImageRef points at an illustrative screenshot served by the UI.
type ImageRef struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// Option is a predefined reply a user can pick instead of free-typing.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChatMessage is one turn entry in a conversation.
//
// The stored message list is append-only within a session and replaced
// wholesale on every persist.
type ChatMessage struct {
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	AttachedImage  *ImageRef `json:"attachedImage,omitempty"`
	OptionsOffered []Option  `json:"optionsOffered,omitempty"`
}

// ConversationRecord is the persisted form of a conversation.
type ConversationRecord struct {
	ID       string        `json:"id"`
	Messages []ChatMessage `json:"messages"`
}
