package internal

import (
	"time"
)

// testCapturedAt is the capture time of every test conversation
var testCapturedAt = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

// CreateTestConversation creates a test conversation with sample data
func CreateTestConversation(sessionID string) *Conversation {
	return CreateTestConversationWithMessages(sessionID, []Message{
		{Role: RoleUser, Content: "Hello, how are you?"},
		{Role: RoleAssistant, Content: "I'm doing well, thank you!"},
	})
}

// CreateTestConversationWithMessages creates a test conversation with custom messages
func CreateTestConversationWithMessages(sessionID string, messages []Message) *Conversation {
	return NewConversation(ProviderChatGPT, sessionID, messages, testCapturedAt, "https://chatgpt.com/c/"+sessionID)
}
