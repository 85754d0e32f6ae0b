// Package chat sends rendered briefing text to the external chat
// collaborator over its webhook API.
package chat

// Message is the outbound payload delivered to the chat webhook.
type Message struct {
	ChatKey string `json:"chat_key"`
	Text    string `json:"text"`
	Format  string `json:"format"` // always "text" for briefings
}

// SendResult is the collaborator's acknowledgement of an accepted message.
type SendResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}
