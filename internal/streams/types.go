package streams

// Stream name constants
const (
	StreamDeliveries = "briefing:deliveries"
	StreamAcks       = "briefing:acks"
)

// Consumer group constants
const (
	GroupChatAdapters = "chat-adapters" // external delivery side
	GroupGoWorkers    = "go-workers"    // this service
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// Delivery represents a rendered briefing published for chat adapters
type Delivery struct {
	RunID      string `json:"run_id"`
	ChatKey    string `json:"chat_key"`
	SourceName string `json:"source_name"`
	Text       string `json:"text"`
}

// DeliveryAck represents a chat adapter's acknowledgement of a delivery
type DeliveryAck struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`     // delivered/failed
	MessageID string `json:"message_id"` // adapter's message reference
	Error     string `json:"error"`      // error message if failed
}
