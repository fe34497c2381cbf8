package entities

// Turn roles in a conversation history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a contact's conversation history
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message is an inbound message delivered by the transport
type Message struct {
	From     string // contact phone number (JID suffix stripped)
	Content  string
	PushName string // WhatsApp display name, may be empty
}
