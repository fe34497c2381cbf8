package entities

import "time"

// FlowRule is a keyword-to-reply binding owned by a chatbot flow.
// FlowActive reflects the owning flow's is_active flag at fetch time.
type FlowRule struct {
	ID         int64  `json:"id"`
	ChatbotID  int64  `json:"chatbot_id"`
	Keyword    string `json:"keyword"`
	Reply      string `json:"reply"`
	MediaURL   string `json:"media_url"`
	FlowActive bool   `json:"flow_active"`
}

// Welcome is a tenant's one-time greeting
type Welcome struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url"`
}

// SessionRecord tracks welcome delivery and idle state per (contact, team)
type SessionRecord struct {
	Contact         string    `json:"contact"`
	TeamID          int64     `json:"team_id"`
	ReceivedWelcome bool      `json:"received_welcome"`
	LastInteraction time.Time `json:"last_interaction"`
}

// Operator is a portal account allowed to pair the device and inspect status
type Operator struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
