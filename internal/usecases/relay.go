package usecases

import (
	"fmt"

	"whatsflow/internal/interfaces"
)

// Relay delivers outbound replies over the transport, chunking long
// completions and degrading media sends to plain text.
type Relay struct {
	messenger interfaces.Messenger
}

func NewRelay(messenger interfaces.Messenger) *Relay {
	return &Relay{messenger: messenger}
}

func (r *Relay) SendText(to, text string) error {
	return r.messenger.SendMessage(to, text)
}

// SendWithMedia sends text with an attachment. A failed media send retries
// exactly once as plain text with the same content.
func (r *Relay) SendWithMedia(to, text, mediaURL string) error {
	if mediaURL == "" {
		return r.messenger.SendMessage(to, text)
	}
	if err := r.messenger.SendMediaMessage(to, text, mediaURL); err != nil {
		fmt.Printf("[relay] media send failed (%s), retrying as text: %v\n", mediaURL, err)
		return r.messenger.SendMessage(to, text)
	}
	return nil
}

// SendChunks splits text into sentence chunks and sends them in order.
// A failed chunk is logged and processing continues with the next one.
func (r *Relay) SendChunks(to, text string) {
	for _, chunk := range SplitReply(text) {
		if err := r.messenger.SendMessage(to, chunk); err != nil {
			fmt.Printf("[relay] chunk send to %s failed: %v\n", to, err)
		}
	}
}
