package usecases

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMsg struct {
	to       string
	content  string
	mediaURL string
}

type fakeMessenger struct {
	sent          []sentMsg
	failMedia     bool
	failText      bool
	mediaAttempts int
	textAttempts  int
}

func (m *fakeMessenger) SendMessage(to, content string) error {
	m.textAttempts++
	if m.failText {
		return errors.New("text send failed")
	}
	m.sent = append(m.sent, sentMsg{to: to, content: content})
	return nil
}

func (m *fakeMessenger) SendMediaMessage(to, content, mediaURL string) error {
	m.mediaAttempts++
	if m.failMedia {
		return errors.New("media send failed")
	}
	m.sent = append(m.sent, sentMsg{to: to, content: content, mediaURL: mediaURL})
	return nil
}

func (m *fakeMessenger) texts() []string {
	var out []string
	for _, s := range m.sent {
		out = append(out, s.content)
	}
	return out
}

func TestSendWithMediaSuccess(t *testing.T) {
	m := &fakeMessenger{}
	relay := NewRelay(m)

	require.NoError(t, relay.SendWithMedia("5215550001", "mira esto", "https://cdn.example.com/menu.jpg"))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "https://cdn.example.com/menu.jpg", m.sent[0].mediaURL)
}

func TestSendWithMediaFallsBackToTextOnce(t *testing.T) {
	m := &fakeMessenger{failMedia: true}
	relay := NewRelay(m)

	require.NoError(t, relay.SendWithMedia("5215550001", "mira esto", "https://cdn.example.com/menu.jpg"))

	// Exactly one media attempt, then exactly one plain-text retry
	assert.Equal(t, 1, m.mediaAttempts)
	assert.Equal(t, 1, m.textAttempts)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "mira esto", m.sent[0].content)
	assert.Empty(t, m.sent[0].mediaURL)
}

func TestSendWithMediaNoURLSendsPlainText(t *testing.T) {
	m := &fakeMessenger{}
	relay := NewRelay(m)

	require.NoError(t, relay.SendWithMedia("5215550001", "hola", ""))
	assert.Equal(t, 0, m.mediaAttempts)
	require.Len(t, m.sent, 1)
	assert.Empty(t, m.sent[0].mediaURL)
}

func TestSendChunksInOrder(t *testing.T) {
	m := &fakeMessenger{}
	relay := NewRelay(m)

	relay.SendChunks("5215550001", "Hola. Tenemos tortas. Cuestan $9.5 cada una. Saludos.")

	assert.Equal(t, []string{"Hola", "Tenemos tortas", "Cuestan $9.5 cada una", "Saludos."}, m.texts())
}

func TestSendChunksContinuesPastFailures(t *testing.T) {
	m := &fakeMessenger{failText: true}
	relay := NewRelay(m)

	// Must not panic or abort; every chunk is attempted
	relay.SendChunks("5215550001", "Uno. Dos. Tres")
	assert.Equal(t, 3, m.textAttempts)
	assert.Empty(t, m.sent)
}
