package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsflow/internal/entities"
	"whatsflow/internal/infrastructure"
)

type fakeResolver struct {
	teamID int64
	err    error
	gotKey string
}

func (r *fakeResolver) ResolveTeamID(_ context.Context, botKey string) (int64, error) {
	r.gotKey = botKey
	return r.teamID, r.err
}

type fakeFlows struct {
	rules      []entities.FlowRule
	rulesErr   error
	welcome    entities.Welcome
	welcomeErr error
}

func (f *fakeFlows) GetFlowRules(_ context.Context, _ int64) ([]entities.FlowRule, error) {
	return f.rules, f.rulesErr
}

func (f *fakeFlows) GetWelcome(_ context.Context, _ int64) (entities.Welcome, error) {
	return f.welcome, f.welcomeErr
}

type fakeResponder struct {
	enabled    bool
	reply      string
	err        error
	calls      int
	gotHistory []entities.Turn
	gotName    string
}

func (r *fakeResponder) Enabled(_ context.Context, _ int64) bool {
	return r.enabled
}

func (r *fakeResponder) Respond(_ context.Context, _ int64, history []entities.Turn, displayName string) (string, error) {
	r.calls++
	r.gotHistory = history
	r.gotName = displayName
	return r.reply, r.err
}

type denyThrottle struct{}

func (denyThrottle) Allow(string) bool { return false }

type dispatchEnv struct {
	dispatcher *Dispatcher
	resolver   *fakeResolver
	flows      *fakeFlows
	sessions   *fakeSessionStore
	history    *infrastructure.HistoryStore
	responder  *fakeResponder
	messenger  *fakeMessenger
}

func newDispatchEnv() *dispatchEnv {
	env := &dispatchEnv{
		resolver:  &fakeResolver{teamID: 7},
		flows:     &fakeFlows{},
		sessions:  newFakeSessionStore(),
		history:   infrastructure.NewHistoryStore(),
		responder: &fakeResponder{},
		messenger: &fakeMessenger{},
	}
	tracker := NewSessionTracker(env.sessions, env.history)
	env.dispatcher = NewDispatcher("bot3", env.resolver, env.flows, tracker,
		env.history, env.responder, NewRelay(env.messenger), nil)
	return env
}

func (e *dispatchEnv) handle(t *testing.T, from, content string) {
	t.Helper()
	require.NoError(t, e.dispatcher.HandleMessage(context.Background(), entities.Message{From: from, Content: content}))
}

func TestFirstMessageSendsWelcomeOnce(t *testing.T) {
	env := newDispatchEnv()
	env.flows.welcome = entities.Welcome{Text: "Bienvenido a la tienda!"}

	env.handle(t, "5215550001", "hola")

	require.Len(t, env.messenger.sent, 1)
	assert.Equal(t, "Bienvenido a la tienda!", env.messenger.sent[0].content)
	assert.True(t, env.sessions.welcomed[sessionKey{"5215550001", 7}])
	assert.Zero(t, env.responder.calls)
	assert.Equal(t, []sessionKey{{"5215550001", 7}}, env.sessions.touched)

	// Second message routes instead of re-welcoming
	env.handle(t, "5215550001", "hola de nuevo")
	assert.Len(t, env.messenger.sent, 1) // AI disabled, silence
}

func TestWelcomeWithMediaFallsBackToText(t *testing.T) {
	env := newDispatchEnv()
	env.flows.welcome = entities.Welcome{Text: "Bienvenido!", MediaURL: "https://cdn.example.com/logo.png"}
	env.messenger.failMedia = true

	env.handle(t, "5215550001", "hola")

	assert.Equal(t, 1, env.messenger.mediaAttempts)
	require.Len(t, env.messenger.sent, 1)
	assert.Equal(t, "Bienvenido!", env.messenger.sent[0].content)
	assert.True(t, env.sessions.welcomed[sessionKey{"5215550001", 7}])
}

func TestEmptyWelcomeIsNoop(t *testing.T) {
	env := newDispatchEnv()
	env.flows.welcome = entities.Welcome{Text: ""}

	env.handle(t, "5215550001", "hola")

	assert.Empty(t, env.messenger.sent)
	// Not marked welcomed: nothing was sent, nothing to avoid resending
	assert.False(t, env.sessions.welcomed[sessionKey{"5215550001", 7}])
	assert.Len(t, env.sessions.touched, 1)
}

func TestFailedWelcomeSendRetriesNextMessage(t *testing.T) {
	env := newDispatchEnv()
	env.flows.welcome = entities.Welcome{Text: "Bienvenido!"}
	env.messenger.failText = true

	env.handle(t, "5215550001", "hola")
	assert.False(t, env.sessions.welcomed[sessionKey{"5215550001", 7}])

	env.messenger.failText = false
	env.handle(t, "5215550001", "sigo aqui")
	assert.True(t, env.sessions.welcomed[sessionKey{"5215550001", 7}])
}

func TestMatchedActiveRuleRepliesWithoutAI(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.flows.rules = []entities.FlowRule{
		{ID: 1, ChatbotID: 3, Keyword: "precio", Reply: "Cuesta $10", FlowActive: true},
	}
	env.responder.enabled = true

	env.handle(t, "5215550001", "precio")

	require.Len(t, env.messenger.sent, 1)
	assert.Equal(t, "Cuesta $10", env.messenger.sent[0].content)
	assert.Zero(t, env.responder.calls)
	assert.Empty(t, env.history.Get("5215550001"))
	assert.Len(t, env.sessions.touched, 1)
}

func TestMatchedInactiveFlowDefersToAI(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.flows.rules = []entities.FlowRule{
		{ID: 1, ChatbotID: 3, Keyword: "precio", Reply: "Cuesta $10", FlowActive: false},
	}
	env.responder.enabled = true
	env.responder.reply = "Claro. Los precios empiezan en $9.5 pesos."

	env.handle(t, "5215550001", "precio")

	// The inactive rule's own reply is never sent
	for _, s := range env.messenger.sent {
		assert.NotEqual(t, "Cuesta $10", s.content)
	}
	assert.Equal(t, 1, env.responder.calls)
	assert.Equal(t, []string{"Claro", "Los precios empiezan en $9.5 pesos."}, env.messenger.texts())
}

func TestMatchedInactiveFlowAIDisabledStaysSilent(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.flows.rules = []entities.FlowRule{
		{ID: 1, ChatbotID: 3, Keyword: "precio", Reply: "Cuesta $10", FlowActive: false},
	}
	env.responder.enabled = false

	env.handle(t, "5215550001", "precio")

	assert.Empty(t, env.messenger.sent)
	assert.Zero(t, env.responder.calls)
	assert.Empty(t, env.history.Get("5215550001"))
	// last-interaction still refreshed
	assert.Len(t, env.sessions.touched, 1)
}

func TestUnmatchedTextGoesToAIAndRecordsHistory(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.responder.enabled = true
	env.responder.reply = "Tenemos tortas. Tambien pasteles."

	env.handle(t, "5215550001", "que venden?")

	// Outbound chunks equal the chunked assistant text in order
	assert.Equal(t, []string{"Tenemos tortas", "Tambien pasteles."}, env.messenger.texts())

	history := env.history.Get("5215550001")
	require.Len(t, history, 2)
	assert.Equal(t, entities.Turn{Role: entities.RoleUser, Content: "que venden?"}, history[0])
	assert.Equal(t, entities.Turn{Role: entities.RoleAssistant, Content: "Tenemos tortas. Tambien pasteles."}, history[1])

	// The backend saw prior history plus the new user turn
	require.Len(t, env.responder.gotHistory, 1)
	assert.Equal(t, entities.RoleUser, env.responder.gotHistory[0].Role)
}

func TestAIHistoryAccumulatesAcrossExchanges(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.responder.enabled = true
	env.responder.reply = "Si"

	env.handle(t, "5215550001", "hay tortas?")
	env.handle(t, "5215550001", "y pasteles?")

	history := env.history.Get("5215550001")
	require.Len(t, history, 4)
	// The second call carried the first exchange plus the new user turn
	assert.Len(t, env.responder.gotHistory, 3)
}

func TestEmptyAIReplyRecordsNothing(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.responder.enabled = true
	env.responder.reply = "  "

	env.handle(t, "5215550001", "que venden?")

	assert.Empty(t, env.messenger.sent)
	assert.Empty(t, env.history.Get("5215550001"))
}

func TestAIErrorStillTouchesSession(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.responder.enabled = true
	env.responder.err = errors.New("prompt type bot_training not found")

	err := env.dispatcher.HandleMessage(context.Background(), entities.Message{From: "5215550001", Content: "hola?"})
	require.Error(t, err)

	assert.Empty(t, env.history.Get("5215550001"))
	assert.Len(t, env.sessions.touched, 1)
}

func TestMissingTenantAbortsWithoutStateMutation(t *testing.T) {
	env := newDispatchEnv()
	env.resolver.teamID = 0
	env.flows.welcome = entities.Welcome{Text: "Bienvenido!"}

	env.handle(t, "5215550001", "hola")

	assert.Empty(t, env.messenger.sent)
	assert.Empty(t, env.sessions.touched)
	assert.True(t, env.sessions.lastCutoff.IsZero(), "expiry must not run for an unresolved tenant")
}

func TestResolverFailurePropagates(t *testing.T) {
	env := newDispatchEnv()
	env.resolver.err = errors.New("connection refused")

	err := env.dispatcher.HandleMessage(context.Background(), entities.Message{From: "5215550001", Content: "hola"})
	require.Error(t, err)
	assert.Empty(t, env.sessions.touched)
}

func TestExpiredSessionHistoryEvictedBeforeDispatch(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.sessions.expired = []string{"5215559999"}
	env.history.Append("5215559999", entities.Turn{Role: entities.RoleUser, Content: "viejo"})

	env.handle(t, "5215550001", "sin coincidencia")

	assert.Empty(t, env.history.Get("5215559999"))
}

func TestThrottledMessageIsDropped(t *testing.T) {
	env := newDispatchEnv()
	env.flows.welcome = entities.Welcome{Text: "Bienvenido!"}
	tracker := NewSessionTracker(env.sessions, env.history)
	dispatcher := NewDispatcher("bot3", env.resolver, env.flows, tracker,
		env.history, env.responder, NewRelay(env.messenger), denyThrottle{})

	require.NoError(t, dispatcher.HandleMessage(context.Background(), entities.Message{From: "5215550001", Content: "hola"}))

	assert.Empty(t, env.messenger.sent)
	assert.Empty(t, env.sessions.touched)
	assert.Empty(t, env.resolver.gotKey)
}

func TestRuleLookupFailureDegradesToAI(t *testing.T) {
	env := newDispatchEnv()
	env.sessions.welcomed[sessionKey{"5215550001", 7}] = true
	env.flows.rulesErr = errors.New("query timeout")
	env.responder.enabled = true
	env.responder.reply = "Hola"

	env.handle(t, "5215550001", "precio")

	assert.Equal(t, 1, env.responder.calls)
	assert.Equal(t, []string{"Hola"}, env.messenger.texts())
}
