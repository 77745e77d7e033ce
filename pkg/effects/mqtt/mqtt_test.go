package mqtt_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/effects/mqtt"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct{ Messages []mqtt.Message }

// fakeToken completes immediately.
type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

// fakeMessage carries just enough for the handler.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeClient records lifecycle calls and lets the test push messages
// through the registered handler.
type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	connectErr   error
	handler      paho.MessageHandler
	unsubscribed bool
	subscribed   chan struct{}
}

func newFakeClient() *fakeClient { return &fakeClient{subscribed: make(chan struct{})} }

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }

func (c *fakeClient) Connect() paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return &fakeToken{err: c.connectErr}
	}
	c.connected = true
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Publish(string, byte, bool, interface{}) paho.Token { return &fakeToken{} }

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	c.handler = callback
	c.mu.Unlock()
	close(c.subscribed)
	return &fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(...string) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribed = true
	return &fakeToken{}
}

func (c *fakeClient) AddRoute(string, paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

func (c *fakeClient) push(topic string, payload []byte) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(c, &fakeMessage{topic: topic, payload: payload})
	}
}

func (c *fakeClient) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsubscribed && !c.connected
}

type recorder struct {
	mu    sync.Mutex
	state inbox
	calls int
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) dispatch(action domain.Action[inbox], payload any) error {
	r.mu.Lock()
	r.state, _ = action(r.state, payload)
	r.calls++
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func gotMessage(s inbox, payload any) (inbox, []domain.Effect[inbox]) {
	s.Messages = append(s.Messages, payload.(mqtt.Message))
	return s, nil
}

func TestSubscribe_DispatchesPublications(t *testing.T) {
	client := newFakeClient()
	rec := newRecorder()

	sub := mqtt.Subscribe(mqtt.Config[inbox]{
		Broker:    "tcp://broker.test:1883",
		Topic:     "notes/#",
		Action:    gotMessage,
		NewClient: func(*paho.ClientOptions) paho.Client { return client },
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := sub.Runner(ctx, rec.dispatch, sub.Data)
	require.NoError(t, err)

	select {
	case <-client.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("client never subscribed")
	}

	client.push("notes/42", []byte("hello"))
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("publication was not dispatched")
	}

	rec.mu.Lock()
	msg := rec.state.Messages[0]
	rec.mu.Unlock()
	assert.Equal(t, "notes/42", msg.Topic)
	assert.Equal(t, []byte("hello"), msg.Payload)

	// Stop: unsubscribes, disconnects, and silences the handler.
	cancel()
	require.Eventually(t, client.isDisconnected, 2*time.Second, 10*time.Millisecond)

	client.push("notes/43", []byte("late"))
	time.Sleep(50 * time.Millisecond)
	rec.mu.Lock()
	calls := rec.calls
	rec.mu.Unlock()
	assert.Equal(t, 1, calls, "no dispatch after unsubscribe")
}

func TestSubscribe_ConnectErrorFeedsOnError(t *testing.T) {
	client := newFakeClient()
	client.connectErr = assert.AnError
	failed := make(chan string, 1)

	sub := mqtt.Subscribe(mqtt.Config[inbox]{
		Broker: "tcp://broker.test:1883",
		Topic:  "notes/#",
		Action: gotMessage,
		OnError: func(s inbox, payload any) (inbox, []domain.Effect[inbox]) {
			failed <- payload.(string)
			return s, nil
		},
		NewClient: func(*paho.ClientOptions) paho.Client { return client },
	})

	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sub.Runner(ctx, rec.dispatch, sub.Data)
	require.NoError(t, err, "broker failures surface as dispatched actions, not start errors")

	select {
	case msg := <-failed:
		assert.Contains(t, msg, "connect")
	case <-time.After(2 * time.Second):
		t.Fatal("OnError action was not dispatched")
	}
}

func TestSubscribe_Validation(t *testing.T) {
	rec := newRecorder()
	ctx := context.Background()

	for name, cfg := range map[string]mqtt.Config[inbox]{
		"empty broker": {Topic: "t", Action: gotMessage},
		"empty topic":  {Broker: "tcp://b:1883", Action: gotMessage},
		"nil action":   {Broker: "tcp://b:1883", Topic: "t"},
	} {
		sub := mqtt.Subscribe(cfg)
		if _, err := sub.Runner(ctx, rec.dispatch, sub.Data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
