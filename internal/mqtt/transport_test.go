package mqtt

import (
	"errors"
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu  sync.Mutex
	got []string
	err error
}

func (s *sink) Submit(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, string(p))
	return s.err
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  any
}

// client records what the transport asks of the broker.
type client struct {
	paho.Client
	mu        sync.Mutex
	subs      map[string]byte
	handler   paho.MessageHandler
	published []published
}

func (c *client) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = map[string]byte{}
	}
	c.subs[topic] = qos
	c.handler = cb
	return &paho.DummyToken{}
}

func (c *client) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, qos, retained, payload})
	return &paho.DummyToken{}
}

func (c *client) IsConnectionOpen() bool { return true }

func (c *client) Disconnect(uint) {}

type message struct {
	paho.Message
	topic   string
	payload []byte
}

func (m message) Topic() string   { return m.topic }
func (m message) Payload() []byte { return m.payload }

func opts() Options {
	return Options{
		Broker:       "tcp://broker:1883",
		ClientID:     "matrix-test",
		CommandTopic: "matrix/command",
		StatusTopic:  "matrix/status",
		Username:     "led",
		Password:     "secret",
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(Options{CommandTopic: "x"}, &sink{})
	assert.Error(t, err)
	_, err = New(Options{Broker: "tcp://b:1883"}, &sink{})
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	tr, err := New(opts(), &sink{})
	require.NoError(t, err)
	o := tr.clientOptions()
	require.Len(t, o.Servers, 1)
	assert.Equal(t, "broker:1883", o.Servers[0].Host)
	assert.Equal(t, "matrix-test", o.ClientID)
	assert.Equal(t, "led", o.Username)
	assert.True(t, o.AutoReconnect)
	assert.True(t, o.WillEnabled)
	assert.Equal(t, "matrix/status", o.WillTopic)
	assert.Equal(t, []byte(Offline), o.WillPayload)
	assert.True(t, o.WillRetained)
}

func TestOnConnectSubscribesAndAnnounces(t *testing.T) {
	s := &sink{}
	tr, err := New(opts(), s)
	require.NoError(t, err)
	c := &client{}
	tr.onConnect(c)

	c.mu.Lock()
	assert.Equal(t, map[string]byte{"matrix/command": CommandQoS}, c.subs)
	require.Len(t, c.published, 1)
	assert.Equal(t, published{"matrix/status", StatusQoS, true, Online}, c.published[0])
	handler := c.handler
	c.mu.Unlock()

	handler(c, message{topic: "matrix/command", payload: []byte(`{"effect":"ripple"}`)})
	assert.Equal(t, []string{`{"effect":"ripple"}`}, s.got)
}

func TestDroppedCommandIsNotFatal(t *testing.T) {
	s := &sink{err: errors.New("command queue full")}
	tr, err := New(opts(), s)
	require.NoError(t, err)
	tr.onMessage(nil, message{topic: "matrix/command", payload: []byte(`{}`)})
	assert.Len(t, s.got, 1)
}

func TestCloseAnnouncesOffline(t *testing.T) {
	tr, err := New(opts(), &sink{})
	require.NoError(t, err)
	c := &client{}
	tr.client = c
	tr.Close()
	require.Len(t, c.published, 1)
	assert.Equal(t, Offline, c.published[0].payload)
	assert.True(t, c.published[0].retained)
}
