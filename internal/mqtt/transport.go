// Package mqtt feeds command payloads from a broker topic into the
// dispatcher and reports the device's presence on a retained status topic.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	// CommandQoS is exactly-once so a toggle is never applied twice.
	CommandQoS = 2
	StatusQoS  = 1

	Online  = `{"status":"online"}`
	Offline = `{"status":"offline"}`
)

// Submitter takes raw payloads; it must not block.
type Submitter interface {
	Submit(payload []byte) error
}

type Options struct {
	Broker       string
	ClientID     string
	CommandTopic string
	StatusTopic  string
	Username     string
	Password     string
}

type Transport struct {
	opts   Options
	sink   Submitter
	client paho.Client
}

func New(o Options, sink Submitter) (*Transport, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt: broker not set")
	}
	if o.CommandTopic == "" {
		return nil, errors.New("mqtt: command topic not set")
	}
	t := &Transport{opts: o, sink: sink}
	t.client = paho.NewClient(t.clientOptions())
	return t, nil
}

func (t *Transport) clientOptions() *paho.ClientOptions {
	o := paho.NewClientOptions().
		AddBroker(t.opts.Broker).
		SetClientID(t.opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", t.opts.Broker).Msg("mqtt connection lost")
		})
	if t.opts.Username != "" {
		o.SetUsername(t.opts.Username).SetPassword(t.opts.Password)
	}
	if t.opts.StatusTopic != "" {
		o.SetWill(t.opts.StatusTopic, Offline, StatusQoS, true)
	}
	return o
}

// Connect waits for the first connection. With retry enabled the client keeps
// trying in the background after ctx expires.
func (t *Transport) Connect(ctx context.Context) error {
	tok := t.client.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", t.opts.Broker, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mqtt connect %s: %w", t.opts.Broker, ctx.Err())
	}
}

// onConnect runs on every (re)connect: subscriptions do not survive a clean
// session, and the status must be re-announced.
func (t *Transport) onConnect(c paho.Client) {
	log.Info().Str("broker", t.opts.Broker).Str("topic", t.opts.CommandTopic).Msg("mqtt connected")
	tok := c.Subscribe(t.opts.CommandTopic, CommandQoS, t.onMessage)
	go func() {
		if tok.Wait(); tok.Error() != nil {
			log.Warn().Err(tok.Error()).Str("topic", t.opts.CommandTopic).Msg("mqtt subscribe failed")
		}
	}()
	if t.opts.StatusTopic != "" {
		c.Publish(t.opts.StatusTopic, StatusQoS, true, Online)
	}
}

func (t *Transport) onMessage(_ paho.Client, m paho.Message) {
	log.Debug().Str("topic", m.Topic()).Bytes("payload", m.Payload()).Msg("mqtt command")
	// the queue keeps the payload past this callback
	payload := append([]byte(nil), m.Payload()...)
	if err := t.sink.Submit(payload); err != nil {
		log.Warn().Err(err).Str("topic", m.Topic()).Msg("mqtt command dropped")
	}
}

// Close announces offline and disconnects.
func (t *Transport) Close() {
	if t.opts.StatusTopic != "" && t.client.IsConnectionOpen() {
		t.client.Publish(t.opts.StatusTopic, StatusQoS, true, Offline).WaitTimeout(time.Second)
	}
	t.client.Disconnect(250)
}
