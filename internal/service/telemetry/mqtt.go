package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/ward-monitor/internal/domain/ward"
	"github.com/oshokin/ward-monitor/internal/logger"
)

var (
	errBrokerRequired  = errors.New("mqtt broker must be provided")
	errChannelRequired = errors.New("mqtt channel id must be provided")
	errTimeout         = errors.New("mqtt operation timed out")
)

const disconnectQuiesce = 250 // ms

// MQTTOptions configures the MQTT sink.
type MQTTOptions struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	ChannelID string
	QoS       byte
	Timeout   time.Duration
}

// Publisher is the part of the paho client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes snapshots on channels/<id>/publish.
type MQTTSink struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTSink connects to the broker and returns a sink.
func NewMQTTSink(ctx context.Context, opts MQTTOptions) (*MQTTSink, error) {
	if opts.Broker == "" {
		return nil, errBrokerRequired
	}

	if opts.ChannelID == "" {
		return nil, errChannelRequired
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "error", err)
		})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}

	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)

	if token := client.Connect(); !waitToken(ctx, token, opts.Timeout) || token.Error() != nil {
		err := token.Error()
		if err == nil {
			err = errTimeout
		}

		return nil, fmt.Errorf("connect to mqtt broker %s: %w", opts.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", opts.Broker, "channel_id", opts.ChannelID)

	return NewMQTTSinkWithPublisher(client, opts.ChannelID, opts.QoS, opts.Timeout), nil
}

// NewMQTTSinkWithPublisher wraps an already connected publisher.
func NewMQTTSinkWithPublisher(client Publisher, channelID string, qos byte, timeout time.Duration) *MQTTSink {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &MQTTSink{
		client:  client,
		topic:   Topic(channelID),
		qos:     qos,
		timeout: timeout,
	}
}

// Topic is the publish topic for a channel.
func Topic(channelID string) string {
	return "channels/" + channelID + "/publish"
}

// Push implements Sink.
func (s *MQTTSink) Push(ctx context.Context, snapshot ward.Snapshot) error {
	payload := encodeFields(Fields(snapshot))

	token := s.client.Publish(s.topic, s.qos, false, payload)
	if !waitToken(ctx, token, s.timeout) {
		return fmt.Errorf("publish to %s: %w", s.topic, errTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}

	logger.DebugKV(ctx, "Telemetry published", "topic", s.topic, "bytes", strconv.Itoa(len(payload)))

	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(disconnectQuiesce)
}

// waitToken waits for token completion, the timeout or ctx, whichever is first.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
