package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/models"
)

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes every event as JSON to <Prefix>/<zone>/<type>.
// Setpoint events are retained so new subscribers see the current value.
type MQTTNotifier struct {
	Publisher Publisher
	Prefix    string
	QoS       byte
	Logger    *logger.Logger
}

var _ Notifier = &MQTTNotifier{}

func (m *MQTTNotifier) Notify(e models.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		m.logError("mqtt_encode_failed", err, e)
		return
	}
	retained := e.Type == models.EventSetpointChanged
	if err := m.Publisher.Publish(m.Topic(e), m.QoS, retained, payload); err != nil {
		m.logError("mqtt_publish_failed", err, e)
	}
}

// Topic returns the topic an event is published to.
func (m *MQTTNotifier) Topic(e models.Event) string {
	prefix := strings.TrimRight(m.Prefix, "/")
	if prefix == "" {
		return e.ZoneID + "/" + string(e.Type)
	}
	return prefix + "/" + e.ZoneID + "/" + string(e.Type)
}

func (m *MQTTNotifier) logError(key string, err error, e models.Event) {
	if m.Logger != nil {
		m.Logger.Warnw(key, "err", err, "zone", e.ZoneID, "type", e.Type)
	}
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Timeout  time.Duration
}

var errPublishTimeout = errors.New("publish timed out")

// MQTTClient is a Publisher backed by a paho client.
type MQTTClient struct {
	client  mqtt.Client
	timeout time.Duration
}

// NewMQTTClient connects to the broker. The client reconnects on its own
// after the first successful connect.
func NewMQTTClient(cfg MQTTConfig) (*MQTTClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return &MQTTClient{client: client, timeout: timeout}, nil
}

func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("publish to %s: %w", topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Disconnect waits up to 250ms for pending work and closes the connection.
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}
