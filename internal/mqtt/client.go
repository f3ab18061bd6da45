package mqtt

import (
	"encoding/json"
	"fmt"

	"camera-privacy-buttons/internal/logger"
	"camera-privacy-buttons/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client publishes transition events for home-automation consumers. It
// announces availability on <events_topic>/status with a last-will so
// subscribers can tell a silent controller from a dead one.
type Client struct {
	client mqtt.Client
	config models.MQTTConfig
}

func NewClient(cfg models.MQTTConfig) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.User != "" {
		opts.SetUsername(cfg.User)
		opts.SetPassword(cfg.Password)
	}

	availTopic := cfg.EventsTopic + "/status"
	opts.SetWill(availTopic, "offline", 0, true)

	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Infof("Connected to MQTT broker at %s", cfg.Broker)
		c.Publish(availTopic, 0, true, "online")
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		logger.Warnf("Lost connection to MQTT broker: %v", err)
	})

	client := mqtt.NewClient(opts)
	return &Client{
		client: client,
		config: cfg,
	}
}

func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Publish sends a payload as JSON to the given topic.
func (c *Client) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := c.client.Publish(topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Subscribe registers a handler for raw payloads on a topic. Used for
// inbound commands such as manual LED control.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (c *Client) Disconnect() {
	availTopic := c.config.EventsTopic + "/status"
	c.client.Publish(availTopic, 0, true, "offline")
	c.client.Disconnect(250)
}
