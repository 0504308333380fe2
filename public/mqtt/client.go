// Package mqtt wraps the paho client with the small surface the bridge needs:
// connect with automatic reconnection, publish, subscription management, and
// connect/close/message callbacks.
package mqtt

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// ReconnectInterval paces both initial connect retries and reconnects.
const ReconnectInterval = 5 * time.Second

// Message is a single broker message.
type Message struct {
	Topic   string
	Payload []byte
}

// HandlerFunc handles an incoming broker message.
type HandlerFunc func(Message)

// Callbacks are invoked from the paho client's goroutines. OnConnect fires on
// every (re)connect, OnConnectionLost on every drop.
type Callbacks struct {
	OnConnect        func()
	OnConnectionLost func(error)
	OnMessage        HandlerFunc
}

// Client is a thin wrapper around the paho MQTT client.
type Client struct {
	client pahomqtt.Client
	logger *log.Logger
}

// NewClient prepares a client for the given broker. The client id embeds a
// timestamp so parallel bridge instances do not evict each other.
func NewClient(server, username, password string, cb Callbacks) *Client {
	logger := log.With("component", "mqtt")
	opts := pahomqtt.NewClientOptions().
		AddBroker(server).
		SetClientID(fmt.Sprintf("meshtastic-web-%d", time.Now().UnixMilli())).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(ReconnectInterval).
		SetMaxReconnectInterval(ReconnectInterval).
		SetOrderMatters(true)
	if cb.OnConnect != nil {
		opts.SetOnConnectHandler(func(pahomqtt.Client) {
			logger.Info("connected", "server", server)
			cb.OnConnect()
		})
	}
	if cb.OnConnectionLost != nil {
		opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Warn("connection lost", "err", err)
			cb.OnConnectionLost(err)
		})
	}
	if cb.OnMessage != nil {
		opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, m pahomqtt.Message) {
			cb.OnMessage(Message{Topic: m.Topic(), Payload: m.Payload()})
		})
	}
	return &Client{client: pahomqtt.NewClient(opts), logger: logger}
}

// Connect starts the connection. With connect-retry enabled paho keeps trying
// in the background, so a transport error here is not fatal.
func (c *Client) Connect() error {
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to mqtt: %w", err)
	}
	return nil
}

// Disconnect closes the connection, allowing in-flight work to finish.
func (c *Client) Disconnect() {
	c.client.Disconnect(uint(ReconnectInterval.Milliseconds()) / 5)
}

// Connected reports whether the broker link is currently up.
func (c *Client) Connected() bool {
	return c.client.IsConnectionOpen()
}

// Publish sends one message at QoS 0 and waits for the client to accept it.
func (c *Client) Publish(msg *Message) error {
	token := c.client.Publish(msg.Topic, 0, false, msg.Payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe adds a topic filter. Messages arrive on the OnMessage callback.
func (c *Client) Subscribe(filter string) error {
	token := c.client.Subscribe(filter, 0, nil)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", filter, err)
	}
	c.logger.Debug("subscribed", "filter", filter)
	return nil
}

// Unsubscribe removes a topic filter.
func (c *Client) Unsubscribe(filter string) error {
	token := c.client.Unsubscribe(filter)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", filter, err)
	}
	c.logger.Debug("unsubscribed", "filter", filter)
	return nil
}
