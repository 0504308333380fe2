// Package bridge connects one MQTT broker link to many browser WebSockets.
// Inbound broker messages are classified, decrypted and fanned out; browser
// commands publish packets and manage the subscription set.
package bridge

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/mqtt"
)

// Broker is the broker surface the bridge consumes. *mqtt.Client implements
// it; tests substitute a fake.
type Broker interface {
	Publish(msg *mqtt.Message) error
	Subscribe(filter string) error
	Unsubscribe(filter string) error
	Connected() bool
}

// Bridge owns the broker link, the browser sockets, the subscription set and
// the learned-key cache.
type Bridge struct {
	cfg    Config
	broker Broker
	logger *log.Logger

	keys *KeyCache
	subs *SubscriptionSet

	mu      sync.Mutex
	clients map[*Client]struct{}
	seeded  bool

	upgrader websocket.Upgrader
}

// New builds a bridge. The broker is attached separately because its
// callbacks need the bridge to exist first.
func New(cfg Config) *Bridge {
	b := &Bridge{
		cfg:     cfg,
		logger:  log.With("component", "bridge"),
		keys:    NewKeyCache(),
		subs:    NewSubscriptionSet(),
		clients: map[*Client]struct{}{},
		upgrader: websocket.Upgrader{
			// Browser sockets are unauthenticated by design; the UI is
			// served from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	b.keys.Seed(cfg.ChannelKeys)
	return b
}

// SetBroker attaches the broker client whose callbacks point back here.
func (b *Bridge) SetBroker(broker Broker) {
	b.broker = broker
}

// Callbacks returns the broker callback set wired to this bridge.
func (b *Bridge) Callbacks() mqtt.Callbacks {
	return mqtt.Callbacks{
		OnConnect:        b.onBrokerConnect,
		OnConnectionLost: b.onBrokerConnectionLost,
		OnMessage:        b.OnBrokerMessage,
	}
}

// onBrokerConnect runs on every (re)connect: seed the default subscription
// once, replay the whole set, tell the browsers.
func (b *Bridge) onBrokerConnect() {
	b.mu.Lock()
	seed := !b.seeded && b.cfg.DefaultTopic != "" && b.subs.Len() == 0
	b.seeded = true
	b.mu.Unlock()

	if seed {
		b.subs.Add(b.cfg.DefaultTopic)
	}
	for _, topic := range b.subs.List() {
		if err := b.broker.Subscribe(topic); err != nil {
			b.logger.Error("failed to resubscribe", "topic", topic, "err", err)
		}
	}
	b.broadcast(StatusView{Type: "status", Connected: true})
	b.broadcast(b.subscriptionsView())
}

func (b *Bridge) onBrokerConnectionLost(err error) {
	b.logger.Warn("broker connection lost", "err", err)
	b.broadcast(StatusView{Type: "status", Connected: false})
}

// HandleWS upgrades a browser connection and runs it until it closes.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	c := newClient(b, conn)
	b.attach(c)

	connected := b.broker != nil && b.broker.Connected()
	c.sendView(StatusView{Type: "status", Connected: connected})
	c.sendView(b.subscriptionsView())

	go c.writePump()
	c.readPump()
}

func (b *Bridge) attach(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = struct{}{}
}

func (b *Bridge) detach(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, c)
}

// broadcast marshals once and queues the message on every open socket. The
// client snapshot is taken under the lock; the writes happen outside it.
func (b *Bridge) broadcast(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("failed to marshal broadcast", "err", err)
		return
	}
	b.mu.Lock()
	targets := make([]*Client, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()
	for _, c := range targets {
		select {
		case c.send <- raw:
		default:
			c.logger.Warn("send queue full, dropping broadcast")
		}
	}
}

func (b *Bridge) subscriptionsView() SubscriptionsView {
	return SubscriptionsView{Type: "subscriptions", Topics: b.subs.List()}
}
