package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/meshtool"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/mqtt"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/radio"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/wire"
)

// handleCommand dispatches one browser command. A failure becomes a single
// error view to the originator; the connection stays open and nobody else
// hears about it.
func (b *Bridge) handleCommand(c *Client, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.sendView(ErrorView{Type: "error", Message: fmt.Sprintf("malformed command: %v", err)})
		return
	}

	var err error
	switch cmd.Type {
	case "publish":
		err = b.handlePublish(c, cmd)
	case "subscribe":
		err = b.handleSubscribe(c, cmd)
	case "unsubscribe":
		err = b.handleUnsubscribe(c, cmd)
	case "get_subscriptions":
		c.sendView(b.subscriptionsView())
	default:
		err = fmt.Errorf("unknown command type %q", cmd.Type)
	}
	if err != nil {
		b.logger.Warn("command failed", "type", cmd.Type, "err", err)
		c.sendView(ErrorView{Type: "error", Message: err.Error()})
	}
}

// sendTextJSON is the textual downlink form used on the json topic path.
type sendTextJSON struct {
	From    uint32 `json:"from"`
	To      uint32 `json:"to"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

func (b *Bridge) handlePublish(c *Client, cmd Command) error {
	root := firstNonEmpty(cmd.Root, b.cfg.DefaultRoot)
	region := firstNonEmpty(cmd.Region, b.cfg.DefaultRegion)
	path := firstNonEmpty(cmd.Path, b.cfg.DefaultPath)
	channel := firstNonEmpty(cmd.Channel, b.cfg.DefaultChannel)
	gateway := firstNonEmpty(cmd.GatewayID, b.cfg.GatewayID.String())
	if cmd.To == "" {
		return fmt.Errorf("publish: missing to")
	}

	from := b.cfg.GatewayID
	if cmd.From != "" {
		parsed, err := meshtool.ParseNodeID(cmd.From)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		from = parsed
	}
	to, err := meshtool.ParseNodeID(cmd.To)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	topic := mqtt.BuildTopic(root, region, path, channel, gateway)

	if strings.HasSuffix(strings.Trim(path, "/"), "json") {
		payload, err := json.Marshal(sendTextJSON{
			From:    from.Uint32(),
			To:      to.Uint32(),
			Type:    "sendtext",
			Payload: cmd.Text,
		})
		if err != nil {
			return fmt.Errorf("publish: marshalling json payload: %w", err)
		}
		if err := b.broker.Publish(&mqtt.Message{Topic: topic, Payload: payload}); err != nil {
			return err
		}
		b.logger.Info("published json text", "topic", topic, "from", from, "to", to)
		c.sendView(PublishedView{
			Type: "published", Mode: "json", Topic: topic,
			From: from.String(), To: to.String(), Text: cmd.Text,
		})
		return nil
	}

	// Missing key means the default; an explicit empty key means send in the
	// clear.
	key := b.cfg.DefaultKey
	if cmd.Key != nil {
		key = *cmd.Key
	}

	packetID := radio.GeneratePacketID()
	data := &wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte(cmd.Text)}
	pkt := &wire.MeshPacket{From: from.Uint32(), To: to.Uint32(), ID: packetID}
	if key == "" {
		pkt.Decoded = data
	} else {
		encrypted, err := radio.Encrypt(wire.EncodeData(data), key, packetID, from.Uint32())
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		hint, err := radio.ChannelHash(channel, key)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		pkt.Encrypted = encrypted
		pkt.ChannelHint = hint
	}

	envelope := wire.EncodeServiceEnvelope(&wire.ServiceEnvelope{
		Packet:    pkt,
		ChannelID: channel,
		GatewayID: gateway,
	})
	if err := b.broker.Publish(&mqtt.Message{Topic: topic, Payload: envelope}); err != nil {
		return err
	}
	if cmd.Key != nil && *cmd.Key != "" {
		b.keys.Set(channel, *cmd.Key)
	}
	b.logger.Info("published packet", "topic", topic, "id", packetID, "from", from, "to", to)
	c.sendView(PublishedView{
		Type: "published", Mode: "protobuf", Topic: topic, PacketID: &packetID,
		From: from.String(), To: to.String(), Text: cmd.Text,
	})
	return nil
}

func (b *Bridge) handleSubscribe(c *Client, cmd Command) error {
	if cmd.Topic == "" {
		return fmt.Errorf("subscribe: missing topic")
	}
	if err := b.broker.Subscribe(cmd.Topic); err != nil {
		return err
	}
	b.subs.Add(cmd.Topic)
	if cmd.Channel != "" && cmd.Key != nil && *cmd.Key != "" {
		b.keys.Set(cmd.Channel, *cmd.Key)
	}
	c.sendView(TopicAckView{Type: "subscribed", Topic: cmd.Topic})
	b.broadcast(b.subscriptionsView())
	return nil
}

func (b *Bridge) handleUnsubscribe(c *Client, cmd Command) error {
	if cmd.Topic == "" {
		return fmt.Errorf("unsubscribe: missing topic")
	}
	if err := b.broker.Unsubscribe(cmd.Topic); err != nil {
		return err
	}
	b.subs.Remove(cmd.Topic)
	c.sendView(TopicAckView{Type: "unsubscribed", Topic: cmd.Topic})
	b.broadcast(b.subscriptionsView())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
