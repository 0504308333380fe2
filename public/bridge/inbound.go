package bridge

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/classify"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/meshtool"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/mqtt"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/radio"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/wire"
)

// payloadHexLimit caps the hex dump included in raw views.
const payloadHexLimit = 100

// OnBrokerMessage is the single inbound path: corruption gate, classifier,
// trial engine, fan-out. It runs serially on the broker callback, which
// preserves broker delivery order towards the browsers. Decode failures are
// never fatal; everything that is not dropped is broadcast in some form.
func (b *Bridge) OnBrokerMessage(m mqtt.Message) {
	if classify.ContainsReplacement(m.Payload) {
		// The broker delivered bytes a gateway already mangled through a
		// text decoder. Nothing can be recovered; drop without telling the
		// browsers.
		b.logger.Warn("dropping payload with UTF-8 replacement bytes", "topic", m.Topic, "size", len(m.Payload))
		return
	}

	res := classify.Classify(m.Topic, m.Payload)
	b.logger.Debug("classified inbound message", "topic", m.Topic, "kind", res.Kind, "size", len(m.Payload))

	switch res.Kind {
	case classify.KindMeshtasticBinary, classify.KindMeshtasticHeaderOnly:
		b.broadcast(b.binaryMessageView(m.Topic, res))
	case classify.KindMeshtasticJSON:
		b.broadcast(b.jsonMessageView(m.Topic, res))
	default:
		b.broadcast(b.rawMessageView(m.Topic, m.Payload, res))
	}
}

// binaryMessageView runs the decryption trials and assembles the decoded
// view. A packet nobody's keys fit is still broadcast, flagged failed, so
// observers can count failures per channel.
func (b *Bridge) binaryMessageView(topic string, res classify.Result) MessageView {
	env := res.Envelope
	pkt := env.Packet
	if pkt == nil {
		pkt = &wire.MeshPacket{}
	}

	channel := env.ChannelID
	if channel == "" {
		channel = res.Topic.Channel
	}

	var trial radio.TrialResult
	if res.Kind == classify.KindMeshtasticHeaderOnly {
		trial = radio.TrialResult{Status: radio.TrialNone, Portnum: wire.PortNumUnknown}
	} else {
		candidates := radio.BuildCandidates(channel, b.keys.Snapshot(), b.cfg.DefaultChannel, b.cfg.DefaultKey)
		trial = radio.TryDecrypt(pkt, candidates)
	}
	if trial.Status == radio.TrialFailed {
		b.logger.Debug("decryption failed", "topic", topic, "channel", channel, "packet", pkt.ID)
	}

	view := MessageView{
		Type:             "message",
		Topic:            topic,
		ChannelID:        env.ChannelID,
		GatewayID:        env.GatewayID,
		From:             meshtool.NodeID(pkt.From).String(),
		To:               meshtool.NodeID(pkt.To).String(),
		PacketID:         pkt.ID,
		HopLimit:         pkt.HopLimit,
		HopStart:         pkt.HopStart,
		RxTime:           pkt.RxTime,
		RxSnr:            pkt.RxSnr,
		RxRssi:           pkt.RxRssi,
		ViaMqtt:          pkt.ViaMqtt,
		Portnum:          uint32(trial.Portnum),
		PortName:         trial.Portnum.Name(),
		Text:             trial.Text,
		DecryptionStatus: string(trial.Status),
		DecodeError:      res.DecodeError,
		Timestamp:        nowMillis(),
	}
	if trial.Payload != nil {
		view.Payload = trial.Payload
	} else if trial.Data != nil && len(trial.Data.Payload) > 0 {
		// Unsupported port: pass the opaque bytes through with their tag.
		view.Payload = base64.StdEncoding.EncodeToString(trial.Data.Payload)
	}
	return view
}

// jsonMessageView maps a gateway's JSON uplink onto the message view.
func (b *Bridge) jsonMessageView(topic string, res classify.Result) MessageView {
	doc, _ := res.JSON.(map[string]any)

	view := MessageView{
		Type:             "message",
		Topic:            topic,
		ChannelID:        res.Topic.Channel,
		GatewayID:        res.Topic.Gateway,
		From:             meshtool.NodeID(jsonUint32(doc, "from")).String(),
		To:               meshtool.NodeID(jsonUint32(doc, "to")).String(),
		PacketID:         jsonUint32(doc, "id"),
		HopStart:         jsonUint32(doc, "hop_start"),
		RxTime:           jsonUint32(doc, "timestamp"),
		DecryptionStatus: "json",
		DecodeError:      res.DecodeError,
		Timestamp:        nowMillis(),
	}
	if s, ok := doc["sender"].(string); ok && s != "" {
		view.GatewayID = s
	}
	if t, ok := doc["type"].(string); ok {
		view.PortName = strings.ToUpper(t)
	}
	if payload, ok := doc["payload"]; ok {
		view.Payload = payload
		if obj, ok := payload.(map[string]any); ok {
			if text, ok := obj["text"].(string); ok {
				view.Text = text
			}
		}
	}
	if snr, ok := jsonFloat(doc, "snr"); ok {
		f := float32(snr)
		view.RxSnr = &f
	}
	if rssi, ok := jsonFloat(doc, "rssi"); ok {
		v := int32(rssi)
		view.RxRssi = &v
	}
	return view
}

// rawMessageView wraps everything the bridge could not decode.
func (b *Bridge) rawMessageView(topic string, payload []byte, res classify.Result) RawMessageView {
	hexDump := hex.EncodeToString(payload)
	if len(hexDump) > payloadHexLimit {
		hexDump = hexDump[:payloadHexLimit]
	}
	view := RawMessageView{
		Type:        "raw_message",
		Topic:       topic,
		Payload:     base64.StdEncoding.EncodeToString(payload),
		PayloadHex:  hexDump,
		Size:        len(payload),
		ContentType: string(res.Kind),
		TopicPath:   res.Topic.Path,
		PreviewText: res.PreviewText,
		DecodeError: res.DecodeError,
		JSON:        res.JSON,
		Timestamp:   nowMillis(),
	}
	if env := res.Envelope; env != nil && env.Packet != nil {
		pkt := env.Packet
		view.PacketMeta = &PacketMeta{
			From:      meshtool.NodeID(pkt.From).String(),
			To:        meshtool.NodeID(pkt.To).String(),
			PacketID:  pkt.ID,
			ChannelID: env.ChannelID,
			GatewayID: env.GatewayID,
		}
	}
	return view
}

func jsonFloat(doc map[string]any, key string) (float64, bool) {
	v, ok := doc[key].(float64)
	return v, ok
}

func jsonUint32(doc map[string]any, key string) uint32 {
	v, ok := jsonFloat(doc, key)
	if !ok {
		return 0
	}
	return uint32(int64(v))
}
