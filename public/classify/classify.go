// Package classify decides what an MQTT payload is: a Meshtastic binary
// envelope, Meshtastic JSON, plain JSON, text, or opaque binary. The decision
// is a total, deterministic function of the topic path and the bytes; the
// classifier never fails, it annotates.
package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/mqtt"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/wire"
)

// Kind is the classification tag.
type Kind string

const (
	KindMeshtasticBinary     Kind = "meshtastic-binary"
	KindMeshtasticHeaderOnly Kind = "meshtastic-binary-header-only"
	KindMeshtasticJSON       Kind = "meshtastic-json"
	KindJSON                 Kind = "json"
	KindText                 Kind = "text"
	KindBinary               Kind = "binary"
	KindBinaryCorrupted      Kind = "binary-corrupted"
)

// binaryScoreThreshold is the confidence bar for calling e/c payloads a
// Meshtastic envelope.
const binaryScoreThreshold = 6

// previewLimit caps preview text length.
const previewLimit = 140

// replacementSeq is the UTF-8 replacement character. Its presence in a
// binary payload means a gateway decoded and re-encoded the bytes as text,
// destroying them.
var replacementSeq = []byte{0xEF, 0xBF, 0xBD}

// Result is the classification value.
type Result struct {
	Kind        Kind
	Topic       mqtt.Topic
	PreviewText string
	DecodeError string
	// Envelope is set for the meshtastic-binary kinds, and also carries the
	// partial decode for sub-threshold e/c payloads.
	Envelope *wire.ServiceEnvelope
	// JSON holds the parsed document for the JSON kinds.
	JSON any
}

// Classify inspects one broker message.
func Classify(topic string, payload []byte) Result {
	t := mqtt.ParseTopic(topic)
	switch t.Path {
	case "json":
		if doc, ok := parseJSON(payload); ok {
			return Result{Kind: KindMeshtasticJSON, Topic: t, JSON: doc, PreviewText: preview(payload)}
		}
		res := classifyBytes(t, payload)
		res.DecodeError = "json topic path without parseable JSON"
		return res
	case "e", "c":
		return classifyBinary(t, payload)
	default:
		note := fmt.Sprintf("unexpected topic path %q", t.Path)
		if doc, ok := parseJSON(payload); ok {
			return Result{Kind: KindJSON, Topic: t, JSON: doc, PreviewText: preview(payload), DecodeError: note}
		}
		res := classifyBytes(t, payload)
		if res.DecodeError == "" {
			res.DecodeError = note
		}
		return res
	}
}

// classifyBinary probes an e/c payload as a ServiceEnvelope and scores how
// much it looks like one.
func classifyBinary(t mqtt.Topic, payload []byte) Result {
	env, _ := wire.DecodeServiceEnvelope(payload, wire.DecodeOptions{})
	score := envelopeScore(env)

	var note string
	if env.DecodeErr != nil {
		note = env.DecodeErr.Error()
	}
	if score >= binaryScoreThreshold {
		kind := KindMeshtasticBinary
		if pkt := env.Packet; pkt != nil && len(pkt.Encrypted) == 0 && pkt.Decoded == nil {
			kind = KindMeshtasticHeaderOnly
		}
		return Result{Kind: kind, Topic: t, Envelope: env, DecodeError: note}
	}

	res := classifyBytes(t, payload)
	res.Envelope = env
	if res.DecodeError == "" {
		res.DecodeError = note
	}
	return res
}

// envelopeScore accumulates confidence that a decode really was an envelope.
func envelopeScore(env *wire.ServiceEnvelope) int {
	score := 0
	if pkt := env.Packet; pkt != nil {
		score += 2
		if pkt.From > 0 {
			score += 2
		}
		if pkt.ID != 0 {
			score += 2
		}
		if pkt.RxTime != 0 {
			score++
		}
		if pkt.HopStart > 0 || pkt.HopLimit > 0 || pkt.ViaMqtt {
			score++
		}
		if len(pkt.Encrypted) > 0 || pkt.Decoded != nil {
			score += 3
		}
	}
	if env.ChannelID != "" || env.GatewayID != "" {
		score++
	}
	if env.DecodeErr == nil {
		score++
	} else {
		score -= errorPenalty(env)
	}
	return score
}

func errorPenalty(env *wire.ServiceEnvelope) int {
	de := env.DecodeErr
	onPacket := env.Packet != nil && env.Packet.DecodeErr == de
	switch {
	case de.Kind == wire.ErrKindTruncated:
		return 1
	case de.Kind == wire.ErrKindWireType && onPacket:
		return 1
	case de.Kind == wire.ErrKindWireType:
		return 3
	default:
		return 2
	}
}

// classifyBytes applies the text/binary heuristics.
func classifyBytes(t mqtt.Topic, payload []byte) Result {
	if ReplacementRatio(payload) >= 0.15 {
		return Result{
			Kind:        KindBinaryCorrupted,
			Topic:       t,
			DecodeError: "gateway mangled binary as text",
		}
	}
	if printableRatio(payload) >= 0.85 {
		return Result{Kind: KindText, Topic: t, PreviewText: preview(payload)}
	}
	return Result{Kind: KindBinary, Topic: t}
}

func parseJSON(payload []byte) (any, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// printableRatio is the fraction of bytes that are whitespace or printable
// ASCII.
func printableRatio(payload []byte) float64 {
	if len(payload) == 0 {
		return 0
	}
	printable := 0
	for _, b := range payload {
		if b == 0x09 || b == 0x0A || b == 0x0D || (b >= 0x20 && b <= 0x7E) {
			printable++
		}
	}
	return float64(printable) / float64(len(payload))
}

// ReplacementRatio is the fraction of the payload occupied by UTF-8
// replacement sequences.
func ReplacementRatio(payload []byte) float64 {
	if len(payload) == 0 {
		return 0
	}
	return float64(bytes.Count(payload, replacementSeq)*3) / float64(len(payload))
}

// ContainsReplacement reports whether a replacement sequence starts within
// the first len-2 positions, i.e. anywhere a full three-byte sequence fits.
func ContainsReplacement(payload []byte) bool {
	i := bytes.Index(payload, replacementSeq)
	return i >= 0 && i < len(payload)-2
}

// preview trims and collapses whitespace and truncates to a display length.
func preview(payload []byte) string {
	s := strings.Join(strings.Fields(string(payload)), " ")
	if len(s) > previewLimit {
		s = s[:previewLimit] + "…"
	}
	return s
}
