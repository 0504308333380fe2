package classify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/radio"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/wire"
)

func sampleEnvelope(t *testing.T) []byte {
	t.Helper()
	data := wire.EncodeData(&wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte("Test")})
	encrypted, err := radio.Encrypt(data, "AQ==", 0x12345678, 0xd844b556)
	require.NoError(t, err)
	return wire.EncodeServiceEnvelope(&wire.ServiceEnvelope{
		Packet: &wire.MeshPacket{
			From:      0xd844b556,
			To:        0xffffffff,
			ID:        0x12345678,
			RxTime:    1700000000,
			HopLimit:  3,
			HopStart:  3,
			Encrypted: encrypted,
		},
		ChannelID: "LongFast",
		GatewayID: "!d844b556",
	})
}

func TestClassifyEnvelopeOnProtobufTopic(t *testing.T) {
	res := Classify("msh/EU_868/2/e/LongFast/!d844b556", sampleEnvelope(t))
	require.Equal(t, KindMeshtasticBinary, res.Kind)
	require.NotNil(t, res.Envelope)
	require.Equal(t, "LongFast", res.Envelope.ChannelID)
	require.Equal(t, "!d844b556", res.Envelope.GatewayID)
	require.Empty(t, res.DecodeError)
	require.Equal(t, "LongFast", res.Topic.Channel)
}

func TestClassifyHeaderOnlyEnvelope(t *testing.T) {
	env := wire.EncodeServiceEnvelope(&wire.ServiceEnvelope{
		Packet: &wire.MeshPacket{
			From:   0xd844b556,
			To:     0xffffffff,
			ID:     0x12345678,
			RxTime: 1700000000,
		},
		ChannelID: "LongFast",
		GatewayID: "!d844b556",
	})
	res := Classify("msh/EU_868/2/e/LongFast/!d844b556", env)
	require.Equal(t, KindMeshtasticHeaderOnly, res.Kind)
}

func TestClassifyJSONTopic(t *testing.T) {
	payload := []byte(`{"from":3628782934,"type":"text","payload":{"text":"hi"}}`)
	res := Classify("msh/EU_868/2/json/LongFast/!d844b556", payload)
	require.Equal(t, KindMeshtasticJSON, res.Kind)
	doc, ok := res.JSON.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "text", doc["type"])
}

func TestClassifyJSONTopicWithBrokenJSON(t *testing.T) {
	res := Classify("msh/EU_868/2/json/LongFast/!d844b556", []byte(`{"from":`))
	require.NotEqual(t, KindMeshtasticJSON, res.Kind)
	require.Contains(t, res.DecodeError, "json topic")
}

func TestClassifyJSONOnUnknownPath(t *testing.T) {
	res := Classify("msh/EU_868/2/stat/LongFast/!d844b556", []byte(`{"online":true}`))
	require.Equal(t, KindJSON, res.Kind)
	require.Contains(t, res.DecodeError, "stat")
}

func TestClassifyTextOnUnknownPath(t *testing.T) {
	res := Classify("msh/EU_868/2/stat/LongFast/!d844b556", []byte("online"))
	require.Equal(t, KindText, res.Kind)
	require.Equal(t, "online", res.PreviewText)
}

func TestClassifyRandomBytesOnProtobufTopic(t *testing.T) {
	// High-entropy noise with no envelope structure must not be promoted.
	payload := []byte{0x00, 0xff, 0x81, 0x03, 0xfe, 0x9c, 0x00, 0xee, 0x91, 0x80}
	res := Classify("msh/EU_868/2/e/LongFast/!d844b556", payload)
	require.Equal(t, KindBinary, res.Kind)
}

func TestClassifyCorruptedBinary(t *testing.T) {
	var payload []byte
	for i := 0; i < 10; i++ {
		payload = append(payload, 0xEF, 0xBF, 0xBD)
		payload = append(payload, byte(i))
	}
	res := Classify("msh/EU_868/2/e/LongFast/!d844b556", payload)
	require.Equal(t, KindBinaryCorrupted, res.Kind)
}

func TestPreviewCollapsesAndTruncates(t *testing.T) {
	res := Classify("msh/EU_868/2/stat/LongFast/!x", []byte("  hello \n\t world  "))
	require.Equal(t, "hello world", res.PreviewText)

	long := strings.Repeat("a", 200)
	res = Classify("msh/EU_868/2/stat/LongFast/!x", []byte(long))
	require.Equal(t, 140+len("…"), len(res.PreviewText))
	require.True(t, strings.HasSuffix(res.PreviewText, "…"))
}

func TestReplacementRatio(t *testing.T) {
	require.Zero(t, ReplacementRatio(nil))
	require.Equal(t, 1.0, ReplacementRatio([]byte{0xEF, 0xBF, 0xBD}))
	require.InDelta(t, 0.5, ReplacementRatio([]byte{0xEF, 0xBF, 0xBD, 1, 2, 3}), 1e-9)
}

func TestContainsReplacement(t *testing.T) {
	require.True(t, ContainsReplacement([]byte{1, 0xEF, 0xBF, 0xBD, 2}))
	require.False(t, ContainsReplacement([]byte("plain text")))
	// A sequence that starts in the last two bytes cannot be complete.
	require.False(t, ContainsReplacement(append(bytes.Repeat([]byte{0}, 4), 0xEF, 0xBF)))
}
