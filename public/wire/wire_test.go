package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func float32Ptr(v float32) *float32 { return &v }
func int32Ptr(v int32) *int32       { return &v }

func TestDataRoundTrip(t *testing.T) {
	in := &Data{
		Portnum:      PortNumTextMessage,
		Payload:      []byte("Test"),
		WantResponse: true,
		Bitfield:     3,
	}
	out, err := DecodeData(EncodeData(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDataDefaultsStayDefault(t *testing.T) {
	out, err := DecodeData(EncodeData(&Data{}))
	require.NoError(t, err)
	require.Equal(t, PortNumUnknown, out.Portnum)
	require.Nil(t, out.Payload)
	require.False(t, out.WantResponse)
	require.Zero(t, out.Bitfield)
}

func TestMeshPacketRoundTrip(t *testing.T) {
	in := &MeshPacket{
		From:        0xd844b556,
		To:          0xffffffff,
		ID:          0x12345678,
		ChannelHint: 8,
		HopLimit:    3,
		HopStart:    5,
		WantAck:     true,
		ViaMqtt:     true,
		Encrypted:   []byte{0xde, 0xad, 0xbe, 0xef},
		RxTime:      1700000000,
		RxSnr:       float32Ptr(9.75),
		RxRssi:      int32Ptr(-82),
	}
	out, err := DecodeMeshPacket(EncodeMeshPacket(in), DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestMeshPacketDecodedWinsOverEncrypted(t *testing.T) {
	in := &MeshPacket{
		From:      1,
		To:        2,
		Decoded:   &Data{Portnum: PortNumTextMessage, Payload: []byte("hi")},
		Encrypted: []byte{0x01, 0x02},
	}
	out, err := DecodeMeshPacket(EncodeMeshPacket(in), DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.NotNil(t, out.Decoded)
	require.Nil(t, out.Encrypted)
}

func TestMeshPacketAbsentMetadataStaysNil(t *testing.T) {
	out, err := DecodeMeshPacket(EncodeMeshPacket(&MeshPacket{From: 1, To: 2}), DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Nil(t, out.RxSnr, "absent rxSnr must not read as zero")
	require.Nil(t, out.RxRssi, "absent rxRssi must not read as zero")
}

func TestMeshPacketSkipsUnknownFieldsOfEveryWireType(t *testing.T) {
	var b []byte
	b = appendVarintField(b, 60, 12345)
	b = appendFixed32Field(b, 61, 0xaabbccdd)
	b = appendTag(b, 62, wireFixed64)
	b = append(b, 1, 2, 3, 4, 5, 6, 7, 8)
	b = appendBytesField(b, 63, []byte("unknown"))
	b = append(b, EncodeMeshPacket(&MeshPacket{From: 7, To: 9, ID: 42})...)

	out, err := DecodeMeshPacket(b, DecodeOptions{})
	require.NoError(t, err)
	require.Nil(t, out.DecodeErr)
	require.Equal(t, uint32(7), out.From)
	require.Equal(t, uint32(9), out.To)
	require.Equal(t, uint32(42), out.ID)
}

func TestMeshPacketFieldOrderDoesNotMatter(t *testing.T) {
	var b []byte
	b = appendVarintField(b, packetFieldHopLimit, 3)
	b = appendFixed32Field(b, packetFieldID, 42)
	b = appendFixed32Field(b, packetFieldTo, 9)
	b = appendFixed32Field(b, packetFieldFrom, 7)

	out, err := DecodeMeshPacket(b, DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, &MeshPacket{From: 7, To: 9, ID: 42, HopLimit: 3}, out)
}

func TestMeshPacketAcceptsVarintIntegers(t *testing.T) {
	// Some producers emit the fixed32 header fields as varints.
	var b []byte
	b = appendVarintField(b, packetFieldFrom, 7)
	b = appendVarintField(b, packetFieldTo, 9)
	b = appendVarintField(b, packetFieldID, 42)

	out, err := DecodeMeshPacket(b, DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, uint32(7), out.From)
	require.Equal(t, uint32(42), out.ID)
}

func TestMeshPacketLenientTruncation(t *testing.T) {
	full := EncodeMeshPacket(&MeshPacket{From: 7, To: 9, Encrypted: bytes.Repeat([]byte{0xab}, 32)})
	truncatedBuf := full[:len(full)-10]

	out, err := DecodeMeshPacket(truncatedBuf, DecodeOptions{})
	require.NoError(t, err)
	require.NotNil(t, out.DecodeErr)
	require.Equal(t, ErrKindTruncated, out.DecodeErr.Kind)
	// Fields parsed before the break survive.
	require.Equal(t, uint32(7), out.From)

	_, err = DecodeMeshPacket(truncatedBuf, DecodeOptions{Strict: true})
	require.Error(t, err)
}

func TestVarintTooLong(t *testing.T) {
	b := appendTag(nil, packetFieldHopLimit, wireVarint)
	b = append(b, bytes.Repeat([]byte{0x80}, 11)...)
	_, err := DecodeMeshPacket(b, DecodeOptions{Strict: true})
	require.Error(t, err)
}

func TestServiceEnvelopeRoundTrip(t *testing.T) {
	in := &ServiceEnvelope{
		Packet:    &MeshPacket{From: 7, To: 9, ID: 42, Encrypted: []byte{1, 2, 3}},
		ChannelID: "LongFast",
		GatewayID: "!d844b556",
	}
	out, err := DecodeServiceEnvelope(EncodeServiceEnvelope(in), DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestServiceEnvelopeOversizeStringIsSkippedNotFatal(t *testing.T) {
	in := &ServiceEnvelope{
		Packet:    &MeshPacket{From: 7, To: 9, ID: 42},
		ChannelID: string(bytes.Repeat([]byte{'a'}, 65)),
		GatewayID: "!d844b556",
	}
	out, err := DecodeServiceEnvelope(EncodeServiceEnvelope(in), DecodeOptions{Strict: true})
	require.NoError(t, err)
	// The oversize channel id is consumed but discarded; the gateway id that
	// follows it decodes intact.
	require.Empty(t, out.ChannelID)
	require.Equal(t, "!d844b556", out.GatewayID)
	require.Equal(t, uint32(42), out.Packet.ID)
}

func TestServiceEnvelopeSurfacesInnerPacketError(t *testing.T) {
	packet := EncodeMeshPacket(&MeshPacket{From: 7, To: 9, Encrypted: bytes.Repeat([]byte{0xab}, 32)})
	packet = packet[:len(packet)-5]
	var b []byte
	b = appendBytesField(b, envelopeFieldPacket, packet)
	b = appendStringField(b, envelopeFieldChannelID, "LongFast")

	out, err := DecodeServiceEnvelope(b, DecodeOptions{})
	require.NoError(t, err)
	require.NotNil(t, out.DecodeErr)
	require.NotNil(t, out.Packet)
	require.Same(t, out.Packet.DecodeErr, out.DecodeErr)
	require.Equal(t, "LongFast", out.ChannelID)
}

func TestPortNames(t *testing.T) {
	require.Equal(t, "TEXT_MESSAGE", PortNumTextMessage.Name())
	require.Equal(t, "TELEMETRY", PortNumTelemetry.Name())
	require.Equal(t, "UNKNOWN", PortNum(400).Name())
}
