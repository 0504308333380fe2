package wire

import (
	"math"

	"github.com/charmbracelet/log"
)

// MeshPacket is the radio-level schema: addressing, hop metadata, and either
// encrypted bytes or a decoded Data. Values are immutable after decode.
type MeshPacket struct {
	From        uint32
	To          uint32
	ID          uint32
	ChannelHint uint32
	HopLimit    uint32
	HopStart    uint32
	WantAck     bool
	ViaMqtt     bool

	// Exactly one of Encrypted or Decoded is set on a well-formed packet.
	Encrypted []byte
	Decoded   *Data

	// Receive metadata. RxSnr and RxRssi are nil when absent so a zero
	// reading is distinguishable from a missing one.
	RxTime uint32
	RxSnr  *float32
	RxRssi *int32

	// DecodeErr is set on lenient decodes that stopped early.
	DecodeErr *DecodeError
}

// MeshPacket field numbers (meshtastic mesh.proto).
const (
	packetFieldFrom      = 1
	packetFieldTo        = 2
	packetFieldChannel   = 3
	packetFieldDecoded   = 4
	packetFieldEncrypted = 5
	packetFieldID        = 6
	packetFieldRxTime    = 7
	packetFieldRxSnr     = 8
	packetFieldHopLimit  = 9
	packetFieldWantAck   = 10
	packetFieldRxRssi    = 12
	packetFieldViaMqtt   = 14
	packetFieldHopStart  = 15
)

// DecodeOptions control lenient versus strict parsing.
type DecodeOptions struct {
	// Strict makes any malformation an error. Otherwise the partial value is
	// returned with DecodeErr set.
	Strict bool
	// LogErrors emits a warning for lenient-mode decode stops.
	LogErrors bool
}

// EncodeMeshPacket serialises a packet. From and to are always written as
// fixed32; everything else only when non-default. If both Decoded and
// Encrypted are set, Decoded wins and Encrypted is elided.
func EncodeMeshPacket(p *MeshPacket) []byte {
	var b []byte
	b = appendFixed32Field(b, packetFieldFrom, p.From)
	b = appendFixed32Field(b, packetFieldTo, p.To)
	if p.ChannelHint != 0 {
		b = appendVarintField(b, packetFieldChannel, uint64(p.ChannelHint))
	}
	if p.Decoded != nil {
		b = appendBytesField(b, packetFieldDecoded, EncodeData(p.Decoded))
	} else if len(p.Encrypted) > 0 {
		b = appendBytesField(b, packetFieldEncrypted, p.Encrypted)
	}
	if p.ID != 0 {
		b = appendFixed32Field(b, packetFieldID, p.ID)
	}
	if p.RxTime != 0 {
		b = appendFixed32Field(b, packetFieldRxTime, p.RxTime)
	}
	if p.RxSnr != nil {
		b = appendFloatField(b, packetFieldRxSnr, *p.RxSnr)
	}
	if p.HopLimit != 0 {
		b = appendVarintField(b, packetFieldHopLimit, uint64(p.HopLimit))
	}
	b = appendBoolField(b, packetFieldWantAck, p.WantAck)
	if p.RxRssi != nil {
		// int32 fields sign-extend to 64 bits on the wire.
		b = appendVarintField(b, packetFieldRxRssi, uint64(int64(*p.RxRssi)))
	}
	b = appendBoolField(b, packetFieldViaMqtt, p.ViaMqtt)
	if p.HopStart != 0 {
		b = appendVarintField(b, packetFieldHopStart, uint64(p.HopStart))
	}
	return b
}

// uint32Field accepts either encoding some gateways use for small integers.
func (r *reader) uint32Field(field, wt int) (uint32, error) {
	switch wt {
	case wireFixed32:
		return r.fixed32(field)
	case wireVarint:
		v, err := r.varint(field)
		return uint32(v), err
	default:
		return 0, &DecodeError{FieldNumber: field, Message: "unexpected wire type for uint32 field", Kind: ErrKindOther}
	}
}

// DecodeMeshPacket parses a packet. Unknown fields are skipped by wire type.
// In lenient mode a malformation stops parsing and the partial packet is
// returned with DecodeErr set; in strict mode it is returned as an error.
func DecodeMeshPacket(buf []byte, opts DecodeOptions) (*MeshPacket, error) {
	p := &MeshPacket{}
	err := decodeMeshPacketInto(p, buf)
	if err == nil {
		return p, nil
	}
	de, ok := err.(*DecodeError)
	if !ok {
		de = &DecodeError{Message: err.Error()}
	}
	if opts.Strict {
		return nil, de
	}
	if opts.LogErrors {
		log.Warn("lenient MeshPacket decode stopped early", "field", de.FieldNumber, "err", de.Message)
	}
	p.DecodeErr = de
	return p, nil
}

func decodeMeshPacketInto(p *MeshPacket, buf []byte) error {
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch field {
		case packetFieldFrom:
			if p.From, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldTo:
			if p.To, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldChannel:
			if p.ChannelHint, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldDecoded:
			b, err := r.bytes(field)
			if err != nil {
				return err
			}
			d, err := DecodeData(b)
			if err != nil {
				return err
			}
			p.Decoded = d
		case packetFieldEncrypted:
			b, err := r.bytes(field)
			if err != nil {
				return err
			}
			p.Encrypted = b
		case packetFieldID:
			if p.ID, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldRxTime:
			if p.RxTime, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldRxSnr:
			v, err := r.fixed32(field)
			if err != nil {
				return err
			}
			snr := math.Float32frombits(v)
			p.RxSnr = &snr
		case packetFieldHopLimit:
			if p.HopLimit, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		case packetFieldWantAck:
			v, err := r.varint(field)
			if err != nil {
				return err
			}
			p.WantAck = v != 0
		case packetFieldRxRssi:
			v, err := r.varint(field)
			if err != nil {
				return err
			}
			rssi := int32(v)
			p.RxRssi = &rssi
		case packetFieldViaMqtt:
			v, err := r.varint(field)
			if err != nil {
				return err
			}
			p.ViaMqtt = v != 0
		case packetFieldHopStart:
			if p.HopStart, err = r.uint32Field(field, wt); err != nil {
				return err
			}
		default:
			if err := r.skip(field, wt); err != nil {
				return err
			}
		}
	}
}
