package wire

import "github.com/charmbracelet/log"

// maxEnvelopeString caps the channel and gateway identifiers. Longer values
// are consumed from the stream but discarded, keeping the reader aligned.
const maxEnvelopeString = 64

// ServiceEnvelope is the broker-side wrapper pairing a packet with its
// channel and gateway identifiers.
type ServiceEnvelope struct {
	Packet    *MeshPacket
	ChannelID string
	GatewayID string

	// DecodeErr is set on lenient decodes that stopped early, including a
	// lenient stop inside the nested packet.
	DecodeErr *DecodeError
}

// ServiceEnvelope field numbers (meshtastic mqtt.proto).
const (
	envelopeFieldPacket    = 1
	envelopeFieldChannelID = 3
	envelopeFieldGatewayID = 4
)

// EncodeServiceEnvelope serialises an envelope, emitting only present fields.
func EncodeServiceEnvelope(e *ServiceEnvelope) []byte {
	var b []byte
	if e.Packet != nil {
		b = appendBytesField(b, envelopeFieldPacket, EncodeMeshPacket(e.Packet))
	}
	if e.ChannelID != "" {
		b = appendStringField(b, envelopeFieldChannelID, e.ChannelID)
	}
	if e.GatewayID != "" {
		b = appendStringField(b, envelopeFieldGatewayID, e.GatewayID)
	}
	return b
}

// DecodeServiceEnvelope parses an envelope. The nested packet inherits the
// lenient/strict mode; its lenient decode error surfaces on the envelope so
// callers see one annotation.
func DecodeServiceEnvelope(buf []byte, opts DecodeOptions) (*ServiceEnvelope, error) {
	e := &ServiceEnvelope{}
	err := decodeServiceEnvelopeInto(e, buf, opts)
	if err == nil {
		if e.Packet != nil && e.Packet.DecodeErr != nil && e.DecodeErr == nil {
			e.DecodeErr = e.Packet.DecodeErr
		}
		return e, nil
	}
	de, ok := err.(*DecodeError)
	if !ok {
		de = &DecodeError{Message: err.Error()}
	}
	if opts.Strict {
		return nil, de
	}
	if opts.LogErrors {
		log.Warn("lenient ServiceEnvelope decode stopped early", "field", de.FieldNumber, "err", de.Message)
	}
	e.DecodeErr = de
	return e, nil
}

func decodeServiceEnvelopeInto(e *ServiceEnvelope, buf []byte, opts DecodeOptions) error {
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch {
		case field == envelopeFieldPacket && wt == wireBytes:
			b, err := r.bytes(field)
			if err != nil {
				return err
			}
			p, err := DecodeMeshPacket(b, opts)
			if err != nil {
				return err
			}
			e.Packet = p
		case field == envelopeFieldChannelID && wt == wireBytes:
			b, err := r.bytes(field)
			if err != nil {
				return err
			}
			if len(b) <= maxEnvelopeString {
				e.ChannelID = string(b)
			}
		case field == envelopeFieldGatewayID && wt == wireBytes:
			b, err := r.bytes(field)
			if err != nil {
				return err
			}
			if len(b) <= maxEnvelopeString {
				e.GatewayID = string(b)
			}
		default:
			if err := r.skip(field, wt); err != nil {
				return err
			}
		}
	}
}
