package wire

// Data is the typed payload carried inside a MeshPacket, either in the clear
// or as the plaintext of the encrypted field.
type Data struct {
	Portnum      PortNum
	Payload      []byte
	WantResponse bool
	// Bitfield carries sender capability flags. Zero means not present.
	Bitfield uint32
}

// Data field numbers (meshtastic mesh.proto).
const (
	dataFieldPortnum      = 1
	dataFieldPayload      = 2
	dataFieldWantResponse = 3
	dataFieldBitfield     = 9
)

// EncodeData serialises a Data, emitting only non-default fields.
func EncodeData(d *Data) []byte {
	var b []byte
	if d.Portnum != 0 {
		b = appendVarintField(b, dataFieldPortnum, uint64(d.Portnum))
	}
	if len(d.Payload) > 0 {
		b = appendBytesField(b, dataFieldPayload, d.Payload)
	}
	b = appendBoolField(b, dataFieldWantResponse, d.WantResponse)
	if d.Bitfield != 0 {
		b = appendVarintField(b, dataFieldBitfield, uint64(d.Bitfield))
	}
	return b
}

// DecodeData parses a Data message. Unknown fields are skipped; any
// malformation fails the decode.
func DecodeData(buf []byte) (*Data, error) {
	d := &Data{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, err
		}
		if !ok {
			return d, nil
		}
		switch {
		case field == dataFieldPortnum && wt == wireVarint:
			v, err := r.varint(field)
			if err != nil {
				return nil, err
			}
			d.Portnum = PortNum(v)
		case field == dataFieldPayload && wt == wireBytes:
			v, err := r.bytes(field)
			if err != nil {
				return nil, err
			}
			d.Payload = v
		case field == dataFieldWantResponse && wt == wireVarint:
			v, err := r.varint(field)
			if err != nil {
				return nil, err
			}
			d.WantResponse = v != 0
		case field == dataFieldBitfield && wt == wireVarint:
			v, err := r.varint(field)
			if err != nil {
				return nil, err
			}
			d.Bitfield = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, err
			}
		}
	}
}
