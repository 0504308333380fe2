// Package wire implements a hand-written codec for the handful of Meshtastic
// protobuf schemas the bridge exchanges over MQTT: Data, MeshPacket,
// ServiceEnvelope and the typed app payloads carried inside Data.
//
// The codec is deliberately not generated from the .proto files. The bridge
// needs lenient decoding (partial values with an error annotation instead of
// a hard failure), a 64-byte cap on envelope strings that keeps the reader
// aligned when a producer exceeds it, and acceptance of both packed and
// unpacked repeated fields. Generated code offers none of that.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire types from the protobuf encoding.
const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

// maxVarintLen is the longest encoded varint we accept. Ten bytes cover a
// full sign-extended 64-bit value (rx_rssi is encoded that way).
const maxVarintLen = 10

// ErrKind distinguishes the failure modes the classifier scores differently.
type ErrKind int

const (
	ErrKindOther ErrKind = iota
	// ErrKindTruncated means a length or varint ran past the end of the buffer.
	ErrKindTruncated
	// ErrKindWireType means a tag carried a wire type we cannot skip.
	ErrKindWireType
)

// DecodeError annotates a failed or partial decode with the field that broke.
type DecodeError struct {
	FieldNumber int
	Message     string
	Kind        ErrKind
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("field %d: %s", e.FieldNumber, e.Message)
}

func truncated(field int, what string) *DecodeError {
	return &DecodeError{FieldNumber: field, Message: what + " runs past end of buffer", Kind: ErrKindTruncated}
}

// reader walks a buffer tag by tag.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

// varint reads a base-128 little-endian varint of up to 64 bits.
func (r *reader) varint(field int) (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		if r.pos >= len(r.buf) {
			return 0, truncated(field, "varint")
		}
		b := r.buf[r.pos]
		r.pos++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, &DecodeError{FieldNumber: field, Message: "varint longer than 10 bytes", Kind: ErrKindOther}
}

func (r *reader) fixed32(field int) (uint32, error) {
	if r.remaining() < 4 {
		return 0, truncated(field, "fixed32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *reader) fixed64(field int) (uint64, error) {
	if r.remaining() < 8 {
		return 0, truncated(field, "fixed64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// bytes reads a length-delimited field and returns the referenced slice.
func (r *reader) bytes(field int) ([]byte, error) {
	n, err := r.varint(field)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.remaining()) {
		return nil, truncated(field, "length-delimited field")
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// tag reads the next field tag. ok is false at a clean end of buffer.
func (r *reader) tag() (field int, wireType int, ok bool, err error) {
	if r.pos >= len(r.buf) {
		return 0, 0, false, nil
	}
	v, err := r.varint(0)
	if err != nil {
		return 0, 0, false, err
	}
	return int(v >> 3), int(v & 0x7), true, nil
}

// skip consumes a field's value using only its wire type, so unknown field
// numbers never desynchronise the reader.
func (r *reader) skip(field, wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := r.varint(field)
		return err
	case wireFixed64:
		_, err := r.fixed64(field)
		return err
	case wireBytes:
		_, err := r.bytes(field)
		return err
	case wireFixed32:
		_, err := r.fixed32(field)
		return err
	default:
		return &DecodeError{FieldNumber: field, Message: fmt.Sprintf("unknown wire type %d", wireType), Kind: ErrKindWireType}
	}
}

// Append helpers for the writer side. They follow the standard protobuf
// encoding; callers only emit fields whose values differ from the default.

func appendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendTag(b []byte, field, wireType int) []byte {
	return appendVarint(b, uint64(field)<<3|uint64(wireType))
}

func appendVarintField(b []byte, field int, v uint64) []byte {
	b = appendTag(b, field, wireVarint)
	return appendVarint(b, v)
}

func appendBoolField(b []byte, field int, v bool) []byte {
	if !v {
		return b
	}
	return appendVarintField(b, field, 1)
}

func appendFixed32Field(b []byte, field int, v uint32) []byte {
	b = appendTag(b, field, wireFixed32)
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendFloatField(b []byte, field int, v float32) []byte {
	return appendFixed32Field(b, field, math.Float32bits(v))
}

func appendBytesField(b []byte, field int, v []byte) []byte {
	b = appendTag(b, field, wireBytes)
	b = appendVarint(b, uint64(len(v)))
	return append(b, v...)
}

func appendStringField(b []byte, field int, v string) []byte {
	return appendBytesField(b, field, []byte(v))
}
