package radio

import (
	"encoding/base64"
	"strings"
)

// DefaultKey encryption key, commonly referenced as AQ==
// as base64: 1PG7OiApB1nwvP+rz05pAQ==
var DefaultKey = []byte{0xd4, 0xf1, 0xbb, 0x3a, 0x20, 0x29, 0x07, 0x59, 0xf0, 0xbc, 0xff, 0xab, 0xcf, 0x4e, 0x69, 0x01}

// DefaultKeyBase64 is the shorthand form of DefaultKey.
const DefaultKeyBase64 = "AQ=="

// ParseKey converts the common representations of a channel encryption key
// (standard or URL base64, padded or not) to a byte slice.
func ParseKey(key string) ([]byte, error) {
	padding := (4 - len(key)%4) % 4
	padded := key + strings.Repeat("=", padding)
	padded = strings.ReplaceAll(padded, "-", "+")
	padded = strings.ReplaceAll(padded, "_", "/")
	raw, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		return nil, ErrKeyFormat
	}
	return raw, nil
}

// ExpandKey applies the Meshtastic PSK expansion rule:
//
//	0 bytes or a single 0x00  -> empty key, no encryption
//	a single byte b           -> DefaultKey with its last byte replaced by b
//	16 or 32 bytes            -> used verbatim
//
// The expanded length selects the AES variant (16 -> AES-128, 32 -> AES-256).
func ExpandKey(raw []byte) ([]byte, error) {
	switch len(raw) {
	case 0:
		return nil, nil
	case 1:
		if raw[0] == 0x00 {
			return nil, nil
		}
		key := make([]byte, len(DefaultKey))
		copy(key, DefaultKey)
		key[len(key)-1] = raw[0]
		return key, nil
	case 16, 32:
		return raw, nil
	default:
		return nil, ErrKeyLength
	}
}

// ExpandPSK parses a base64 PSK and expands it in one step.
func ExpandPSK(key string) ([]byte, error) {
	raw, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return ExpandKey(raw)
}

// xorHash computes a simple XOR hash of the provided byte slice.
func xorHash(p []byte) uint8 {
	var code uint8
	for _, b := range p {
		code ^= b
	}
	return code
}

// ChannelHash returns the hash for a given channel by XORing the channel name
// with the expanded PSK. Packets carry it as an advisory hint; collisions are
// possible.
func ChannelHash(channelName string, key string) (uint32, error) {
	expanded, err := ExpandPSK(key)
	if err != nil {
		return 0, err
	}
	h := xorHash([]byte(channelName))
	h ^= xorHash(expanded)
	return uint32(h), nil
}
