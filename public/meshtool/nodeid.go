// Package meshtool holds small shared Meshtastic helpers.
package meshtool

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// NodeID identifies a node on the mesh.
type NodeID uint32

// BroadcastNodeID addresses every node, displayed as ^all.
const BroadcastNodeID NodeID = 0xFFFFFFFF

const broadcastDisplay = "^all"

// String renders the canonical display form: ^all for broadcast, otherwise
// ! followed by eight lowercase hex digits.
func (n NodeID) String() string {
	if n == BroadcastNodeID {
		return broadcastDisplay
	}
	return fmt.Sprintf("!%08x", uint32(n))
}

func (n NodeID) Uint32() uint32 { return uint32(n) }

// ParseNodeID accepts the display forms plus 0x-prefixed hex and unsigned
// decimal.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == broadcastDisplay:
		return BroadcastNodeID, nil
	case strings.HasPrefix(s, "!"):
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parsing node id %q: %w", s, err)
		}
		return NodeID(v), nil
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parsing node id %q: %w", s, err)
		}
		return NodeID(v), nil
	case s != "":
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("parsing node id %q: %w", s, err)
		}
		return NodeID(v), nil
	default:
		return 0, fmt.Errorf("empty node id")
	}
}

// RandomNodeID returns a fresh non-broadcast, non-zero identifier.
func RandomNodeID() (NodeID, error) {
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("reading random bytes: %w", err)
		}
		id := NodeID(binary.LittleEndian.Uint32(b[:]))
		if id != 0 && id != BroadcastNodeID {
			return id, nil
		}
	}
}
