package radio

import (
	"sort"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/wire"
)

// TrialStatus reports how (or whether) a packet's payload became readable.
type TrialStatus string

const (
	// TrialSuccess means a candidate key decrypted to a valid Data.
	TrialSuccess TrialStatus = "success"
	// TrialPlaintext means the encrypted field held an unencrypted Data.
	TrialPlaintext TrialStatus = "plaintext"
	// TrialFailed means no candidate worked.
	TrialFailed TrialStatus = "failed"
	// TrialNone means the packet already carried a decoded Data.
	TrialNone TrialStatus = "none"
)

// Candidate is one (channel, key) pair to try. Key is base64.
type Candidate struct {
	Channel string
	Key     string
}

// TrialResult is the outcome of TryDecrypt.
type TrialResult struct {
	Status  TrialStatus
	Channel string
	Key     string
	Portnum wire.PortNum
	Data    *wire.Data
	// Text is set iff Portnum is the text-message port.
	Text string
	// Payload is the typed sub-payload when the port is a supported one.
	Payload wire.PortPayload
}

// BuildCandidates assembles the ordered, de-duplicated key list for a packet
// heard on the named channel:
//
//  1. the learned key for that channel
//  2. the default key paired with that channel
//  3. every learned (channel, key) pair, in channel order
//  4. the default (channel, key) pair
func BuildCandidates(channel string, learned map[string]string, defaultChannel, defaultKey string) []Candidate {
	seen := map[Candidate]struct{}{}
	var out []Candidate
	add := func(c Candidate) {
		if c.Channel == "" && c.Key == "" {
			return
		}
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if channel != "" {
		if key, ok := learned[channel]; ok {
			add(Candidate{Channel: channel, Key: key})
		}
		add(Candidate{Channel: channel, Key: defaultKey})
	}
	names := make([]string, 0, len(learned))
	for name := range learned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		add(Candidate{Channel: name, Key: learned[name]})
	}
	add(Candidate{Channel: defaultChannel, Key: defaultKey})
	return out
}

// FilterByHint prunes candidates using the packet's channel hash hint. When
// the hint is zero or matches no candidate, everything is kept; the hint is
// advisory and collides.
func FilterByHint(candidates []Candidate, hint uint32) []Candidate {
	if hint == 0 {
		return candidates
	}
	var matching []Candidate
	for _, c := range candidates {
		h, err := ChannelHash(c.Channel, c.Key)
		if err != nil {
			continue
		}
		if h == hint {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return candidates
	}
	return matching
}

// validPort is the acceptance window for the plaintext fallback: a Data whose
// port falls outside it is assumed to be cipher noise that happened to parse.
func validPort(p wire.PortNum) bool {
	return p > 0 && p <= wire.PortNumMax
}

func resultFromData(status TrialStatus, cand Candidate, d *wire.Data) TrialResult {
	res := TrialResult{
		Status:  status,
		Channel: cand.Channel,
		Key:     cand.Key,
		Portnum: d.Portnum,
		Data:    d,
	}
	if d.Portnum == wire.PortNumTextMessage {
		res.Text = string(d.Payload)
	}
	if payload, ok := wire.DecodePortPayload(d.Portnum, d.Payload); ok {
		res.Payload = payload
	}
	return res
}

// TryDecrypt walks the candidate list until one key's output decodes as a
// valid Data. It is a pure function of its inputs; the bridge supplies the
// learned-key snapshot. When every candidate fails, the raw encrypted bytes
// are tried as plaintext Data before giving up, since some gateways publish
// unencrypted payloads in the encrypted field.
func TryDecrypt(packet *wire.MeshPacket, candidates []Candidate) TrialResult {
	if packet.Decoded != nil {
		return resultFromData(TrialNone, Candidate{}, packet.Decoded)
	}
	if len(packet.Encrypted) == 0 {
		return TrialResult{Status: TrialFailed, Portnum: wire.PortNumUnknown}
	}

	for _, cand := range FilterByHint(candidates, packet.ChannelHint) {
		plaintext, err := Decrypt(packet.Encrypted, cand.Key, packet.ID, packet.From)
		if err != nil {
			continue
		}
		d, err := wire.DecodeData(plaintext)
		if err != nil || !validPort(d.Portnum) {
			continue
		}
		return resultFromData(TrialSuccess, cand, d)
	}

	if d, err := wire.DecodeData(packet.Encrypted); err == nil && validPort(d.Portnum) && len(d.Payload) > 0 {
		return resultFromData(TrialPlaintext, Candidate{}, d)
	}

	return TrialResult{Status: TrialFailed, Portnum: wire.PortNumUnknown}
}
