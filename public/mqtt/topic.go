package mqtt

import "strings"

// PathUnknown is reported when a topic does not carry the 2 marker.
const PathUnknown = "unknown"

// Topic is the parsed form of a Meshtastic MQTT topic:
// <root>/<region>/2/<path>/<channel>/<gateway>. The root may itself contain
// slashes; parsing locates the literal 2 segment.
type Topic struct {
	Root    string
	Region  string
	Path    string
	Channel string
	Gateway string
}

// ParseTopic parses a topic string. Non-canonical topics get PathUnknown and
// a best-effort channel/gateway from the last two segments.
func ParseTopic(topic string) Topic {
	segs := strings.Split(topic, "/")
	for i, seg := range segs {
		if seg != "2" || i+3 >= len(segs) {
			continue
		}
		t := Topic{
			Region:  "",
			Path:    segs[i+1],
			Channel: segs[i+2],
			Gateway: segs[i+3],
		}
		if i >= 1 {
			t.Region = segs[i-1]
		}
		if i >= 2 {
			t.Root = strings.Join(segs[:i-1], "/")
		}
		return t
	}

	t := Topic{Path: PathUnknown}
	if n := len(segs); n >= 1 {
		t.Gateway = segs[n-1]
		if n >= 2 {
			t.Channel = segs[n-2]
		}
	}
	return t
}

// BuildTopic assembles the canonical topic, inserting the 2 marker exactly
// once. The path may be given bare ("e", "json") or prefixed ("2/json").
func BuildTopic(root, region, path, channel, gateway string) string {
	p := strings.Trim(path, "/")
	if p != "2" && !strings.HasPrefix(p, "2/") {
		p = "2/" + p
	}
	return strings.Join([]string{root, region, p, channel, gateway}, "/")
}
