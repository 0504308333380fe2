package bridge

import "time"

// Command is what a browser sends: one JSON object per socket message. Key is
// a pointer so "key absent" (use the default) is distinguishable from
// "key empty" (no encryption).
type Command struct {
	Type      string  `json:"type"`
	Root      string  `json:"root,omitempty"`
	Region    string  `json:"region,omitempty"`
	Path      string  `json:"path,omitempty"`
	Channel   string  `json:"channel,omitempty"`
	GatewayID string  `json:"gatewayId,omitempty"`
	From      string  `json:"from,omitempty"`
	To        string  `json:"to,omitempty"`
	Text      string  `json:"text,omitempty"`
	Key       *string `json:"key,omitempty"`
	Topic     string  `json:"topic,omitempty"`
}

// StatusView reports broker-link state transitions.
type StatusView struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// SubscriptionsView is the full subscription snapshot.
type SubscriptionsView struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// TopicAckView acknowledges a subscribe or unsubscribe to its originator.
type TopicAckView struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// PublishedView acknowledges a publish to its originator.
type PublishedView struct {
	Type     string  `json:"type"`
	Mode     string  `json:"mode"`
	Topic    string  `json:"topic"`
	PacketID *uint32 `json:"packetId,omitempty"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Text     string  `json:"text"`
}

// ErrorView carries a command failure back to its originator only.
type ErrorView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessageView is a decoded radio payload fanned out to every browser.
type MessageView struct {
	Type             string   `json:"type"`
	Topic            string   `json:"topic"`
	ChannelID        string   `json:"channelId"`
	GatewayID        string   `json:"gatewayId"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	PacketID         uint32   `json:"packetId"`
	HopLimit         uint32   `json:"hopLimit"`
	HopStart         uint32   `json:"hopStart"`
	RxTime           uint32   `json:"rxTime"`
	RxSnr            *float32 `json:"rxSnr,omitempty"`
	RxRssi           *int32   `json:"rxRssi,omitempty"`
	ViaMqtt          bool     `json:"viaMqtt"`
	Portnum          uint32   `json:"portnum"`
	PortName         string   `json:"portName"`
	Text             string   `json:"text,omitempty"`
	Payload          any      `json:"payload,omitempty"`
	DecryptionStatus string   `json:"decryptionStatus"`
	DecodeError      string   `json:"decodeError,omitempty"`
	Timestamp        int64    `json:"timestamp"`
}

// PacketMeta summarises whatever packet headers a sub-threshold binary
// payload yielded.
type PacketMeta struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	PacketID  uint32 `json:"packetId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
	GatewayID string `json:"gatewayId,omitempty"`
}

// RawMessageView is an un-decoded payload fanned out so browsers can show
// that something arrived.
type RawMessageView struct {
	Type        string      `json:"type"`
	Topic       string      `json:"topic"`
	Payload     string      `json:"payload"`
	PayloadHex  string      `json:"payloadHex"`
	Size        int         `json:"size"`
	ContentType string      `json:"contentType"`
	TopicPath   string      `json:"topicPath"`
	PreviewText string      `json:"previewText,omitempty"`
	DecodeError string      `json:"decodeError,omitempty"`
	JSON        any         `json:"json,omitempty"`
	PacketMeta  *PacketMeta `json:"packetMeta,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
