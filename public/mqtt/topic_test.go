package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTopicCanonical(t *testing.T) {
	got := ParseTopic("msh/EU_868/2/e/LongFast/!d844b556")
	require.Equal(t, Topic{
		Root:    "msh",
		Region:  "EU_868",
		Path:    "e",
		Channel: "LongFast",
		Gateway: "!d844b556",
	}, got)
}

func TestParseTopicMultiSegmentRoot(t *testing.T) {
	got := ParseTopic("custom/root/US/2/json/mqtt/!abcd1234")
	require.Equal(t, Topic{
		Root:    "custom/root",
		Region:  "US",
		Path:    "json",
		Channel: "mqtt",
		Gateway: "!abcd1234",
	}, got)
}

func TestParseTopicRootless(t *testing.T) {
	got := ParseTopic("EU_868/2/c/ShortFast/!00000001")
	require.Equal(t, Topic{
		Root:    "",
		Region:  "EU_868",
		Path:    "c",
		Channel: "ShortFast",
		Gateway: "!00000001",
	}, got)
}

func TestParseTopicNonCanonical(t *testing.T) {
	got := ParseTopic("some/odd/topic")
	require.Equal(t, Topic{
		Path:    PathUnknown,
		Channel: "odd",
		Gateway: "topic",
	}, got)
}

func TestParseTopicTooShortAfterMarker(t *testing.T) {
	// A trailing 2 has nothing after it, so it cannot be the marker.
	got := ParseTopic("msh/EU_868/2")
	require.Equal(t, PathUnknown, got.Path)
	require.Equal(t, "2", got.Gateway)
}

func TestParseTopicChannelNamed2(t *testing.T) {
	// The first 2 with three following segments wins, even when a later
	// segment is also 2.
	got := ParseTopic("msh/EU_868/2/e/2/!d844b556")
	require.Equal(t, "e", got.Path)
	require.Equal(t, "2", got.Channel)
}

func TestBuildTopicInsertsMarker(t *testing.T) {
	require.Equal(t,
		"msh/EU_868/2/json/mqtt/!d844b556",
		BuildTopic("msh", "EU_868", "2/json", "mqtt", "!d844b556"))
	require.Equal(t,
		"msh/EU_868/2/json/mqtt/!d844b556",
		BuildTopic("msh", "EU_868", "json", "mqtt", "!d844b556"))
	require.Equal(t,
		"msh/EU_868/2/e/LongFast/!d844b556",
		BuildTopic("msh", "EU_868", "e", "LongFast", "!d844b556"))
}

func TestBuildParseRoundTrip(t *testing.T) {
	topic := BuildTopic("msh", "EU_868", "e", "LongFast", "!d844b556")
	parsed := ParseTopic(topic)
	require.Equal(t, "msh", parsed.Root)
	require.Equal(t, "EU_868", parsed.Region)
	require.Equal(t, "e", parsed.Path)
	require.Equal(t, "LongFast", parsed.Channel)
	require.Equal(t, "!d844b556", parsed.Gateway)
}
