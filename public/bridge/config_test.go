package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "tcp://mqtt.meshtastic.org:1883", cfg.MQTTServer)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "LongFast", cfg.DefaultChannel)
	require.Equal(t, "AQ==", cfg.DefaultKey)
	require.Equal(t, "msh/EU_868/2/#", cfg.DefaultTopic)
	require.NotZero(t, cfg.GatewayID)
	require.Equal(t, "AQ==", cfg.ChannelKeys["LongFast"])
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("MQTT_SERVER", "tcp://broker.local:1883")
	t.Setenv("DEFAULT_REGION", "US")
	t.Setenv("GATEWAY_ID", "!d844b556")
	t.Setenv("CHANNEL_KEYS", "Private:Ag==, Alpha:AQ==")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "tcp://broker.local:1883", cfg.MQTTServer)
	require.Equal(t, "msh/US/2/#", cfg.DefaultTopic)
	require.Equal(t, "!d844b556", cfg.GatewayID.String())
	require.Equal(t, "Ag==", cfg.ChannelKeys["Private"])
	require.Equal(t, "AQ==", cfg.ChannelKeys["Alpha"])
	// The default channel key is always present.
	require.Equal(t, "AQ==", cfg.ChannelKeys["LongFast"])
}

func TestLoadConfigRejectsBadGatewayID(t *testing.T) {
	t.Setenv("GATEWAY_ID", "nonsense")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsMalformedChannelKeys(t *testing.T) {
	t.Setenv("CHANNEL_KEYS", "justachannelname")
	_, err := LoadConfig()
	require.Error(t, err)
}
