package bridge

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/meshtool"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/radio"
)

// Config is the bridge's startup surface. It is read once; the bridge never
// consults the environment afterwards.
type Config struct {
	MQTTServer   string
	MQTTUsername string
	MQTTPassword string

	// ListenAddr is where the WebSocket endpoint is served.
	ListenAddr string

	DefaultRoot    string
	DefaultRegion  string
	DefaultPath    string
	DefaultChannel string
	DefaultKey     string

	// GatewayID is the node id outbound packets claim when the browser does
	// not name one.
	GatewayID meshtool.NodeID

	// DefaultTopic is the seed subscription, inserted once on first connect.
	DefaultTopic string

	// ChannelKeys seeds the learned-key cache.
	ChannelKeys map[string]string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadConfig reads the environment, honouring a .env file when present.
func LoadConfig() (Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		MQTTServer:     envOr("MQTT_SERVER", "tcp://mqtt.meshtastic.org:1883"),
		MQTTUsername:   envOr("MQTT_USERNAME", "meshdev"),
		MQTTPassword:   envOr("MQTT_PASSWORD", "large4cats"),
		ListenAddr:     envOr("LISTEN_ADDR", ":8080"),
		DefaultRoot:    envOr("DEFAULT_ROOT", "msh"),
		DefaultRegion:  envOr("DEFAULT_REGION", "EU_868"),
		DefaultPath:    envOr("DEFAULT_PATH", "e"),
		DefaultChannel: envOr("DEFAULT_CHANNEL", "LongFast"),
		DefaultKey:     envOr("DEFAULT_KEY", radio.DefaultKeyBase64),
		ChannelKeys:    map[string]string{},
	}
	cfg.DefaultTopic = envOr("DEFAULT_TOPIC",
		fmt.Sprintf("%s/%s/2/#", cfg.DefaultRoot, cfg.DefaultRegion))

	if raw := os.Getenv("GATEWAY_ID"); raw != "" {
		id, err := meshtool.ParseNodeID(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GATEWAY_ID: %w", err)
		}
		cfg.GatewayID = id
	} else {
		id, err := meshtool.RandomNodeID()
		if err != nil {
			return Config{}, fmt.Errorf("generating gateway id: %w", err)
		}
		cfg.GatewayID = id
	}

	// CHANNEL_KEYS is a comma-separated list of name:base64key pairs.
	if raw := os.Getenv("CHANNEL_KEYS"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			name, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || name == "" {
				return Config{}, fmt.Errorf("CHANNEL_KEYS: malformed pair %q", pair)
			}
			cfg.ChannelKeys[name] = key
		}
	}
	cfg.ChannelKeys[cfg.DefaultChannel] = cfg.DefaultKey

	return cfg, nil
}
