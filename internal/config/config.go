package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the SDK command-line tools.
type Config struct {
	App    AppConfig
	Hub    HubConfig
	Kafka  KafkaConfig
	Bridge BridgeConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// HubConfig points the clients at the Adapter Hub endpoints.
type HubConfig struct {
	RPCURL         string
	APIURL         string
	TimeoutSeconds int
}

// KafkaConfig defines the broker list and topics consumed by the bridge.
type KafkaConfig struct {
	Brokers       []string
	Topics        []string
	ConsumerGroup string
	DLQTopic      string
}

// BridgeConfig controls forwarding behaviour.
type BridgeConfig struct {
	Concurrency           int
	ForwardTimeoutSeconds int
}

// Load reads environment variables (honouring a local .env file), applies
// defaults, validates required values and returns a populated Config.
// Kafka settings are only required when requireKafka is set, so the probe
// tool can run against a hub without a broker.
func Load(requireKafka bool) (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Hub.RPCURL = ldr.getString("HUB_RPC_URL", "", true)
	cfg.Hub.APIURL = ldr.getString("HUB_API_URL", "", false)
	cfg.Hub.TimeoutSeconds = ldr.getInt("HUB_TIMEOUT_SECONDS", 30, false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", requireKafka)
	cfg.Kafka.Topics = ldr.getStringSlice("KAFKA_TOPICS", requireKafka)
	cfg.Kafka.ConsumerGroup = ldr.getString("KAFKA_CONSUMER_GROUP", "", requireKafka)
	cfg.Kafka.DLQTopic = ldr.getString("KAFKA_DLQ_TOPIC", "", false)

	cfg.Bridge.Concurrency = ldr.getInt("BRIDGE_CONCURRENCY", 4, false)
	cfg.Bridge.ForwardTimeoutSeconds = ldr.getInt("BRIDGE_FORWARD_TIMEOUT_SECONDS", 10, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
