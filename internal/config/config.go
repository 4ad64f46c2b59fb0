package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// StdinDevice is the SERIAL_DEVICE value that reads lines from standard input.
const StdinDevice = "-"

// Config holds all service settings, populated from environment variables.
type Config struct {
	SerialDevice   string
	SerialBaud     int
	WindCorrection int
	LogFile        string
	Passthrough    bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional sinks. Each is enabled by its address setting.
	KafkaBrokers []string
	KafkaTopic   string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	SQLitePath string
}

// KafkaEnabled reports whether records are published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// MQTTEnabled reports whether records are published to an MQTT broker.
func (c *Config) MQTTEnabled() bool { return c.MQTTBroker != "" }

// SQLiteEnabled reports whether records are stored in SQLite.
func (c *Config) SQLiteEnabled() bool { return c.SQLitePath != "" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	baud, err := parseInt("SERIAL_BAUD", 9600)
	if err != nil {
		return nil, err
	}
	if baud <= 0 {
		return nil, errors.New("SERIAL_BAUD must be positive")
	}

	windCorrection, err := parseInt("WIND_CORRECTION", 270)
	if err != nil {
		return nil, err
	}

	mqttPort, err := parseInt("MQTT_PORT", 1883)
	if err != nil {
		return nil, err
	}

	passthrough, err := strconv.ParseBool(sharedcfg.EnvOrDefault("PASSTHROUGH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid PASSTHROUGH: %w", err)
	}

	// Set-but-empty HTTP_ADDR disables the ops server.
	httpAddr, ok := os.LookupEnv("HTTP_ADDR")
	if !ok {
		httpAddr = ":8080"
	}

	cfg := &Config{
		SerialDevice:    sharedcfg.EnvOrDefault("SERIAL_DEVICE", "/dev/ttyACM0"),
		SerialBaud:      baud,
		WindCorrection:  windCorrection,
		LogFile:         sharedcfg.EnvOrDefault("LOG_FILE", "data.log"),
		Passthrough:     passthrough,
		HTTPAddr:        httpAddr,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-records"),

		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTPort:     mqttPort,
		MQTTClientID: sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "weather-station-logger"),
		MQTTTopic:    sharedcfg.EnvOrDefault("MQTT_TOPIC", "weather/records"),

		SQLitePath: os.Getenv("SQLITE_PATH"),
	}

	if cfg.MQTTEnabled() && (cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535) {
		return nil, errors.New("invalid MQTT_PORT")
	}

	return cfg, nil
}

func parseInt(key string, fallback int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
