package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AMI    AMIConfig    `yaml:"ami"`
	HTTP   HTTPConfig   `yaml:"http"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Router RouterConfig `yaml:"router"`
	Log    LogConfig    `yaml:"log"`
}

type AMIConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Secret   string `yaml:"secret"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MQTTConfig drives the optional event mirror. Disabled by default.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// RouterConfig names the dialplan landmarks the classifier and routing
// policy key off.
type RouterConfig struct {
	Destination     string `yaml:"destination"`
	RedirectContext string `yaml:"redirect_context"`
	GSMMarker       string `yaml:"gsm_marker"`
	GSMContext      string `yaml:"gsm_context"`
	TrunkContext    string `yaml:"trunk_context"`
	InternalContext string `yaml:"internal_context"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *AMIConfig) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AMI: AMIConfig{
			Host: "127.0.0.1",
			Port: 5038,
		},
		HTTP: HTTPConfig{
			Addr: ":8000",
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "callrouter",
			TopicPrefix: "callrouter",
		},
		Router: RouterConfig{
			Destination:     "1000",
			RedirectContext: "from-internal",
			GSMMarker:       "gsm",
			GSMContext:      "from-gsm",
			TrunkContext:    "from-bevatel",
			InternalContext: "from-internal",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) validate() error {
	if c.AMI.Host == "" {
		return fmt.Errorf("ami.host is required")
	}
	if c.AMI.Port < 1 || c.AMI.Port > 65535 {
		return fmt.Errorf("ami.port must be between 1 and 65535, got %d", c.AMI.Port)
	}
	if c.AMI.Username == "" {
		return fmt.Errorf("ami.username is required")
	}
	if c.AMI.Secret == "" {
		return fmt.Errorf("ami.secret is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Router.Destination == "" {
		return fmt.Errorf("router.destination is required")
	}
	if c.Router.RedirectContext == "" {
		return fmt.Errorf("router.redirect_context is required")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.ClientID == "" {
			return fmt.Errorf("mqtt.client_id is required when mqtt is enabled")
		}
		if c.MQTT.TopicPrefix == "" {
			return fmt.Errorf("mqtt.topic_prefix is required when mqtt is enabled")
		}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
