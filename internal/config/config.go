package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AWSBin          string        `envconfig:"RSNAPSHOT_AWS_BIN" default:"aws"`
	AWSRegion       string        `envconfig:"RSNAPSHOT_AWS_REGION"`
	AWSProfile      string        `envconfig:"RSNAPSHOT_AWS_PROFILE"`
	Shell           string        `envconfig:"RSNAPSHOT_SHELL" default:"/bin/sh"`
	CommandTimeout  time.Duration `envconfig:"RSNAPSHOT_COMMAND_TIMEOUT" default:"0s"`
	LogLevel        string        `envconfig:"RSNAPSHOT_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"RSNAPSHOT_LOG_FORMAT" default:"console"`
	MetricsTextfile string        `envconfig:"RSNAPSHOT_METRICS_TEXTFILE"`
	PushgatewayURL  string        `envconfig:"RSNAPSHOT_PUSHGATEWAY_URL"`
	DBDSN           string        `envconfig:"RSNAPSHOT_DB_DSN"`
}

// Load reads Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.AWSBin == "" {
		return fmt.Errorf("RSNAPSHOT_AWS_BIN must not be empty")
	}
	if c.Shell == "" {
		return fmt.Errorf("RSNAPSHOT_SHELL must not be empty")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("RSNAPSHOT_COMMAND_TIMEOUT must not be negative")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("RSNAPSHOT_LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
