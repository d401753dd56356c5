package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// Redis connection. RedisURL takes precedence over host/port when set.
	RedisHost string `mapstructure:"REDIS_HOST"`
	RedisPort int    `mapstructure:"REDIS_PORT"`
	RedisURL  string `mapstructure:"REDIS_URL"`

	// Reconnect policy for the session store.
	RedisRetryAttempts int `mapstructure:"REDIS_RETRY_ATTEMPTS"`
	RedisRetryDelaySec int `mapstructure:"REDIS_RETRY_DELAY_SEC"`

	// TokenActiveTime is the session active duration. It accepts Go duration
	// strings ("1h", "90m") and is converted to seconds at the Redis boundary.
	TokenActiveTime time.Duration `mapstructure:"TOKEN_ACTIVE_TIME"`
}

// RedisRetryDelay returns the reconnect delay as a duration.
func (c *Config) RedisRetryDelay() time.Duration {
	return time.Duration(c.RedisRetryDelaySec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/authgate/")
	v.AddConfigPath("$HOME/.authgate")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/authgate_dev")
	v.SetDefault("MONGO_DB_NAME", "authgate_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_RETRY_ATTEMPTS", 3)
	v.SetDefault("REDIS_RETRY_DELAY_SEC", 2)
	v.SetDefault("TOKEN_ACTIVE_TIME", "1h")

	// A missing config file is fine, we run on defaults and env vars.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
