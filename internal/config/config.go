package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	OpenWeather OpenWeatherConfig
	Kafka       KafkaConfig
	Scheduler   SchedulerConfig
	API         APIConfig
	HealthCheck HealthCheckConfig
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type OpenWeatherConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Units           string `mapstructure:"units"`
	DefaultLocation string `mapstructure:"default_location"`
}

type KafkaConfig struct {
	Broker       string `mapstructure:"broker"`
	Topic        string `mapstructure:"topic"`
	GroupID      string `mapstructure:"group_id"`
	RequiredAcks int16  `mapstructure:"required_acks"`
	MaxRetries   int    `mapstructure:"max_retries"`
}

type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type APIConfig struct {
	Port            int           `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateWindow      time.Duration `mapstructure:"rate_window"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HealthCheckConfig struct {
	APITimeout    time.Duration `mapstructure:"api_timeout"`
	KafkaTimeout  time.Duration `mapstructure:"kafka_timeout"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/weather-stream/")

	v.SetDefault("openweather.default_location", "London")
	v.SetDefault("openweather.units", "metric")
	v.SetDefault("kafka.topic", "weather")
	v.SetDefault("kafka.group_id", "weather-group")
	v.SetDefault("scheduler.interval", "30s")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if apiKey := os.Getenv("WEATHER_API_KEY"); apiKey != "" {
		v.Set("openweather.api_key", apiKey)
	}

	if baseURL := os.Getenv("OPENWEATHER_BASE_URL"); baseURL != "" {
		v.Set("openweather.base_url", baseURL)
	}

	if units := os.Getenv("OPENWEATHER_UNITS"); units != "" {
		v.Set("openweather.units", units)
	}

	if location := os.Getenv("WEATHER_DEFAULT_LOCATION"); location != "" {
		v.Set("openweather.default_location", location)
	}

	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		v.Set("kafka.broker", broker)
	}

	if topic := os.Getenv("KAFKA_WEATHER_TOPIC"); topic != "" {
		v.Set("kafka.topic", topic)
	}

	if groupID := os.Getenv("KAFKA_GROUP_ID"); groupID != "" {
		v.Set("kafka.group_id", groupID)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.OpenWeather.APIKey == "" {
		return fmt.Errorf("OpenWeather API key must not be empty")
	}

	if cfg.OpenWeather.DefaultLocation == "" {
		return fmt.Errorf("default location must not be empty")
	}

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("Kafka broker must not be empty")
	}

	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("Kafka topic must not be empty")
	}

	if cfg.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	return nil
}
