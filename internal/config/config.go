package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации песочницы.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	RenderDistance int `yaml:"render_distance"` // радиус загрузки в чанках
}

type PhysicsConfig struct {
	Speed            float64 `yaml:"speed"`
	Gravity          float64 `yaml:"gravity"`
	GravityScale     float64 `yaml:"gravity_scale"`
	JumpForce        float64 `yaml:"jump_force"`
	TerminalVelocity float64 `yaml:"terminal_velocity"`
	WarmupMS         int     `yaml:"warmup_ms"`
	CharacterRadius  float64 `yaml:"character_radius"`
	CharacterHeight  float64 `yaml:"character_height"`
	InboxSize        int     `yaml:"inbox_size"`
	OutboxSize       int     `yaml:"outbox_size"`
}

// Warmup возвращает задержку перед приёмом движения
func (p PhysicsConfig) Warmup() time.Duration {
	return time.Duration(p.WarmupMS) * time.Millisecond
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // badger | redis | memory
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

type EventBusConfig struct {
	Backend   string `yaml:"backend"` // memory | nats
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type MetricsConfig struct {
	Port int `yaml:"port"` // 0 отключает HTTP экспортёр
}

type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint"` // host:port OTLP HTTP; пусто - трассировка выключена
	Service  string `yaml:"service"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // пусто - без файлового вывода
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.World.RenderDistance <= 0 {
		c.World.RenderDistance = 2
	}

	p := &c.Physics
	if p.Speed == 0 {
		p.Speed = 10
	}
	if p.Gravity == 0 {
		p.Gravity = 9.8
	}
	if p.GravityScale == 0 {
		p.GravityScale = 2
	}
	if p.JumpForce == 0 {
		p.JumpForce = 12
	}
	if p.TerminalVelocity == 0 {
		p.TerminalVelocity = -25
	}
	if p.CharacterRadius == 0 {
		p.CharacterRadius = 0.4
	}
	if p.CharacterHeight == 0 {
		p.CharacterHeight = 3
	}
	if p.InboxSize <= 0 {
		p.InboxSize = 256
	}
	if p.OutboxSize <= 0 {
		p.OutboxSize = 16
	}
	if p.WarmupMS < 0 {
		p.WarmupMS = 0
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = getStringWithEnvFallback("", "SANDBOX_STORAGE", "memory")
	}
	if c.Storage.Path == "" {
		c.Storage.Path = getStringWithEnvFallback("", "SANDBOX_DATA", "data")
	}
	if c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = getStringWithEnvFallback("", "SANDBOX_REDIS_ADDR", "localhost:6379")
	}

	if c.EventBus.Backend == "" {
		c.EventBus.Backend = "memory"
	}
	if c.EventBus.URL == "" {
		c.EventBus.URL = getStringWithEnvFallback("", "SANDBOX_NATS_URL", "nats://127.0.0.1:4222")
	}
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "SANDBOX_EVENTS"
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = 24
	}

	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = getStringWithEnvFallback("", "SANDBOX_OTLP_ENDPOINT", "")
	}
	if c.Telemetry.Service == "" {
		c.Telemetry.Service = "sandbox"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// GetMetricsPort возвращает порт метрик с поддержкой fallback значений
func (m *MetricsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(m.Port, "SANDBOX_METRICS_PORT", 0)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// getStringWithEnvFallback то же для строковых значений
func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Validate проверяет значения, которые нельзя исправить умолчаниями
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "badger", "redis", "memory":
	default:
		return fmt.Errorf("неизвестный backend хранилища: %q", c.Storage.Backend)
	}
	switch c.EventBus.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("неизвестный backend шины событий: %q", c.EventBus.Backend)
	}
	if c.Physics.TerminalVelocity >= 0 {
		return fmt.Errorf("terminal_velocity должна быть отрицательной, получено %v", c.Physics.TerminalVelocity)
	}
	return nil
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV SANDBOX_CONFIG или возвращает умолчания.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SANDBOX_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
