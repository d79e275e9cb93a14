package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	pkgconfig "github.com/weiawesome/wes-io-live/pkg/config"
	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	Stream    StreamConfig
	Broadcast BroadcastConfig
	WebSocket WebSocketConfig
	Ingest    IngestConfig
	Mirror    MirrorConfig
	PubSub    pubsub.Config `mapstructure:"pubsub"`
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// StreamConfig is the per-session input: whose live stream to follow and how
// many likes each spawn kind costs.
type StreamConfig struct {
	Username       string
	EnemyThreshold int64 `mapstructure:"enemy_threshold"`
	BossThreshold  int64 `mapstructure:"boss_threshold"`
	ItemThreshold  int64 `mapstructure:"item_threshold"`
	MaxComboCount  int   `mapstructure:"max_combo_count"`
}

type BroadcastConfig struct {
	Interval time.Duration
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type IngestConfig struct {
	HTTPEnabled   bool `mapstructure:"http_enabled"`
	PubSubEnabled bool `mapstructure:"pubsub_enabled"`
}

type MirrorConfig struct {
	Enabled bool
}

// Load reads ./config/config.yaml (or $CONFIG_PATH/config.yaml) and the environment.
func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_PATH", "./config"), "config")
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6789)
	v.SetDefault("stream.username", "")
	v.SetDefault("stream.enemy_threshold", 20)
	v.SetDefault("stream.boss_threshold", 1000)
	v.SetDefault("stream.item_threshold", 100)
	v.SetDefault("stream.max_combo_count", 1000)
	v.SetDefault("broadcast.interval", "100ms")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "2s")
	v.SetDefault("websocket.max_message_size", 512)
	v.SetDefault("ingest.http_enabled", true)
	v.SetDefault("ingest.pubsub_enabled", false)
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "spawn-service")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "spawn-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("stream.username", "STREAM_USERNAME")
	v.BindEnv("stream.enemy_threshold", "ENEMY_THRESHOLD")
	v.BindEnv("stream.boss_threshold", "BOSS_THRESHOLD")
	v.BindEnv("stream.item_threshold", "ITEM_THRESHOLD")
	v.BindEnv("stream.max_combo_count", "MAX_COMBO_COUNT")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Broadcast.Interval = pkgconfig.Duration(v, "broadcast.interval", 100*time.Millisecond)
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 2*time.Second)
	cfg.PubSub.Redis.ReadTimeout = pkgconfig.Duration(v, "pubsub.redis.read_timeout", 3*time.Second)
	cfg.PubSub.Redis.WriteTimeout = pkgconfig.Duration(v, "pubsub.redis.write_timeout", 3*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Stream.Username == "" {
		errs = append(errs, errors.New("stream.username is required"))
	}
	if c.Stream.EnemyThreshold <= 0 {
		errs = append(errs, fmt.Errorf("stream.enemy_threshold must be positive, got %d", c.Stream.EnemyThreshold))
	}
	if c.Stream.BossThreshold <= 0 {
		errs = append(errs, fmt.Errorf("stream.boss_threshold must be positive, got %d", c.Stream.BossThreshold))
	}
	if c.Stream.ItemThreshold <= 0 {
		errs = append(errs, fmt.Errorf("stream.item_threshold must be positive, got %d", c.Stream.ItemThreshold))
	}
	if c.Stream.MaxComboCount <= 0 {
		errs = append(errs, fmt.Errorf("stream.max_combo_count must be positive, got %d", c.Stream.MaxComboCount))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if (c.Ingest.PubSubEnabled || c.Mirror.Enabled) && c.PubSub.Driver != "redis" && c.PubSub.Driver != "kafka" {
		errs = append(errs, fmt.Errorf("pubsub.driver must be redis or kafka, got %q", c.PubSub.Driver))
	}
	return errors.Join(errs...)
}
