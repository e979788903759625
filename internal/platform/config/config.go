// Package config loads process configuration from the environment.
// Values that admins may change at runtime are only the starting
// point; the runtimeconfig service overlays database overrides on top.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
)

const defaultDiscoveryQueries = "taxi tashkent,taksi toshkent,taxi samarqand,taxi andijon," +
	"taxi namangan,taxi fargona,taxi buxoro,taxi navoiy,taxi qarshi,taxi termiz,taxi nukus," +
	"taxi urganch,yandex taxi uz"

type Config struct {
	AppEnv      string  `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string  `env:"POSTGRES_DSN,required"`
	BotToken    string  `env:"BOT_TOKEN,required"`
	AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`

	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Telegram user account (MTProto) credentials.
	TGAPIID       int    `env:"TG_API_ID,required"`
	TGAPIHash     string `env:"TG_API_HASH,required"`
	TGPhone       string `env:"TG_PHONE"`
	TG2FAPassword string `env:"TG_2FA_PASSWORD"`
	TGSessionPath string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`

	ForwardTarget      string   `env:"FORWARD_TARGET" envDefault:"me"`
	MinTextLength      int      `env:"MIN_TEXT_LENGTH" envDefault:"18"`
	PriorityGroupLinks []string `env:"PRIORITY_GROUP_LINKS" envSeparator:","`

	PerGroupActionsHour int `env:"PER_GROUP_ACTIONS_HOUR" envDefault:"15"`
	PerGroupReplies10m  int `env:"PER_GROUP_REPLIES_10M" envDefault:"3"`
	JoinLimitDay        int `env:"JOIN_LIMIT_DAY" envDefault:"2"`
	GlobalActionsMinute int `env:"GLOBAL_ACTIONS_MINUTE" envDefault:"25"`

	MinHumanDelaySec float64 `env:"MIN_HUMAN_DELAY_SEC" envDefault:"1.8"`
	MaxHumanDelaySec float64 `env:"MAX_HUMAN_DELAY_SEC" envDefault:"6.2"`

	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	QueueMaxSize int `env:"QUEUE_MAX_SIZE" envDefault:"2000"`

	HistorySyncEnabled  bool          `env:"HISTORY_SYNC_ENABLED" envDefault:"true"`
	HistorySyncInterval time.Duration `env:"HISTORY_SYNC_INTERVAL" envDefault:"5m"`
	HistoryBatchSize    int           `env:"HISTORY_SYNC_BATCH_SIZE" envDefault:"120"`

	InviteSyncInterval time.Duration `env:"INVITE_SYNC_INTERVAL" envDefault:"15m"`

	DiscoveryEnabled    bool          `env:"DISCOVERY_ENABLED" envDefault:"true"`
	DiscoveryInterval   time.Duration `env:"DISCOVERY_INTERVAL" envDefault:"30m"`
	DiscoveryQueryLimit int           `env:"DISCOVERY_QUERY_LIMIT" envDefault:"20"`
	DiscoveryJoinBatch  int           `env:"DISCOVERY_JOIN_BATCH" envDefault:"4"`
	DiscoveryQueries    string        `env:"DISCOVERY_QUERIES"`

	BroadcastEnabled bool `env:"BOT_BROADCAST_SUBSCRIBERS" envDefault:"true"`

	AdminWebEnabled bool   `env:"ADMIN_WEB_ENABLED" envDefault:"true"`
	AdminWebAddr    string `env:"ADMIN_WEB_ADDR" envDefault:"0.0.0.0:1311"`
	AdminWebToken   string `env:"ADMIN_WEB_TOKEN"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if cfg.DiscoveryQueries == "" {
		cfg.DiscoveryQueries = defaultDiscoveryQueries
	}

	if cfg.MaxHumanDelaySec < cfg.MinHumanDelaySec {
		return nil, fmt.Errorf("MAX_HUMAN_DELAY_SEC %g below MIN_HUMAN_DELAY_SEC %g",
			cfg.MaxHumanDelaySec, cfg.MinHumanDelaySec)
	}

	return cfg, nil
}

// IsAdmin reports whether the user id belongs to a configured admin.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// InitialRuntime builds the runtime settings snapshot those values
// start from before database overrides are applied.
func (c *Config) InitialRuntime() (runtimeconfig.Snapshot, error) {
	queries, err := runtimeconfig.ParseQueries(c.DiscoveryQueries)
	if err != nil {
		return runtimeconfig.Snapshot{}, fmt.Errorf("parsing DISCOVERY_QUERIES: %w", err)
	}

	return runtimeconfig.Snapshot{
		ForwardTarget:       c.ForwardTarget,
		MinTextLength:       c.MinTextLength,
		PerGroupActionsHour: c.PerGroupActionsHour,
		PerGroupReplies10m:  c.PerGroupReplies10m,
		JoinLimitDay:        c.JoinLimitDay,
		GlobalActionsMinute: c.GlobalActionsMinute,
		MinHumanDelaySec:    c.MinHumanDelaySec,
		MaxHumanDelaySec:    c.MaxHumanDelaySec,
		DiscoveryEnabled:    c.DiscoveryEnabled,
		DiscoveryQueryLimit: c.DiscoveryQueryLimit,
		DiscoveryJoinBatch:  c.DiscoveryJoinBatch,
		DiscoveryQueries:    queries,
	}, nil
}
