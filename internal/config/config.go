package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"stellarcade/internal/domain"
	"stellarcade/internal/logger"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Contracts holds the address of every contract instance the host runs.
type Contracts struct {
	Escrow   domain.Address `env:"ESCROW" envDefault:"CESCROW"`
	Fairness domain.Address `env:"FAIRNESS" envDefault:"CFAIRNESS"`
	CoinFlip domain.Address `env:"COINFLIP" envDefault:"CCOINFLIP"`
	Dice     domain.Address `env:"DICE" envDefault:"CDICE"`
	AIGame   domain.Address `env:"AI_GAME" envDefault:"CAIGAME"`
	Rooms    domain.Address `env:"ROOMS" envDefault:"CROOMS"`
	Router   domain.Address `env:"ROUTER" envDefault:"CROUTER"`
}

type Config struct {
	AppPort         string `env:"APP_PORT" envDefault:"8080"`
	Version         string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON         bool   `env:"LOG_JSON" envDefault:"false"`
	AllowedOrigin   string `env:"ALLOWED_ORIGIN"`
	EventsPageLimit int    `env:"EVENTS_PAGE_LIMIT" envDefault:"200"`
	StoreDriver     string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL     string `env:"DATABASE_URL"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"stellarcade.db"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	EventStream     string `env:"EVENT_STREAM" envDefault:"stellarcade:events"`
	EventStreamLen  int64  `env:"EVENT_STREAM_MAXLEN" envDefault:"100000"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	Admin     domain.Address `env:"ADMIN_ADDRESS,required,notEmpty"`
	Oracle    domain.Address `env:"ORACLE_ADDRESS,required,notEmpty"`
	Referee   domain.Address `env:"AI_REFEREE_ADDRESS"`
	Contracts Contracts      `envPrefix:"CONTRACT_"`

	HouseEdgeBps   int64 `env:"HOUSE_EDGE_BPS" envDefault:"250"`
	MinWager       int64 `env:"MIN_WAGER" envDefault:"10"`
	MaxWager       int64 `env:"MAX_WAGER" envDefault:"100000"`
	DiceMultiplier int64 `env:"DICE_MULTIPLIER" envDefault:"6"`

	APIRateLimit    int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow   time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	PlayRateLimit   int           `env:"PLAY_RATE_LIMIT" envDefault:"60"`
	PlayRateWindow  time.Duration `env:"PLAY_RATE_WINDOW" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Parse reads .env (if present) and the process environment.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is Parse for main: any error is fatal.
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.HouseEdgeBps < 0 || c.HouseEdgeBps > domain.BasisPointsDivisor {
		errs = append(errs, fmt.Errorf("HOUSE_EDGE_BPS must be within 0..%d", domain.BasisPointsDivisor))
	}
	if c.MinWager <= 0 || c.MinWager > c.MaxWager {
		errs = append(errs, errors.New("MIN_WAGER must be positive and not above MAX_WAGER"))
	}
	if c.DiceMultiplier < 2 {
		errs = append(errs, errors.New("DICE_MULTIPLIER must be at least 2"))
	}
	if c.EventsPageLimit <= 0 {
		errs = append(errs, errors.New("EVENTS_PAGE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

// RefereeAddress is the AI referee endpoint; the oracle when unset.
func (c *Config) RefereeAddress() domain.Address {
	if c.Referee.IsZero() {
		return c.Oracle
	}
	return c.Referee
}
