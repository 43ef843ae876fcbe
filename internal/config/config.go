package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/geotrace/geotrace-go/internal/crypto"
)

// Config is loaded once at startup and passed by value to constructors.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	Env           string        `env:"ENV" envDefault:"development"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseDSN   string        `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/geotrace?parseTime=true"`
	AutoMigrate   bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpiry     time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`
	BcryptRounds  BcryptCost    `env:"BCRYPT_ROUNDS" envDefault:"12"`
	CORSOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	IPInfo        IPInfo        `envPrefix:"IPINFO_"`
	GeoTimeout    time.Duration `env:"GEO_TIMEOUT" envDefault:"5s"`
	ShutdownAfter time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// IPInfo contains the external geolocation provider parameters.
type IPInfo struct {
	Token   string  `env:"TOKEN"`
	BaseURL string  `env:"BASE_URL" envDefault:"https://ipinfo.io"`
	RPS     float64 `env:"RPS" envDefault:"10"`
	Burst   int     `env:"BURST" envDefault:"20"`
}

// BcryptCost is the bcrypt work factor. It never fails to parse: values that
// are not numbers or lie outside the accepted range become crypto.DefaultCost.
type BcryptCost int

func (c *BcryptCost) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(strings.TrimSpace(string(text)))
	if err != nil || n < crypto.MinCost || n > crypto.MaxCost {
		n = crypto.DefaultCost
	}
	*c = BcryptCost(n)
	return nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	// An empty BCRYPT_ROUNDS skips UnmarshalText entirely.
	if cfg.BcryptRounds == 0 {
		cfg.BcryptRounds = crypto.DefaultCost
	}

	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 7 * 24 * time.Hour
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			slog.Error("JWT_SECRET is not set, token issuance and verification will fail")
		} else {
			slog.Warn("JWT_SECRET is not set, authenticated routes will answer 401")
		}
	}

	return cfg, nil
}
