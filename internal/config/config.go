package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/tra-booker/internal/reservation"
)

type Config struct {
	Account  string
	Password string // empty skips member login

	DBPath      string // SQLite journal
	DatabaseURL string // Postgres journal; wins over DBPath when set

	RedisURL string
	LockTTL  time.Duration

	HoldFile     string
	HoldHashKey  []byte
	HoldBlockKey []byte
	CredEncKey   []byte

	MetricsAddr  string
	StationsFile string
	LocatorsFile string

	ChromeHeadless     bool
	ChromeExtensionDir string
	ChromePath         string

	MaxRetries       int
	RetryDelay       time.Duration
	ChallengeTimeout time.Duration
	OverlayRounds    int
	PollInterval     time.Duration
	ActionTimeout    time.Duration
	SeatBounds       reservation.BoundMode

	TDXClientID     string
	TDXClientSecret string

	LogLevel  string
	LogFormat string
}

// HoldEnabled reports whether both checkpoint keys are configured.
func (c Config) HoldEnabled() bool { return len(c.HoldHashKey) > 0 && len(c.HoldBlockKey) > 0 }

// Load reads envFile into the environment, without overriding variables
// already set, then builds the Config. A missing file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Account:            getenv("TRA_ACCOUNT", ""),
		Password:           os.Getenv("TRA_PASSWORD"),
		DBPath:             getenv("TRABOOK_DB", "trabook.db"),
		DatabaseURL:        getenv("DATABASE_URL", ""),
		RedisURL:           getenv("REDIS_URL", ""),
		HoldFile:           getenv("HOLD_FILE", "trabook.hold"),
		MetricsAddr:        getenv("METRICS_ADDR", ""),
		StationsFile:       getenv("STATIONS_FILE", ""),
		LocatorsFile:       getenv("LOCATORS_FILE", ""),
		ChromeExtensionDir: getenv("CHROME_EXTENSION_DIR", ""),
		ChromePath:         getenv("CHROME_PATH", ""),
		TDXClientID:        getenv("TDX_CLIENT_ID", ""),
		TDXClientSecret:    getenv("TDX_CLIENT_SECRET", ""),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.ChromeHeadless, err = parseBool("CHROME_HEADLESS", "true"); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries, err = parseInt("MAX_RETRIES", "5"); err != nil {
		return Config{}, err
	}
	if cfg.OverlayRounds, err = parseInt("OVERLAY_ROUNDS", "30"); err != nil {
		return Config{}, err
	}
	durations := []struct {
		key, def string
		dst      *time.Duration
	}{
		{"RETRY_DELAY", "3s", &cfg.RetryDelay},
		{"CHALLENGE_TIMEOUT", "2m", &cfg.ChallengeTimeout},
		{"POLL_INTERVAL", "1s", &cfg.PollInterval},
		{"ACTION_TIMEOUT", "15s", &cfg.ActionTimeout},
		{"LOCK_TTL", "30m", &cfg.LockTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return Config{}, err
		}
	}
	if cfg.SeatBounds, err = reservation.ParseBoundMode(getenv("SEAT_BOUNDS", "exclusive")); err != nil {
		return Config{}, fmt.Errorf("SEAT_BOUNDS: %w", err)
	}

	if cfg.HoldHashKey, err = optionalB64("HOLD_HASH_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.HoldBlockKey, err = optionalB64("HOLD_BLOCK_KEY"); err != nil {
		return Config{}, err
	}
	if (len(cfg.HoldHashKey) == 0) != (len(cfg.HoldBlockKey) == 0) {
		return Config{}, fmt.Errorf("HOLD_HASH_KEY and HOLD_BLOCK_KEY must be set together")
	}
	if n := len(cfg.HoldBlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return Config{}, fmt.Errorf("HOLD_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", n)
	}
	if cfg.CredEncKey, err = optionalB64("CRED_ENC_KEY"); err != nil {
		return Config{}, err
	}
	if n := len(cfg.CredEncKey); n != 0 && n != 32 {
		return Config{}, fmt.Errorf("CRED_ENC_KEY must decode to 32 bytes (got %d)", n)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func parseInt(k, def string) (int, error) {
	n, err := strconv.Atoi(getenv(k, def))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: want a positive integer", k)
	}
	return n, nil
}

func parseDuration(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(k, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: want a duration such as 3s or 2m", k)
	}
	return d, nil
}

func parseBool(k, def string) (bool, error) {
	b, err := strconv.ParseBool(getenv(k, def))
	if err != nil {
		return false, fmt.Errorf("invalid %s: want true or false", k)
	}
	return b, nil
}

// optionalB64 decodes padded or raw base64. The value may also name a file
// holding it, as with mounted secrets.
func optionalB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, nil
	}
	if b, err := os.ReadFile(v); err == nil {
		v = strings.TrimSpace(string(b))
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
