package samsbet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. The odds engine itself takes
// these values as parameters and never reads Config.
type Config struct {
	// Storage
	AssetsPath  string // base directory of local state
	DbPath      string // sqlite database holding analysis runs
	LeaguesFile string // YAML list of tracked leagues

	// Upstream API
	APIBaseURL      string        // provider REST root
	RequestInterval time.Duration // minimum gap between requests (default: 200ms)
	RequestBurst    int           // requests allowed back to back (default: 1)
	HTTPTimeout     time.Duration // per request timeout (default: 15s)
	CABundle        string        // optional extra PEM bundle
	PlayerLimit     int           // players fetched per team (default: 30)

	// Logging
	LogLevel  string // DEBUG, INFO, INFORM, HIGHLIGHT, WARN, ERROR
	LogOutput string // c, f or b
	LogFile   string

	// Markets
	PlayerShotLines []float64 // shots on target lines for players (default: 0.5, 1.5)
	SaveLines       []float64 // goalkeeper save lines (default: 0.5 .. 4.5)
	GoalLines       []float64 // H2H total goal lines (default: 0.5 .. 7.5)
	LineSpread      int       // lines either side of a generated centre (default: 2)
	CVHigh          float64   // coefficient of variation above which a series is High
	CVLow           float64   // coefficient of variation below which a series is Low

	// Concurrency
	Workers int // bounded parallelism for batch work (default: 8)
}

// DefaultConfig returns the default configuration with all standard values
func DefaultConfig() *Config {
	assets := ".samsbet"
	if home, err := os.UserHomeDir(); err == nil {
		assets = filepath.Join(home, ".samsbet")
	}
	return &Config{
		AssetsPath:  assets,
		DbPath:      filepath.Join(assets, "samsbet.db"),
		LeaguesFile: filepath.Join(assets, "leagues.yaml"),

		APIBaseURL:      "https://api.sofascore.com/api/v1",
		RequestInterval: 200 * time.Millisecond,
		RequestBurst:    1,
		HTTPTimeout:     15 * time.Second,
		PlayerLimit:     30,

		LogLevel:  "INFO",
		LogOutput: "c",
		LogFile:   logger.DefaultLogFile,

		PlayerShotLines: []float64{0.5, 1.5},
		SaveLines:       odds.HalfLines(4.5),
		GoalLines:       odds.HalfLines(7.5),
		LineSpread:      2,
		CVHigh:          odds.DefaultVariationThresholds.High,
		CVLow:           odds.DefaultVariationThresholds.Low,

		Workers: 8,
	}
}

// LoadConfig reads envFile (if present) into the environment and applies
// SAMSBET_* overrides on top of the defaults
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()
	cfg.AssetsPath = envStr("SAMSBET_ASSETS_PATH", cfg.AssetsPath)
	cfg.DbPath = envStr("SAMSBET_DB_PATH", filepath.Join(cfg.AssetsPath, "samsbet.db"))
	cfg.LeaguesFile = envStr("SAMSBET_LEAGUES_FILE", filepath.Join(cfg.AssetsPath, "leagues.yaml"))
	cfg.APIBaseURL = strings.TrimRight(envStr("SAMSBET_API_BASE_URL", cfg.APIBaseURL), "/")
	cfg.CABundle = envStr("SAMSBET_CA_BUNDLE", cfg.CABundle)
	cfg.LogLevel = envStr("SAMSBET_LOG_LEVEL", cfg.LogLevel)
	cfg.LogOutput = envStr("SAMSBET_LOG_OUTPUT", cfg.LogOutput)
	cfg.LogFile = envStr("SAMSBET_LOG_FILE", cfg.LogFile)

	var err error
	if cfg.RequestInterval, err = envDuration("SAMSBET_REQUEST_INTERVAL", cfg.RequestInterval); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = envDuration("SAMSBET_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.RequestBurst, err = envInt("SAMSBET_REQUEST_BURST", cfg.RequestBurst); err != nil {
		return nil, err
	}
	if cfg.PlayerLimit, err = envInt("SAMSBET_PLAYER_LIMIT", cfg.PlayerLimit); err != nil {
		return nil, err
	}
	if cfg.LineSpread, err = envInt("SAMSBET_LINE_SPREAD", cfg.LineSpread); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("SAMSBET_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.CVHigh, err = envFloat("SAMSBET_CV_HIGH", cfg.CVHigh); err != nil {
		return nil, err
	}
	if cfg.CVLow, err = envFloat("SAMSBET_CV_LOW", cfg.CVLow); err != nil {
		return nil, err
	}
	if cfg.PlayerShotLines, err = envFloats("SAMSBET_PLAYER_LINES", cfg.PlayerShotLines); err != nil {
		return nil, err
	}
	if cfg.SaveLines, err = envFloats("SAMSBET_SAVE_LINES", cfg.SaveLines); err != nil {
		return nil, err
	}
	if cfg.GoalLines, err = envFloats("SAMSBET_GOAL_LINES", cfg.GoalLines); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// VariationThresholds is the configured CV classifier cut points
func (c *Config) VariationThresholds() odds.VariationThresholds {
	return odds.VariationThresholds{High: c.CVHigh, Low: c.CVLow}
}

// H2HOptions is the head to head report setup for the configured goal
// lines, spread and thresholds
func (c *Config) H2HOptions() odds.H2HOptions {
	opts := odds.DefaultH2HOptions()
	opts.GoalLines = c.GoalLines
	opts.Spread = c.LineSpread
	opts.Thresholds = c.VariationThresholds()
	return opts
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *Config) error {
	if config.APIBaseURL == "" {
		return fmt.Errorf("APIBaseURL must be set")
	}
	if config.RequestInterval < 0 {
		return fmt.Errorf("RequestInterval must not be negative, got: %s", config.RequestInterval)
	}
	if config.RequestBurst < 1 {
		return fmt.Errorf("RequestBurst must be at least 1, got: %d", config.RequestBurst)
	}
	if config.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTPTimeout must be positive, got: %s", config.HTTPTimeout)
	}
	if config.PlayerLimit < 1 || config.PlayerLimit > 100 {
		return fmt.Errorf("PlayerLimit must be between 1 and 100, got: %d", config.PlayerLimit)
	}
	if config.LineSpread < 0 || config.LineSpread > 10 {
		return fmt.Errorf("LineSpread must be between 0 and 10, got: %d", config.LineSpread)
	}
	if config.Workers < 1 {
		return fmt.Errorf("Workers must be at least 1, got: %d", config.Workers)
	}
	if config.CVLow < 0 || config.CVHigh <= config.CVLow {
		return fmt.Errorf("CV thresholds must satisfy 0 <= low < high, got: low=%f high=%f", config.CVLow, config.CVHigh)
	}
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return err
	}
	if len(config.LogOutput) != 1 || !strings.Contains("cfb", config.LogOutput) {
		return fmt.Errorf("LogOutput must be one of c, f, b, got: %q", config.LogOutput)
	}
	for name, lines := range map[string][]float64{
		"PlayerShotLines": config.PlayerShotLines,
		"SaveLines":       config.SaveLines,
		"GoalLines":       config.GoalLines,
	} {
		for _, l := range lines {
			if _, err := odds.ClassifyLine(l); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// envFloats parses a comma separated list such as "0.5,1.5,2.25"
func envFloats(key string, def []float64) ([]float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	var out []float64
	for _, part := range strings.Split(v, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, f)
	}
	return out, nil
}
