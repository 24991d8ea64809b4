package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user/neaspec_go/internal/parser"
)

type Config struct {
	WorkerCount         int
	LogLevel            string
	SkipUnknownChannels bool
	RequireCompleteRuns bool
	PreviewRows         int
	PlotWidth           float64
	PlotHeight          float64
}

// Load reads an optional .env file from the working directory, then the
// NEASPEC_* environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return FromEnv()
}

// LoadFile is Load with an explicit .env path. A missing file is an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		WorkerCount:         getEnvInt("NEASPEC_WORKERS", runtime.NumCPU()),
		LogLevel:            getEnv("NEASPEC_LOG_LEVEL", "info"),
		SkipUnknownChannels: getEnvBool("NEASPEC_SKIP_UNKNOWN_CHANNELS", false),
		RequireCompleteRuns: getEnvBool("NEASPEC_REQUIRE_COMPLETE", false),
		PreviewRows:         getEnvInt("NEASPEC_PREVIEW_ROWS", 6),
		PlotWidth:           getEnvFloat("NEASPEC_PLOT_WIDTH", 800),
		PlotHeight:          getEnvFloat("NEASPEC_PLOT_HEIGHT", 400),
	}
}

// ReadOptions maps the parser switches onto parser.Options.
func (c *Config) ReadOptions() parser.Options {
	return parser.Options{
		SkipUnknownChannels: c.SkipUnknownChannels,
		RequireCompleteRuns: c.RequireCompleteRuns,
	}
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid number, using default")
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean, using default")
		return fallback
	}
	return b
}
