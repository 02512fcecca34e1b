package log

import (
	"strings"

	"github.com/rs/zerolog"
)

const defaultLevel = "info"

// Config describes the process logger. Pretty switches from JSON lines to the
// zerolog console writer and is meant for local runs only.
type Config struct {
	Level  string `envconfig:"optional"`
	Pretty bool   `envconfig:"optional"`
}

func (c *Config) SetDefault() *Config {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = defaultLevel
	}

	return c
}

// ZerologLevel maps the configured level name onto zerolog, falling back to
// info for anything it does not recognise.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return lvl
}
