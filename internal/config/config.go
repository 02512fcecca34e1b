package config

import (
	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/pkg/log"
	"github.com/Heidric/storefront/pkg/pgx"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vrischmann/envconfig"
)

const defaultServerAddress = ":8000"

type Config struct {
	Logger        *log.Config
	DB            *pgx.Config
	JWT           *jwt.Config
	ServerAddress string `envconfig:"optional"`
}

// NewConfig reads the process environment, after loading a .env file from
// the working directory when one exists.
func NewConfig() (*Config, error) {
	c := &Config{
		Logger: &log.Config{},
		DB:     &pgx.Config{},
		JWT:    &jwt.Config{},
	}

	_ = godotenv.Load()

	if err := envconfig.Init(c); err != nil {
		return nil, errors.Wrap(err, "init config")
	}

	return c.SetDefault(), nil
}

func (c *Config) SetDefault() *Config {
	c.DB.SetDefault()
	c.Logger.SetDefault()
	c.JWT.SetDefault()

	if c.ServerAddress == "" {
		c.ServerAddress = defaultServerAddress
	}

	return c
}
