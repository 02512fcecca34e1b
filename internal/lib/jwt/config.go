package jwt

import "time"

const DefaultTokenTTL = time.Minute * 20

// Config is read once at startup and never mutated afterwards. It is loaded
// as the JWT section of the process config (JWT_SECRET_KEY, JWT_TOKEN_TTL).
type Config struct {
	SecretKey string
	TokenTTL  time.Duration `envconfig:"optional"`
}

func (c *Config) SetDefault() *Config {
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}

	return c
}
