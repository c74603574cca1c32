package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustServe checks the variables the HTTP server cannot start without.
func (c Config) MustServe() {
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	MustNonEmpty(c.RedisURL, "REDIS_URL")
	MustNonEmptyBytes(c.AccessSecret(), "JWT_SECRET")
	MustNonEmptyBytes(c.RefreshSecret(), "JWT_REFRESH_SECRET")
}
