package config

import (
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

var Config = AnonboardConfig{
	Env:      Environment(envOr("ANONBOARD_ENV", string(Dev))),
	Addr:     envOr("ANONBOARD_ADDR", "localhost:9001"),
	BaseUrl:  envOr("ANONBOARD_BASE_URL", "http://localhost:9001"),
	LogLevel: zerolog.DebugLevel,
	Postgres: PostgresConfig{
		User:     envOr("ANONBOARD_PG_USER", "anonboard"),
		Password: envOr("ANONBOARD_PG_PASSWORD", "password"),
		Hostname: envOr("ANONBOARD_PG_HOST", "localhost"),
		Port:     envIntOr("ANONBOARD_PG_PORT", 5432),
		DbName:   envOr("ANONBOARD_PG_DBNAME", "anonboard"),
		LogLevel: tracelog.LogLevelWarn,
		MinConn:  2,
		MaxConn:  8,
	},
	Auth: AuthConfig{
		CookieDomain: envOr("ANONBOARD_COOKIE_DOMAIN", "localhost"),
		CookieSecure: false,
	},
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envIntOr(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
