package database

import (
	"fmt"
	"net/url"

	"github.com/salgozino/btcusdt/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	return buildConnString(cfg, cfg.Name)
}

// BuildMaintenanceConnString targets the server's maintenance database,
// used to create the configured database when it does not exist yet.
func BuildMaintenanceConnString(cfg config.DBConfig) string {
	return buildConnString(cfg, "postgres")
}

func buildConnString(cfg config.DBConfig, dbName string) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		dbName,
		sslMode,
	)
}
