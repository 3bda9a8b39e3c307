package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ReaderConfig) Validate() error {
	if c.Exchange.WSURL == "" {
		return errors.New("exchange.ws_url is required")
	}
	if c.Exchange.Symbol == "" {
		return errors.New("exchange.symbol is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Stream.BufferSize < 1 {
		return errors.New("stream.buffer_size must be >= 1")
	}
	if c.Stream.MaxReconnects < 1 {
		return errors.New("stream.max_reconnects must be >= 1")
	}

	if c.Supervisor.PollInterval <= 0 {
		return errors.New("supervisor.poll_interval must be > 0")
	}
	if c.Supervisor.Backoff <= 0 {
		return errors.New("supervisor.backoff must be > 0")
	}
	if c.Supervisor.Cooldown <= 0 {
		return errors.New("supervisor.cooldown must be > 0")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
