package config

import "time"

// ReaderConfig is the root configuration for a trade reader instance.
type ReaderConfig struct {
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Database   DBConfig         `yaml:"database"`
	Stream     StreamConfig     `yaml:"stream"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Health     HealthConfig     `yaml:"health"`
	Log        LogConfig        `yaml:"log"`
}

// ExchangeConfig holds venue connection settings.
type ExchangeConfig struct {
	WSURL     string `yaml:"ws_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Symbol    string `yaml:"symbol"` // Venue ticker to subscribe (e.g., BTCUSDT)
}

// DBConfig holds the relational store connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StreamConfig holds websocket transport settings.
type StreamConfig struct {
	BufferSize   int           `yaml:"buffer_size"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Internal transport reconnects before the terminal error frame
	// is delivered to the consumer.
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectBaseWait time.Duration `yaml:"reconnect_base_wait"`
	ReconnectMaxWait  time.Duration `yaml:"reconnect_max_wait"`
}

// SupervisorConfig holds the ingestion supervisor timings.
type SupervisorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"` // Liveness check cadence
	RestartWait  time.Duration `yaml:"restart_wait"`  // Wait after restart before re-checking
	Backoff      time.Duration `yaml:"backoff"`       // Sleep between failed restart attempts
	Cooldown     time.Duration `yaml:"cooldown"`      // Sleep before resubscribing after a terminal error
	ErrorDamp    time.Duration `yaml:"error_damp"`    // Sleep after a generic error frame
}

// ProxyConfig is passed through to the websocket dialer. Empty values
// explicitly disable any system-configured proxy.
type ProxyConfig struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
