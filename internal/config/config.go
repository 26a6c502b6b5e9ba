package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	JWT      JWTConfig
	Order    OrderConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
	Expiry    time.Duration
}

type OrderConfig struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
	RetryBaseDelay   time.Duration
}

// RedisConfig is optional; an empty Addr disables the idempotency guard.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// Load reads defaults, then the YAML file at path (ignored when missing), then
// environment variables. Nested keys map to env names with "_", e.g.
// db.host -> DB_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "minierp")
	v.SetDefault("db.password", "secret")
	v.SetDefault("db.name", "minierp")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.issuer", "MiniERP")
	v.SetDefault("jwt.audience", "MiniERPUsers")
	v.SetDefault("jwt.expiry_minutes", 60)
	v.SetDefault("order.tx_timeout", "5s")
	v.SetDefault("order.max_retry_attempts", 3)
	v.SetDefault("order.retry_base_delay", "100ms")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl", "24h")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("db.conn_max_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	txTimeout, err := time.ParseDuration(v.GetString("order.tx_timeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing ORDER_TX_TIMEOUT: %w", err)
	}

	retryBaseDelay, err := time.ParseDuration(v.GetString("order.retry_base_delay"))
	if err != nil {
		return nil, fmt.Errorf("parsing ORDER_RETRY_BASE_DELAY: %w", err)
	}

	idempotencyTTL, err := time.ParseDuration(v.GetString("idempotency.ttl"))
	if err != nil {
		return nil, fmt.Errorf("parsing IDEMPOTENCY_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Name:            v.GetString("db.name"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			Issuer:    v.GetString("jwt.issuer"),
			Audience:  v.GetString("jwt.audience"),
			Expiry:    time.Duration(v.GetInt("jwt.expiry_minutes")) * time.Minute,
		},
		Order: OrderConfig{
			TxTimeout:        txTimeout,
			MaxRetryAttempts: v.GetInt("order.max_retry_attempts"),
			RetryBaseDelay:   retryBaseDelay,
		},
		Redis: RedisConfig{
			Addr:           v.GetString("redis.addr"),
			Password:       v.GetString("redis.password"),
			DB:             v.GetInt("redis.db"),
			IdempotencyTTL: idempotencyTTL,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	// HS256 key must be at least as long as the hash output.
	if len(c.JWT.SecretKey) < 32 {
		return errors.New("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.Order.MaxRetryAttempts < 1 {
		return errors.New("ORDER_MAX_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}
