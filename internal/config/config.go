package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

type Config struct {
	Primary   Primary                      `koanf:"primary"`
	Server    ServerConfig                 `koanf:"server"`
	Transport TransportConfig              `koanf:"transport"`
	Retry     RetryConfig                  `koanf:"retry"`
	Logger    LoggerConfig                 `koanf:"logger"`
	Accounts  []AccountConfig              `koanf:"accounts" validate:"dive"`
	Endpoints map[string]gateway.Endpoints `koanf:"endpoints" validate:"dive"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type TransportConfig struct {
	Timeout   time.Duration `koanf:"timeout" validate:"required"`
	UserAgent string        `koanf:"user_agent"`
}

// RetryConfig governs status and history inquiries only. Payment calls are never retried.
type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxJitter  time.Duration `koanf:"max_jitter"`
	MaxRetries int           `koanf:"max_retries" validate:"gte=0"`
}

// AccountConfig is one merchant account. Secrets normally arrive through the environment
// or an uncommitted config file.
type AccountConfig struct {
	Bank           string `koanf:"bank" validate:"required"`
	ClientID       string `koanf:"client_id"`
	TerminalID     string `koanf:"terminal_id"`
	PosNetID       string `koanf:"posnet_id"`
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
	RefundUsername string `koanf:"refund_username"`
	RefundPassword string `koanf:"refund_password"`
	StoreKey       string `koanf:"store_key"`
	Model          string `koanf:"model" validate:"required,oneof=regular 3d 3d_pay 3d_host"`
	Lang           string `koanf:"lang" validate:"omitempty,oneof=tr en"`
	Environment    string `koanf:"environment" validate:"omitempty,oneof=test prod"`
}

func (a AccountConfig) Account() domain.Account {
	return domain.Account{
		Bank:           a.Bank,
		ClientID:       a.ClientID,
		TerminalID:     a.TerminalID,
		PosNetID:       a.PosNetID,
		Username:       a.Username,
		Password:       a.Password,
		RefundUsername: a.RefundUsername,
		RefundPassword: a.RefundPassword,
		StoreKey:       a.StoreKey,
		Model:          domain.SecurityModel(a.Model),
		Lang:           a.Lang,
		Environment:    a.Environment,
	}
}

// DomainAccounts converts every configured account.
func (c *Config) DomainAccounts() []domain.Account {
	accounts := make([]domain.Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		accounts = append(accounts, a.Account())
	}
	return accounts
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":            "development",
		"server.port":            "8080",
		"server.read_timeout":    "15s",
		"server.write_timeout":   "30s",
		"server.idle_timeout":    "60s",
		"server.request_timeout": "45s",
		"transport.timeout":      "30s",
		"transport.user_agent":   "posgateway/1.0",
		"retry.base_delay":       "1s",
		"retry.max_jitter":       "1s",
		"retry.max_retries":      3,
		"logger.level":           "info",
		"logger.format":          "text",
	}
}

// LoadConfig layers built-in defaults, the optional YAML file at path and GATEWAY_*
// environment variables, in that order. GATEWAY_SERVER__PORT sets server.port.
func LoadConfig(path string) (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			return nil, err
		}
	}

	err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
