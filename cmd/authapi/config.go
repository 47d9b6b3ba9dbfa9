package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/authapi/internal/handlers/credentials"
	"github.com/nkiryanov/authapi/internal/logger"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 7 * 24 * time.Hour
	defaultTokenTransport = credentials.TransportHeader
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret keys to sign access and refresh tokens, must differ
	SecretKey        string
	RefreshSecretKey string

	// Token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// How tokens are passed to clients: "header" or "cookie"
	TokenTransport string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		AccessTTL:      defaultAccessTTL,
		RefreshTTL:     defaultRefreshTTL,
		TokenTransport: defaultTokenTransport,
		Environment:    defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":                   setString(&c.ListenAddr),
		"DATABASE_URI":                  setString(&c.DatabaseDSN),
		"JWT_SECRET_KEY":                setString(&c.SecretKey),
		"JWT_SECRET_EXPIRATION":         setDuration(&c.AccessTTL),
		"JWT_REFRESH_SECRET_KEY":        setString(&c.RefreshSecretKey),
		"JWT_REFRESH_SECRET_EXPIRATION": setDuration(&c.RefreshTTL),
		"TOKEN_TRANSPORT":               setString(&c.TokenTransport),
		"LOG_LEVEL":                     setString(&c.LogLevel),
		"ENVIRONMENT":                   setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("authapi", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key to sign access tokens")
	fs.DurationVar(&c.AccessTTL, "secret-expiration", c.AccessTTL, "Access token lifetime")
	fs.StringVarP(&c.RefreshSecretKey, "refresh-secret-key", "r", c.RefreshSecretKey, "Secret key to sign refresh tokens")
	fs.DurationVar(&c.RefreshTTL, "refresh-secret-expiration", c.RefreshTTL, "Refresh token lifetime")
	fs.StringVarP(&c.TokenTransport, "token-transport", "t", c.TokenTransport, "Token transport (header, cookie)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks options that have no sensible default
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.RefreshSecretKey == "" {
		errs = append(errs, errors.New("refresh secret key is required"))
	}
	if c.TokenTransport != credentials.TransportHeader && c.TokenTransport != credentials.TransportCookie {
		errs = append(errs, fmt.Errorf("token transport must be %q or %q", credentials.TransportHeader, credentials.TransportCookie))
	}

	return errors.Join(errs...)
}
