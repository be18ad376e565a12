package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	StorageDriver   string        `envconfig:"STORAGE_DRIVER"   default:"postgres"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	SQLitePath      string        `envconfig:"SQLITE_PATH"      default:"warehouse.db"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE"     default:"true"`
	BackendStrict   bool          `envconfig:"BACKEND_STRICT"   default:"false"`
	BackendTimeout  time.Duration `envconfig:"BACKEND_TIMEOUT"  default:"5s"`
	HTTPPort        string        `envconfig:"HTTP_PORT"        default:":8081"`
	GrpcPort        string        `envconfig:"GRPC_PORT"        default:":50051"`
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT"       default:"json"`
	ReceiptTimezone string        `envconfig:"RECEIPT_TIMEZONE" default:"UTC"`
	ServerTiming    bool          `envconfig:"SERVER_TIMING"    default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded: Driver=%s, HTTP Port=%s, GRPC Port=%s, LogLevel=%s",
		cfg.StorageDriver, cfg.HTTPPort, cfg.GrpcPort, cfg.LogLevel)
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("configuration error: SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("configuration error: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("configuration error: BACKEND_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.ReceiptTimezone); err != nil {
		return fmt.Errorf("configuration error: RECEIPT_TIMEZONE: %w", err)
	}
	return nil
}

// ReceiptLocation returns the zone receipts are stamped in.
func (c *Config) ReceiptLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReceiptTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, logLevel.String())
	}
	logger.SetLevel(logLevel)

	switch strings.ToLower(format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
