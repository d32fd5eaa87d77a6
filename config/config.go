package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Orders   OrdersConfig
	Kafka    KafkaConfig
	Uploads  UploadsConfig
	CORS     CORSConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port    string
	OpsPort string
}

type DatabaseConfig struct {
	Driver   string
	Postgres PostgresConfig
	Mongo    MongoConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MongoConfig struct {
	URI  string
	Name string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type OrdersConfig struct {
	StrictTransitions   bool
	ClearCartOnCheckout bool
}

type KafkaConfig struct {
	Brokers string
	Topic   string
}

type UploadsConfig struct {
	Dir string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.opsPort", "9000")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", "5432")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "local")
	v.SetDefault("database.postgres.name", "storefront")
	v.SetDefault("database.postgres.sslMode", "disable")
	v.SetDefault("database.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongo.name", "storefront")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("orders.strictTransitions", false)
	v.SetDefault("orders.clearCartOnCheckout", true)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "storefront.orders")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads .env (if present), then config.yaml (if present), then STOREFRONT_* variables.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("Load: no .env file loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    v.GetString("server.port"),
			OpsPort: v.GetString("server.opsPort"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Postgres: PostgresConfig{
				Host:     v.GetString("database.postgres.host"),
				Port:     v.GetString("database.postgres.port"),
				User:     v.GetString("database.postgres.user"),
				Password: v.GetString("database.postgres.password"),
				Name:     v.GetString("database.postgres.name"),
				SSLMode:  v.GetString("database.postgres.sslMode"),
			},
			Mongo: MongoConfig{
				URI:  v.GetString("database.mongo.uri"),
				Name: v.GetString("database.mongo.name"),
			},
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwtSecret"),
			TokenTTL:  v.GetDuration("auth.tokenTTL"),
		},
		Orders: OrdersConfig{
			StrictTransitions:   v.GetBool("orders.strictTransitions"),
			ClearCartOnCheckout: v.GetBool("orders.clearCartOnCheckout"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetString("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Uploads: UploadsConfig{Dir: v.GetString("uploads.dir")},
		CORS:    CORSConfig{AllowedOrigins: v.GetStringSlice("cors.allowedOrigins")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret must be set")
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func (c LogConfig) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	logger.SetLevel(level)
	if strings.EqualFold(c.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
