package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	databaseSQLite   = "sqlite"
	databasePostgres = "postgres"
	databaseMemory   = "memory"
)

type Config struct {
	Server          string
	Database        string
	Dsn             string
	Migrate         bool
	Cache           bool
	MockUserID      int64
	PostBlockExpire time.Duration
	Translations    string
	Language        string
	PublicURL       string
	Title           string
	Description     string
	AllowOrigin     string
	AMQPURL         string
	AMQPExchange    string
	IntegrityCheck  string
	LogLevel        string
}

func NewConfig() *Config {
	return &Config{
		Server:          ":8080",
		Database:        databaseSQLite,
		Dsn:             "./eightd.sqlite?_pragma=foreign_keys(1)",
		Migrate:         true,
		Cache:           false,
		MockUserID:      1,
		PostBlockExpire: 2 * time.Second,
		Translations:    "./translations",
		Language:        "en",
		PublicURL:       "http://localhost:3000",
		Title:           "8D problem solving",
		Description:     "Problems and their root causes",
		AllowOrigin:     "*",
		AMQPExchange:    "eightd",
		IntegrityCheck:  "@every 1h",
		LogLevel:        "info",
	}
}

// Flags exposes every setting as a flag with an EIGHTD_* env var fallback.
// Defaults come from c.
func (c *Config) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "server", Value: c.Server, Usage: "HTTP listen address", Sources: cli.EnvVars("EIGHTD_SERVER")},
		&cli.StringFlag{Name: "database", Value: c.Database, Usage: "sqlite, postgres or memory", Sources: cli.EnvVars("EIGHTD_DATABASE")},
		&cli.StringFlag{Name: "dsn", Value: c.Dsn, Usage: "database connection string", Sources: cli.EnvVars("EIGHTD_DSN")},
		&cli.BoolFlag{Name: "migrate", Value: c.Migrate, Usage: "apply migrations on start", Sources: cli.EnvVars("EIGHTD_MIGRATE")},
		&cli.BoolFlag{Name: "cache", Value: c.Cache, Usage: "cache problems and trees in memory", Sources: cli.EnvVars("EIGHTD_CACHE")},
		&cli.StringFlag{Name: "mock-user", Value: strconv.FormatInt(c.MockUserID, 10), Usage: "user id when X-Mock-User-Id is missing", Sources: cli.EnvVars("EIGHTD_MOCK_USER")},
		&cli.StringFlag{Name: "post-block-expire", Value: c.PostBlockExpire.String(), Usage: "minimum time between posts from one address", Sources: cli.EnvVars("EIGHTD_POST_BLOCK_EXPIRE")},
		&cli.StringFlag{Name: "translations", Value: c.Translations, Usage: "directory with <lang>.json files", Sources: cli.EnvVars("EIGHTD_TRANSLATIONS")},
		&cli.StringFlag{Name: "language", Value: c.Language, Usage: "fallback language", Sources: cli.EnvVars("EIGHTD_LANGUAGE")},
		&cli.StringFlag{Name: "public-url", Value: c.PublicURL, Usage: "base URL of the web UI", Sources: cli.EnvVars("EIGHTD_PUBLIC_URL")},
		&cli.StringFlag{Name: "title", Value: c.Title, Usage: "feed title", Sources: cli.EnvVars("EIGHTD_TITLE")},
		&cli.StringFlag{Name: "description", Value: c.Description, Usage: "feed description", Sources: cli.EnvVars("EIGHTD_DESCRIPTION")},
		&cli.StringFlag{Name: "allow-origin", Value: c.AllowOrigin, Usage: "CORS origin, empty disables CORS", Sources: cli.EnvVars("EIGHTD_ALLOW_ORIGIN")},
		&cli.StringFlag{Name: "amqp-url", Value: c.AMQPURL, Usage: "RabbitMQ URL, empty disables events", Sources: cli.EnvVars("EIGHTD_AMQP_URL")},
		&cli.StringFlag{Name: "amqp-exchange", Value: c.AMQPExchange, Usage: "topic exchange for events", Sources: cli.EnvVars("EIGHTD_AMQP_EXCHANGE")},
		&cli.StringFlag{Name: "integrity-check", Value: c.IntegrityCheck, Usage: "cron schedule of the tree integrity sweep, empty disables it", Sources: cli.EnvVars("EIGHTD_INTEGRITY_CHECK")},
		&cli.StringFlag{Name: "log-level", Value: c.LogLevel, Usage: "zerolog level", Sources: cli.EnvVars("EIGHTD_LOG_LEVEL")},
	}
}

// Load reads the flag values of cmd into c.
func (c *Config) Load(cmd *cli.Command) error {
	c.Server = cmd.String("server")
	c.Database = cmd.String("database")
	c.Dsn = cmd.String("dsn")
	c.Migrate = cmd.Bool("migrate")
	c.Cache = cmd.Bool("cache")
	c.Translations = cmd.String("translations")
	c.Language = cmd.String("language")
	c.PublicURL = cmd.String("public-url")
	c.Title = cmd.String("title")
	c.Description = cmd.String("description")
	c.AllowOrigin = cmd.String("allow-origin")
	c.AMQPURL = cmd.String("amqp-url")
	c.AMQPExchange = cmd.String("amqp-exchange")
	c.IntegrityCheck = cmd.String("integrity-check")
	c.LogLevel = cmd.String("log-level")

	var err error
	if c.MockUserID, err = strconv.ParseInt(cmd.String("mock-user"), 10, 64); err != nil {
		return fmt.Errorf("mock-user: %w", err)
	}
	if c.PostBlockExpire, err = time.ParseDuration(cmd.String("post-block-expire")); err != nil {
		return fmt.Errorf("post-block-expire: %w", err)
	}
	return c.validate()
}

func (c *Config) validate() error {
	switch c.Database {
	case databaseSQLite, databasePostgres, databaseMemory:
	default:
		return fmt.Errorf("unknown database %q", c.Database)
	}
	if c.MockUserID < 1 {
		return fmt.Errorf("mock-user must be positive, got %d", c.MockUserID)
	}
	if c.PostBlockExpire < 0 {
		return fmt.Errorf("post-block-expire must not be negative")
	}
	return nil
}
