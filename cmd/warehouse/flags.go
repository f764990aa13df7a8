package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	Address            string        `env:"RUN_ADDRESS" envDefault:"localhost:3001"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection string        `env:"DATABASE_URI"`
	JWTSecret          string        `env:"JWT_SECRET"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"12h"`
	AdminUsername      string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword      string        `env:"ADMIN_PASSWORD"`
	AMQPURL            string        `env:"AMQP_URL"`
	AMQPExchange       string        `env:"AMQP_EXCHANGE" envDefault:"order_status"`
	KeepAliveURL       string        `env:"KEEPALIVE_URL"`
	KeepAliveInterval  time.Duration `env:"KEEPALIVE_INTERVAL" envDefault:"10m"`
	CORSOrigins        string        `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://localhost:5174,http://localhost:5175"`
	Timezone           string        `env:"TIMEZONE" envDefault:"UTC"`

	Location *time.Location `env:"-"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ENV JWT_SECRET must be set")
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string (empty for in-memory store)")
	jwtTTL := flag.Duration("t", cfg.JWTTTL, "TTL for JWT token(e.g. 12h; 30m )")
	amqpURL := flag.String("m", cfg.AMQPURL, "RabbitMQ URL for status events")
	keepAliveURL := flag.String("k", cfg.KeepAliveURL, "Base URL to ping for keep-alive")
	keepAliveInterval := flag.Duration("i", cfg.KeepAliveInterval, "Keep-alive ping interval")
	timezone := flag.String("z", cfg.Timezone, "Time zone that defines the working day")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.DatabaseConnection = *databaseConnection
	cfg.JWTTTL = *jwtTTL
	cfg.AMQPURL = *amqpURL
	cfg.KeepAliveURL = *keepAliveURL
	cfg.KeepAliveInterval = *keepAliveInterval
	cfg.Timezone = *timezone

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.KeepAliveURL != "" && cfg.KeepAliveInterval <= 0 {
		return nil, fmt.Errorf("keep-alive interval must be positive")
	}
	return cfg, nil
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
