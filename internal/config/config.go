package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Redis    Redis    `envPrefix:"REDIS_"`
	Postgres Postgres `envPrefix:"DB_"`
	Booking  Booking
	Mail     Mail
	Worker   Worker
}

type Redis struct {
	Addr          string `env:"ADDR"           envDefault:"localhost:6379"`
	Password      string `env:"PASSWORD"       envDefault:""`
	DB            int    `env:"DB"             envDefault:"0"`
	StreamKey     string `env:"STREAM_KEY"     envDefault:"ticketq:purchases"`
	Group         string `env:"GROUP"          envDefault:"ticketq-workers"`
	ScheduledZSet string `env:"SCHEDULED_ZSET" envDefault:"ticketq:scheduled"`
	DLQStreamKey  string `env:"DLQ_STREAM_KEY" envDefault:"ticketq:purchases:dlq"`
}

type Postgres struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"ticketq"`
	Password string `env:"PASSWORD" envDefault:"ticketq"`
	Name     string `env:"NAME"     envDefault:"ticketq"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

// DSN builds the postgres connection string for the pgx stdlib driver.
func (p Postgres) DSN() string {
	hostPort := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		p.User, p.Password, hostPort, p.Name, p.SSLMode)
}

type Booking struct {
	BaseURL string        `env:"TICKET_BOOKING_API_URL" envDefault:"http://localhost:3001"`
	Timeout time.Duration `env:"BOOKING_TIMEOUT"        envDefault:"30s"`
}

type Mail struct {
	// From enables SES delivery when set; left empty the worker logs
	// confirmations instead of sending them.
	From string `env:"MAIL_FROM" envDefault:""`
}

type Worker struct {
	Concurrency int           `env:"WORKER_CONCURRENCY"  envDefault:"4"`
	ClaimBlock  time.Duration `env:"WORKER_CLAIM_BLOCK"  envDefault:"5s"`
}

func Load() *Config {
	var c Config
	if err := env.Parse(&c); err != nil {
		log.Fatal().Err(err).Msg("failed to parse config from environment")
	}
	c.Sanitize()
	return &c
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	if c.Worker.Concurrency < 1 {
		c.Worker.Concurrency = 1
	}
	if c.Booking.Timeout <= 0 {
		c.Booking.Timeout = 30 * time.Second
	}
}
