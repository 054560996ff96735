// internal/config/config.go
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DB        DBConfig
	Send      SendConfig
	Scheduler SchedulerConfig
	AMQP      AMQPConfig
}

type DBConfig struct {
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// SendConfig points at the external delivery gateway.
type SendConfig struct {
	URLBase   string        `envconfig:"SEND_URL_BASE" required:"true"`
	AuthToken string        `envconfig:"SEND_AUTH_TOKEN" required:"true"`
	Timeout   time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`
}

type SchedulerConfig struct {
	// PollInterval is how often a scheduled mailing checks whether its
	// window has opened. Short relative to mailing durations.
	PollInterval time.Duration `envconfig:"SCHEDULER_POLL_INTERVAL" default:"5s"`
	// Throttle is the minimum delay between two delivery attempts within
	// one mailing.
	Throttle time.Duration `envconfig:"DISPATCH_THROTTLE" default:"500ms"`
}

// AMQPConfig is optional; an empty URL disables the delivery event stream.
type AMQPConfig struct {
	URL   string `envconfig:"AMQP_URL"`
	Queue string `envconfig:"AMQP_QUEUE" default:"delivery_events"`
}

func Load() (*Config, error) {
	// A missing .env file is fine, the OS environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
