package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"Asia/Taipei"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"health_guardian:health_guardian"`
		BasicClients       []ConfigBasicClient
	}

	GenAI struct {
		BaseURL        string `env:"GENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
		APIKey         string `env:"GENAI_API_KEY"`
		Model          string `env:"GENAI_MODEL" envDefault:"gpt-4o-mini"`
		TimeoutSeconds int    `env:"GENAI_TIMEOUT_SECONDS" envDefault:"30"`
	}

	SheetDB struct {
		URL            string `env:"SHEETDB_URL"`
		TimeoutSeconds int    `env:"SHEETDB_TIMEOUT_SECONDS" envDefault:"15"`
	}

	RabbitMQ struct {
		Enabled bool   `env:"RABBITMQ_ENABLED"`
		AmqpURI string `env:"RABBITMQ_URL"`

		QueueConfig struct {
			AppointmentsQueueName     string `env:"RABBITMQ_APPOINTMENTS_QUEUE" envDefault:"health-guardian.appointments.cache"`
			AppointmentsQueueBind     string `env:"RABBITMQ_APPOINTMENTS_BIND" envDefault:"sheets.health-guardian.appointments.*"`
			AppointmentsQueueExchange string `env:"RABBITMQ_APPOINTMENTS_EXCHANGE" envDefault:"amq.topic"`
		}
	}

	Cache struct {
		Enabled        bool `env:"CACHE_ENABLED"`
		Size           int  `env:"CACHE_SIZE" envDefault:"500"`
		ListTTLSeconds int  `env:"CACHE_LIST_TTL_SECONDS" envDefault:"300"`
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Приведение окружения к нижнему регистру для унификации
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))

	// Разбор пар логин:пароль для basic auth
	if cfg.Auth.BasicClients == nil {
		cfg.Auth.BasicClients = []ConfigBasicClient{}
	}
	clientPairs := strings.Split(cfg.Auth.BasicClientsString, ",")
	for _, pair := range clientPairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			cfg.Auth.BasicClients = append(cfg.Auth.BasicClients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}

	return cfg, nil
}

// Location возвращает таймзону приложения, при неизвестном имени - UTC.
// В ней работают парсер дат и вывод времени в логах.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) GenAITimeout() time.Duration {
	return time.Duration(c.GenAI.TimeoutSeconds) * time.Second
}

func (c *Config) SheetDBTimeout() time.Duration {
	return time.Duration(c.SheetDB.TimeoutSeconds) * time.Second
}

func (c *Config) CacheListTTL() time.Duration {
	return time.Duration(c.Cache.ListTTLSeconds) * time.Second
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}
