// Package config предоставляет структуры и функции для загрузки конфигурации
// сервисов Billed из YAML-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек всех бинарников.
type Config struct {
	Env                     string `yaml:"env" env:"BILLED_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"BILLED_DSN"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	FilesDir                string `yaml:"files_dir" env:"BILLED_FILES_DIR" env-default:"./data/files"`
	PublicURL               string `yaml:"public_url" env:"BILLED_PUBLIC_URL" env-default:"http://localhost:8080"`
	AdminEmail              string `yaml:"admin_email" env:"BILLED_ADMIN_EMAIL"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	RateLimit               `yaml:"rate_limit"`
	Web                     `yaml:"web"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"BILLED_HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"BILLED_REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"BILLED_REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	BillsTTL     time.Duration `yaml:"bills_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"BILLED_JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки брокера событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"BILLED_RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для уведомлений.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"BILLED_SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"BILLED_SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"BILLED_SMTP_USER"`
	SMTPPass string `yaml:"password" env:"BILLED_SMTP_PASSWORD"`
}

// RateLimit ограничение запросов к открытым конечным точкам.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Web настройки веб-интерфейса.
type Web struct {
	StoreURL     string        `yaml:"store_url" env:"BILLED_STORE_URL"`
	StoreTimeout time.Duration `yaml:"store_timeout" env-default:"10s"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"12h"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает .env (если есть), затем YAML-файл из CONFIG_PATH с переопределениями из окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"FilesDir: %s\n"+
			"PublicURL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"Web:\n"+
			"  StoreURL: %s\n"+
			"  StoreTimeout: %s\n",
		c.Env,
		c.FilesDir,
		c.PublicURL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.RabbitMQURL != "",
		c.StoreURL,
		c.StoreTimeout,
	)
}
