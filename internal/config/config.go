package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Broker   BrokerConfig
	Watcher  WatcherConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
//
// БД хранит единственный durable артефакт системы: lease блокировки
// watcher'а (владелец + время захвата), переживающий рестарт процесса.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BrokerConfig - настройки подключения к терминальному мосту (Broker Gateway)
type BrokerConfig struct {
	// BridgeURL - базовый URL REST моста к торговому терминалу
	BridgeURL string

	// CallTimeout - таймаут одного вызова моста; ни одна операция
	// watcher'а не ждёт брокера дольше этого
	CallTimeout time.Duration

	// Retry для вызовов моста
	MaxRetries   int
	RetryBackoff time.Duration

	// RateLimit - максимум запросов к мосту в секунду (0 = без лимита)
	RateLimit float64

	// Magic - идентификатор стратегии, проставляемый на наши ордера;
	// watcher наблюдает только позиции с этим magic
	Magic int

	// OrderComment - комментарий ордера (второй фильтр "наших" позиций)
	OrderComment string
}

// WatcherConfig - настройки TP1 watcher'а
type WatcherConfig struct {
	// PollInterval - период опроса открытых позиций
	PollInterval time.Duration

	// LockStaleness - порог протухания lease; должен превышать
	// PollInterval с запасом в несколько интервалов, иначе живой-но-медленный
	// владелец потеряет lease по ложному reclaim
	LockStaleness time.Duration

	// Дефолты управления TP1
	TP1Pips      float64
	TP1Percent   float64
	BEBufferPips float64
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// AdminPasswordHash - bcrypt-хеш пароля для admin endpoint
	// (переключение backend execution флага). Пустой хеш = endpoint
	// доступен без auth (локальное развертывание).
	AdminPasswordHash string
	AdminUser         string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8000),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tradeplanner"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Broker: BrokerConfig{
			BridgeURL:    getEnv("MT5_BRIDGE_URL", "http://127.0.0.1:6542"),
			CallTimeout:  getEnvAsDuration("MT5_CALL_TIMEOUT", 5*time.Second),
			MaxRetries:   getEnvAsInt("MT5_MAX_RETRIES", 3),
			RetryBackoff: getEnvAsDuration("MT5_RETRY_BACKOFF", 200*time.Millisecond),
			RateLimit:    getEnvAsFloat("MT5_RATE_LIMIT", 20),
			Magic:        getEnvAsInt("MT5_MAGIC", 123456),
			OrderComment: getEnv("MT5_ORDER_COMMENT", "POI-Tracker"),
		},
		Watcher: WatcherConfig{
			PollInterval:  getEnvAsDuration("MT5_TP1_POLL_INTERVAL", 1*time.Second),
			LockStaleness: getEnvAsDuration("MT5_TP1_LOCK_STALENESS", 30*time.Second),
			TP1Pips:       getEnvAsFloat("MT5_TP1_PIPS_DEFAULT", 30.0),
			TP1Percent:    getEnvAsFloat("MT5_TP1_PERCENT_DEFAULT", 50.0),
			BEBufferPips:  getEnvAsFloat("MT5_TP1_BE_BUFFER_PIPS", 0.0),
		},
		Security: SecurityConfig{
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			AdminUser:         getEnv("ADMIN_USER", "admin"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация retry параметров
	if c.Broker.MaxRetries < 0 {
		return fmt.Errorf("MT5_MAX_RETRIES cannot be negative, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.MaxRetries > 10 {
		return fmt.Errorf("MT5_MAX_RETRIES should not exceed 10, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.CallTimeout <= 0 {
		return fmt.Errorf("MT5_CALL_TIMEOUT must be positive, got %v", c.Broker.CallTimeout)
	}

	if c.Broker.RateLimit < 0 {
		return fmt.Errorf("MT5_RATE_LIMIT cannot be negative, got %v", c.Broker.RateLimit)
	}

	if c.Watcher.PollInterval <= 0 {
		return fmt.Errorf("MT5_TP1_POLL_INTERVAL must be positive, got %v", c.Watcher.PollInterval)
	}

	// Протухание lease должно превышать интервал опроса минимум втрое,
	// иначе один долгий тик живого владельца приведет к ложному reclaim
	if c.Watcher.LockStaleness < 3*c.Watcher.PollInterval {
		return fmt.Errorf("MT5_TP1_LOCK_STALENESS (%v) must be at least 3x MT5_TP1_POLL_INTERVAL (%v)",
			c.Watcher.LockStaleness, c.Watcher.PollInterval)
	}

	if c.Watcher.TP1Percent <= 0 || c.Watcher.TP1Percent > 100 {
		return fmt.Errorf("MT5_TP1_PERCENT_DEFAULT must be in (0, 100], got %v", c.Watcher.TP1Percent)
	}

	if c.Watcher.TP1Pips < 0 {
		return fmt.Errorf("MT5_TP1_PIPS_DEFAULT cannot be negative, got %v", c.Watcher.TP1Pips)
	}

	if c.Watcher.BEBufferPips < 0 {
		return fmt.Errorf("MT5_TP1_BE_BUFFER_PIPS cannot be negative, got %v", c.Watcher.BEBufferPips)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
