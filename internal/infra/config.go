package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации портала.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	ML       MLConfig       `mapstructure:"ml"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig описывает настройки HTTP/gRPC серверов.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	GRPCPort     int           `mapstructure:"grpc_port"` // grpc.health.v1
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (сессии, кэш, Pub/Sub).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам, TTL токена и сессии.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"` // Бездействие, после которого сессия умирает
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	PublicKey      []byte
	PrivateKey     []byte
}

// MLConfig — внешний сервис скоринга и его предохранитель.
type MLConfig struct {
	BaseURL        string        `mapstructure:"base_url"` // Пусто — шаг модели отключен
	Mock           bool          `mapstructure:"mock"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker
	CBMaxRequests      int           `mapstructure:"cb_max_requests"`
	CBInterval         time.Duration `mapstructure:"cb_interval"`
	CBTimeout          time.Duration `mapstructure:"cb_timeout"`
	CBFailureThreshold int           `mapstructure:"cb_failure_threshold"`
}

// RiskConfig — окно истории и кэш сводки.
type RiskConfig struct {
	HistoryWindow int           `mapstructure:"history_window"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// AuditConfig — буфер журнала доступа к медданным.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig инициализирует конфигурацию: .env -> config.yaml -> ENV.
func LoadConfig() (*Config, error) {
	// .env опционален (локальная разработка)
	_ = godotenv.Load()

	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: SERVER_PORT=9000 -> server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключи: PEM прямо в ENV (Docker/K8s) или файл по пути
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("config: database.url (DATABASE_URL) is required")
	}
	if len(c.Auth.PrivateKey) == 0 || len(c.Auth.PublicKey) == 0 {
		return errors.New("config: auth RSA key pair is required")
	}
	if c.Auth.SessionTimeout <= 0 {
		return errors.New("config: auth.session_timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.grpc_port", 50052)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	// Пустые дефолты нужны, чтобы AutomaticEnv подхватил DATABASE_URL и пр. при Unmarshal
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.public_key_path", "configs/keys/public.pem")
	v.SetDefault("auth.private_key_path", "configs/keys/private.pem")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.session_timeout", 30*time.Minute)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.cookie_name", "ovcare_session")
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("ml.base_url", "http://127.0.0.1:5000")
	v.SetDefault("ml.mock", false)
	v.SetDefault("ml.connect_timeout", 3*time.Second)
	v.SetDefault("ml.timeout", 6*time.Second)
	v.SetDefault("ml.retry_attempts", 2)
	v.SetDefault("ml.rate_limit", 20)
	v.SetDefault("ml.rate_burst", 10)
	v.SetDefault("ml.cb_max_requests", 3)
	v.SetDefault("ml.cb_interval", 30*time.Second)
	v.SetDefault("ml.cb_timeout", 30*time.Second)
	v.SetDefault("ml.cb_failure_threshold", 5)
	v.SetDefault("risk.history_window", 10)
	v.SetDefault("risk.cache_ttl", 5*time.Minute)
	v.SetDefault("audit.buffer_size", 10000)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", 1*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

// loadKeyResource читает ключ из ENV (PEM целиком) или из файла
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
