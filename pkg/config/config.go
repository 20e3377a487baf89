package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "SHOPCART_APP_ENV"
	EnvPort         = "SHOPCART_APP_PORT"
	EnvMongoURI     = "SHOPCART_MONGO_URI"
	EnvMongoDB      = "SHOPCART_MONGO_DATABASE"
	EnvDBDSN        = "SHOPCART_DB_DSN"
	EnvDBDriver     = "SHOPCART_DB_DRIVER"
	EnvRedisURL     = "SHOPCART_REDIS_URL"
	EnvJWTSecret    = "SHOPCART_JWT_SECRET"
	EnvJWTIssuer    = "SHOPCART_JWT_ISSUER"
	EnvJWTExpMins   = "SHOPCART_JWT_EXPIRATION_MINUTES"
	EnvCartLockTTL  = "SHOPCART_CART_LOCK_TTL"
	EnvCartLockWait = "SHOPCART_CART_LOCK_WAIT"
)

type Config struct {
	App           AppConfig
	Mongo         MongoConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Cart          CartConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load reads the process environment. Missing required values (the JWT secret
// among them) are returned as errors so the caller can refuse to start.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("%s must not be blank", EnvJWTSecret)
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	switch strings.ToLower(c.DB.Driver) {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite)
	}
	if c.Cart.LockTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartLockTTL)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCART_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"SHOPCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type MongoConfig struct {
	URI            string        `envconfig:"SHOPCART_MONGO_URI" required:"true"`
	Database       string        `envconfig:"SHOPCART_MONGO_DATABASE" default:"shopcart"`
	ConnectTimeout time.Duration `envconfig:"SHOPCART_MONGO_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"SHOPCART_MONGO_MAX_POOL_SIZE" default:"50"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCART_DB_DSN" required:"true"`
	Driver string `envconfig:"SHOPCART_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"SHOPCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the user store runs on the embedded driver.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, DBDriverSQLite)
}

// RedisConfig is optional. Without a URL or address the API coordinates cart
// writes in-process and skips auth rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPCART_REDIS_URL"`
	Address      string        `envconfig:"SHOPCART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPCART_JWT_ISSUER"`
	ExpirationMinutes int    `envconfig:"SHOPCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPCART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPCART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPCART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPCART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPCART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CartConfig struct {
	LockTTL  time.Duration `envconfig:"SHOPCART_CART_LOCK_TTL" default:"10s"`
	LockWait time.Duration `envconfig:"SHOPCART_CART_LOCK_WAIT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPCART_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCART_AUTO_MIGRATE" default:"false"`
}
