package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvironmentProduction = "production"

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var (
	ErrMissingAccessSecret  = errors.New("security.jwtaccesssecret is not configured")
	ErrMissingRefreshSecret = errors.New("security.jwtrefreshsecret is not configured")
	ErrSharedTokenSecret    = errors.New("security.jwtaccesssecret and security.jwtrefreshsecret must differ")
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint      string
	PublicURL     string
	AccessKey     string
	SecretKey     string
	BucketAvatars string
	UseSSL        bool
	Region        string
	MaxImageBytes int64
}

// Enabled reports whether profile image storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

type SecurityConfig struct {
	JWTAccessSecret   string
	JWTRefreshSecret  string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	ResetTokenTTL     time.Duration
	PasswordHasher    string
	BcryptCost        int
	MinPasswordLength int
}

type MailConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	ResetBaseURL string
	Timeout      time.Duration
}

type JobsConfig struct {
	ResetPurgeSchedule string
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Store            StoreConfig
	Mongo            MongoConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Mail             MailConfig
	Jobs             JobsConfig
	Logging          LoggingConfig
	AllowCORSOrigins []string
}

// IsProduction reports whether the service runs in production mode.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// ExposeResetToken reports whether forgot-password responses may echo the reset token.
func (c *AppConfig) ExposeResetToken() bool {
	return !c.IsProduction()
}

// Validate rejects configurations the service must not start with.
func (c *AppConfig) Validate() error {
	if c.Security.JWTAccessSecret == "" {
		return ErrMissingAccessSecret
	}
	if c.Security.JWTRefreshSecret == "" {
		return ErrMissingRefreshSecret
	}
	if c.Security.JWTAccessSecret == c.Security.JWTRefreshSecret {
		return ErrSharedTokenSecret
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for store driver %q", c.Store.Driver)
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for store driver %q", c.Store.Driver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Security.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		return fmt.Errorf("unknown password hasher %q", c.Security.PasswordHasher)
	}

	if c.Security.MinPasswordLength < 1 {
		return fmt.Errorf("security.minpasswordlength must be positive")
	}

	return nil
}

// Load reads config.yaml (when present) and USERAUTH_* environment variables.
func Load(configFile string) (*AppConfig, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix("USERAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", StoreMongo)

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "userauth")
	v.SetDefault("mongo.collection", "users")
	v.SetDefault("mongo.connecttimeout", "10s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketavatars", "userauth-avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maximagebytes", 5<<20)

	// AutomaticEnv only sees keys viper already knows about.
	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtrefreshsecret", "")
	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "168h") // 7 days
	v.SetDefault("security.resettokenttl", "1h")
	v.SetDefault("security.passwordhasher", HasherBcrypt)
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.minpasswordlength", 6)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.resetbaseurl", "http://localhost:3000/reset-password")
	v.SetDefault("mail.timeout", "15s")

	v.SetDefault("jobs.resetpurgeschedule", "0 0 * * * *")

	v.SetDefault("logging.level", "")
}
