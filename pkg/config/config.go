package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "tradepost"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TRADEPOST_DB_DSN"
	EnvDBHost = "TRADEPOST_DB_HOST"
	EnvDBUser = "TRADEPOST_DB_USER"
	EnvDBName = "TRADEPOST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Validation    ValidationConfig
	IDGen         IDGenConfig
	Reconciler    ReconcilerConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADEPOST_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEPOST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEPOST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEPOST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEPOST_DB_DSN"`
	Driver string `envconfig:"TRADEPOST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEPOST_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEPOST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEPOST_DB_USER"`
	LegacyPassword string `envconfig:"TRADEPOST_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEPOST_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEPOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEPOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEPOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEPOST_REDIS_URL" required:"true"`
	Password     string        `envconfig:"TRADEPOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEPOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEPOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEPOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEPOST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEPOST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEPOST_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADEPOST_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADEPOST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADEPOST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADEPOST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADEPOST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADEPOST_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TRADEPOST_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// ValidationConfig carries the domain validation bounds shared by the
// services. Injected so nothing reaches for package-level globals.
type ValidationConfig struct {
	PhoneLength          int `envconfig:"TRADEPOST_PHONE_LENGTH" default:"10"`
	PasswordMinLength    int `envconfig:"TRADEPOST_PASSWORD_MIN_LENGTH" default:"8"`
	RejectReasonMinLen   int `envconfig:"TRADEPOST_REJECT_REASON_MIN_LENGTH" default:"10"`
	ProductDescMin       int `envconfig:"TRADEPOST_PRODUCT_DESC_MIN_LENGTH" default:"10"`
	ProductDescMax       int `envconfig:"TRADEPOST_PRODUCT_DESC_MAX_LENGTH" default:"1000"`
	ProductQtyMin        int `envconfig:"TRADEPOST_PRODUCT_QTY_MIN" default:"0"`
	ProductQtyMax        int `envconfig:"TRADEPOST_PRODUCT_QTY_MAX" default:"99999"`
	ListPageSizeDefault  int `envconfig:"TRADEPOST_LIST_PAGE_SIZE_DEFAULT" default:"25"`
	ListPageSizeMax      int `envconfig:"TRADEPOST_LIST_PAGE_SIZE_MAX" default:"100"`
	StoreNameMaxLength   int `envconfig:"TRADEPOST_STORE_NAME_MAX_LENGTH" default:"120"`
	ProductNameMaxLength int `envconfig:"TRADEPOST_PRODUCT_NAME_MAX_LENGTH" default:"120"`
}

type IDGenConfig struct {
	NodeID int64 `envconfig:"TRADEPOST_IDGEN_NODE_ID" default:"1"`
}

type ReconcilerConfig struct {
	BatchSize      int `envconfig:"TRADEPOST_RECONCILER_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRADEPOST_RECONCILER_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRADEPOST_RECONCILER_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRADEPOST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRADEPOST_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
