package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Consent       ConsentConfig
	Email         EmailConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"CLIQSTR_APP_ENV" required:"true"`
	Port         string `envconfig:"CLIQSTR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLIQSTR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLIQSTR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CLIQSTR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CLIQSTR_DB_DSN"`
	Driver string `envconfig:"CLIQSTR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLIQSTR_DB_HOST"`
	LegacyPort     int    `envconfig:"CLIQSTR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLIQSTR_DB_USER"`
	LegacyPassword string `envconfig:"CLIQSTR_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLIQSTR_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLIQSTR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLIQSTR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLIQSTR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLIQSTR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLIQSTR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLIQSTR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLIQSTR_REDIS_ADDR"`
	Password     string        `envconfig:"CLIQSTR_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLIQSTR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLIQSTR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLIQSTR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLIQSTR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLIQSTR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLIQSTR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CLIQSTR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CLIQSTR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CLIQSTR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CLIQSTR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	MinLength        int `envconfig:"CLIQSTR_PASSWORD_MIN_LENGTH" default:"8"`
	ArgonMemoryKB    int `envconfig:"CLIQSTR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLIQSTR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLIQSTR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLIQSTR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLIQSTR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow      time.Duration `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit  int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit     int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ValidateWindow      time.Duration `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_VALIDATE_WINDOW" default:"1m"`
	ValidateIPLimit     int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_VALIDATE_IP_LIMIT" default:"30"`
	ValidateTokenLimit  int           `envconfig:"CLIQSTR_AUTH_RATE_LIMIT_VALIDATE_TOKEN_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLIQSTR_AUTO_MIGRATE" default:"false"`
}

// ConsentConfig carries the lifetimes of the consent workflow guard records.
type ConsentConfig struct {
	InviteTTL   time.Duration `envconfig:"CLIQSTR_CONSENT_INVITE_TTL" default:"168h"`
	ApprovalTTL time.Duration `envconfig:"CLIQSTR_CONSENT_APPROVAL_TTL" default:"72h"`
}

type EmailConfig struct {
	AWSRegion  string `envconfig:"CLIQSTR_EMAIL_AWS_REGION" default:"us-east-1"`
	FromEmail  string `envconfig:"CLIQSTR_EMAIL_FROM_EMAIL"`
	FromName   string `envconfig:"CLIQSTR_EMAIL_FROM_NAME" default:"Cliqstr"`
	AppBaseURL string `envconfig:"CLIQSTR_EMAIL_APP_BASE_URL" default:"http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLIQSTR_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CLIQSTR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLIQSTR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ConsentTopic             string `envconfig:"CLIQSTR_PUBSUB_CONSENT_TOPIC" default:"cq-consent-events"`
	NotificationTopic        string `envconfig:"CLIQSTR_PUBSUB_NOTIFICATION_TOPIC" default:"cq-notification-events"`
	NotificationSubscription string `envconfig:"CLIQSTR_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"cq-notification-email"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CLIQSTR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"CLIQSTR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"CLIQSTR_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int           `envconfig:"CLIQSTR_OUTBOX_RETENTION_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"CLIQSTR_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
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
