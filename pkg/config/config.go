package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Clerk  ClerkConfig
	Portal PortalConfig
	Mobile MobileConfig
	Flags  FeatureFlagsConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"PORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PORTAL_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PORTAL_DB_DSN"`
	Driver string `envconfig:"PORTAL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PORTAL_DB_HOST"`
	Port     int    `envconfig:"PORTAL_DB_PORT" default:"5432"`
	User     string `envconfig:"PORTAL_DB_USER"`
	Password string `envconfig:"PORTAL_DB_PASSWORD"`
	Name     string `envconfig:"PORTAL_DB_NAME"`
	SSLMode  string `envconfig:"PORTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PORTAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PORTAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PORTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PORTAL_REDIS_URL"`
	Address      string        `envconfig:"PORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"PORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PORTAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PORTAL_JWT_ISSUER" default:"community-auth-service"`
	ExpirationMinutes      int    `envconfig:"PORTAL_JWT_EXPIRATION_MINUTES" default:"10080"`
	RefreshTokenTTLMinutes int    `envconfig:"PORTAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type ClerkConfig struct {
	PublishableKey string        `envconfig:"PORTAL_CLERK_PUBLISHABLE_KEY"`
	SecretKey      string        `envconfig:"PORTAL_CLERK_SECRET_KEY"`
	APIBaseURL     string        `envconfig:"PORTAL_CLERK_API_BASE_URL" default:"https://api.clerk.com/v1"`
	Timeout        time.Duration `envconfig:"PORTAL_CLERK_TIMEOUT" default:"10s"`
}

type PortalConfig struct {
	CommunityName string   `envconfig:"PORTAL_COMMUNITY_NAME" default:"Mar Vista"`
	AdminEmails   []string `envconfig:"PORTAL_ADMIN_EMAILS"`
	ServiceToken  string   `envconfig:"PORTAL_SERVICE_TOKEN"`
	CORSOrigins   []string `envconfig:"PORTAL_CORS_ORIGINS"`
}

// IsAdminEmail reports whether the email belongs to the bootstrap allowlist.
func (p PortalConfig) IsAdminEmail(email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return false
	}
	for _, candidate := range p.AdminEmails {
		if strings.ToLower(strings.TrimSpace(candidate)) == needle {
			return true
		}
	}
	return false
}

type MobileConfig struct {
	CallbackBaseURL string        `envconfig:"PORTAL_MOBILE_CALLBACK_BASE_URL"`
	AttemptTTL      time.Duration `envconfig:"PORTAL_MOBILE_ATTEMPT_TTL" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow   time.Duration `envconfig:"PORTAL_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit  int           `envconfig:"PORTAL_AUTH_RL_LOGIN_IP_LIMIT" default:"10"`
	MobileWindow  time.Duration `envconfig:"PORTAL_AUTH_RL_MOBILE_WINDOW" default:"1m"`
	MobileIPLimit int           `envconfig:"PORTAL_AUTH_RL_MOBILE_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PORTAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PORTAL_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
