package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Auth providers accepted by AUTH_PROVIDER
const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	EnablePermanentDelete bool `env:"ENABLE_PERMANENT_DELETE" envDefault:"true"`

	Database  Database
	Auth      Auth
	Notify    Notify    `envPrefix:"NOTIFY_"`
	Lifecycle Lifecycle `envPrefix:"LIFECYCLE_"`
	Social    Social
	Geo       Geo `envPrefix:"GEO_"`

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// Database contains connection parameters for PostgreSQL and MongoDB.
type Database struct {
	PostgresConnStr string        `env:"POSTGRES_CONN_STR"`
	MongoURI        string        `env:"MONGO_URI"`
	MongoDatabase   string        `env:"MONGO_DATABASE" envDefault:"socialmedia"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"10s"`
}

type Auth struct {
	Provider                string `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret               string `env:"JWT_SECRET" envDefault:"supersecretjwtkey"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH" envDefault:"./firebase_credentials.json"`
}

// Notify tunes the notification dispatcher.
type Notify struct {
	Concurrency     int           `env:"CONCURRENCY" envDefault:"10"`
	MaxBacklog      int           `env:"MAX_BACKLOG" envDefault:"0"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Lifecycle holds the scheduled maintenance jobs.
type Lifecycle struct {
	TimeZone              string        `env:"TZ" envDefault:"America/New_York"`
	CleanupSchedule       string        `env:"CLEANUP_SCHEDULE" envDefault:"0 0 * * *"`
	PurgeSchedule         string        `env:"PURGE_SCHEDULE" envDefault:"0 0 * * *"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"720h"`
	DeletionGrace         time.Duration `env:"DELETION_GRACE" envDefault:"720h"`
	PurgeUserTimeout      time.Duration `env:"PURGE_USER_TIMEOUT" envDefault:"30s"`
}

// Location resolves TimeZone.
func (l Lifecycle) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid LIFECYCLE_TZ %q: %w", l.TimeZone, err)
	}
	return loc, nil
}

type Social struct {
	FollowRateLimit       int           `env:"FOLLOW_RATE_LIMIT" envDefault:"50"`
	FollowRateWindow      time.Duration `env:"FOLLOW_RATE_WINDOW" envDefault:"1h"`
	ConflictRetries       int           `env:"STATE_CONFLICT_RETRIES" envDefault:"3"`
	SuggestExcludePrivate bool          `env:"SUGGEST_EXCLUDE_PRIVATE" envDefault:"false"`
}

// Geo configures the IP geolocation fallback used by suggestions.
type Geo struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	URL     string        `env:"URL" envDefault:"http://ip-api.com/json/"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"3s"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.EnvFileLoaded = loaded

	if cfg.Auth.Provider != AuthProviderJWT && cfg.Auth.Provider != AuthProviderFirebase {
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.Auth.Provider)
	}
	if cfg.Notify.Concurrency < 1 {
		return nil, fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", cfg.Notify.Concurrency)
	}
	if _, err := cfg.Lifecycle.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
