package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"loanlink/internal/core/domain"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	StoreDriver string
	SQLitePath  string
	Database    DatabaseConfig
	Auth        AuthConfig
	Roles       RoleConfig
	Redis       RedisConfig
	AMQP        AMQPConfig

	PendingDigestCron string
	OTelEndpoint      string
	AllowedOrigins    string
	SeedAdminEmail    string
	SeedCatalog       bool
}

// DatabaseConfig holds the mode-prefixed store settings (DEV_* or PROD_*)
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS"`
	DBName   string `envconfig:"DB_NAME" default:"loanlink"`
	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"loanlink"`
}

// AuthConfig holds identity verification settings
type AuthConfig struct {
	JWTSecret     string
	PublicKeyFile string
	Issuer        string
	Audience      string
	VerifyTimeout time.Duration
}

// RoleConfig holds the role set of each gated capability
type RoleConfig struct {
	SelfRegister []domain.Role
	Elevation    []domain.Role
	Decision     []domain.Role
	Catalog      []domain.Role
}

// RedisConfig holds catalog cache settings. Empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	DB       int
	CacheTTL time.Duration
}

// AMQPConfig holds lifecycle event settings. Empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// settings are the keys shared by every mode
type settings struct {
	AppMode     string `envconfig:"APP_MODE" default:"dev"`
	Port        string `envconfig:"PORT" default:"3000"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mysql"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"loanlink.db"`

	JWTSecret     string        `envconfig:"AUTH_JWT_SECRET"`
	PublicKeyFile string        `envconfig:"AUTH_JWT_PUBLIC_KEY_FILE"`
	Issuer        string        `envconfig:"AUTH_ISSUER"`
	Audience      string        `envconfig:"AUTH_AUDIENCE"`
	VerifyTimeout time.Duration `envconfig:"AUTH_VERIFY_TIMEOUT" default:"3s"`

	SelfRegisterRoles string `envconfig:"SELF_REGISTER_ROLES" default:"borrower"`
	ElevationRoles    string `envconfig:"ELEVATION_ROLES" default:"admin"`
	DecisionRoles     string `envconfig:"DECISION_ROLES" default:"manager,admin"`
	CatalogRoles      string `envconfig:"CATALOG_ROLES" default:"admin"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"loanlink.events"`

	PendingDigestCron string `envconfig:"PENDING_DIGEST_CRON" default:"30 8 * * *"`
	OTelEndpoint      string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins    string `envconfig:"ALLOWED_ORIGINS"`
	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL"`
	SeedCatalog       bool   `envconfig:"SEED_CATALOG" default:"false"`
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	var s settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg, err := build(s)
	if err != nil {
		return nil, err
	}

	// Store settings are prefixed by mode: DEV_DB_HOST, PROD_DB_HOST ...
	if err := envconfig.Process(strings.ToUpper(cfg.AppMode), &cfg.Database); err != nil {
		return nil, fmt.Errorf("invalid database environment: %w", err)
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = defaultPort(cfg.StoreDriver)
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s, STORE: %s]", cfg.AppMode, cfg.StoreDriver)
	return cfg, nil
}

// build validates raw settings and turns them into a Config
func build(s settings) (*Config, error) {
	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(s.AppMode)
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	driver := strings.ToLower(strings.TrimSpace(s.StoreDriver))
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: '%s'", s.StoreDriver)
	}

	if s.JWTSecret == "" && s.PublicKeyFile == "" {
		return nil, fmt.Errorf("one of AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY_FILE is required")
	}
	if s.VerifyTimeout <= 0 {
		return nil, fmt.Errorf("AUTH_VERIFY_TIMEOUT must be positive")
	}

	roles, err := parseRoleConfig(s)
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:     appMode,
		Port:        s.Port,
		StoreDriver: driver,
		SQLitePath:  s.SQLitePath,
		Auth: AuthConfig{
			JWTSecret:     s.JWTSecret,
			PublicKeyFile: s.PublicKeyFile,
			Issuer:        s.Issuer,
			Audience:      s.Audience,
			VerifyTimeout: s.VerifyTimeout,
		},
		Roles: roles,
		Redis: RedisConfig{
			Addr:     s.RedisAddr,
			DB:       s.RedisDB,
			CacheTTL: s.CatalogCacheTTL,
		},
		AMQP: AMQPConfig{
			URL:      s.AMQPURL,
			Exchange: s.AMQPExchange,
		},
		PendingDigestCron: strings.TrimSpace(s.PendingDigestCron),
		OTelEndpoint:      s.OTelEndpoint,
		AllowedOrigins:    s.AllowedOrigins,
		SeedAdminEmail:    domain.NormalizeEmail(s.SeedAdminEmail),
		SeedCatalog:       s.SeedCatalog,
	}, nil
}

// parseRoleConfig parses every role list. An empty list would lock the
// capability for everyone, so it is rejected.
func parseRoleConfig(s settings) (RoleConfig, error) {
	var rc RoleConfig
	lists := []struct {
		key string
		raw string
		dst *[]domain.Role
	}{
		{"SELF_REGISTER_ROLES", s.SelfRegisterRoles, &rc.SelfRegister},
		{"ELEVATION_ROLES", s.ElevationRoles, &rc.Elevation},
		{"DECISION_ROLES", s.DecisionRoles, &rc.Decision},
		{"CATALOG_ROLES", s.CatalogRoles, &rc.Catalog},
	}

	for _, l := range lists {
		roles, err := domain.ParseRoles(l.raw)
		if err != nil {
			return RoleConfig{}, fmt.Errorf("invalid %s: %w", l.key, err)
		}
		if len(roles) == 0 {
			return RoleConfig{}, fmt.Errorf("%s must name at least one role", l.key)
		}
		*l.dst = roles
	}
	return rc, nil
}

func defaultPort(driver string) string {
	if driver == DriverPostgres {
		return "5432"
	}
	return "3306"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return ""
	}
	return c.AllowedOrigins
}
