package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Receipt      ReceiptConfig
	Printer      PrinterConfig
	Events       EventsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Printer.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WARUNG_APP_ENV" required:"true"`
	Port         string `envconfig:"WARUNG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WARUNG_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WARUNG_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"WARUNG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig covers the browser-facing surface of the API.
type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"WARUNG_CORS_ORIGINS" default:"http://localhost:3000"`
	PrintRateLimit  int           `envconfig:"WARUNG_PRINT_RATE_LIMIT" default:"30"`
	PrintRateWindow time.Duration `envconfig:"WARUNG_PRINT_RATE_WINDOW" default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"WARUNG_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN        string `envconfig:"WARUNG_DB_DSN"`
	SQLitePath string `envconfig:"WARUNG_DB_SQLITE_PATH" default:"warung.db"`

	LegacyHost     string `envconfig:"WARUNG_DB_HOST"`
	LegacyPort     int    `envconfig:"WARUNG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WARUNG_DB_USER"`
	LegacyPassword string `envconfig:"WARUNG_DB_PASSWORD"`
	LegacyName     string `envconfig:"WARUNG_DB_NAME"`
	LegacySSLMode  string `envconfig:"WARUNG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WARUNG_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"WARUNG_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"WARUNG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WARUNG_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements at warn once they take longer than this.
	SlowQuery time.Duration `envconfig:"WARUNG_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WARUNG_REDIS_URL"`
	Address      string        `envconfig:"WARUNG_REDIS_ADDR"`
	Password     string        `envconfig:"WARUNG_REDIS_PASSWORD"`
	DB           int           `envconfig:"WARUNG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WARUNG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WARUNG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WARUNG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WARUNG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WARUNG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig describes the tokens minted by the external identity service.
type JWTConfig struct {
	Secret string `envconfig:"WARUNG_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"WARUNG_JWT_ISSUER" required:"true"`
	// Audience is checked when set; tokens for other apps are refused.
	Audience string `envconfig:"WARUNG_JWT_AUDIENCE"`
	// Leeway absorbs clock drift between the till and the identity service.
	Leeway time.Duration `envconfig:"WARUNG_JWT_LEEWAY" default:"30s"`
	// ExpirationMinutes only applies to tokens minted locally for dev and tests.
	ExpirationMinutes int `envconfig:"WARUNG_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WARUNG_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WARUNG_AUTO_MIGRATE" default:"false"`
	AutoPrint   bool `envconfig:"WARUNG_AUTO_PRINT" default:"true"`
}

type ReceiptConfig struct {
	StoreName string `envconfig:"WARUNG_RECEIPT_STORE_NAME" default:"WARUNG SALSABILA"`
	Subtitle  string `envconfig:"WARUNG_RECEIPT_SUBTITLE" default:"Mobile Cloud POS"`
	Width     int    `envconfig:"WARUNG_RECEIPT_WIDTH" default:"32"`
	Timezone  string `envconfig:"WARUNG_RECEIPT_TIMEZONE" default:"Asia/Jakarta"`
}

// Location resolves the configured timezone, falling back to UTC+7.
func (r ReceiptConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(r.Timezone)); err == nil {
		return loc
	}
	return time.FixedZone("WIB", 7*60*60)
}

type PrinterConfig struct {
	Type       string        `envconfig:"WARUNG_PRINTER_TYPE" default:"rawbt"`
	Address    string        `envconfig:"WARUNG_PRINTER_ADDRESS"`
	DevicePath string        `envconfig:"WARUNG_PRINTER_DEVICE_PATH"`
	Timeout    time.Duration `envconfig:"WARUNG_PRINTER_TIMEOUT" default:"5s"`
}

// Kind returns the normalized printer type.
func (p PrinterConfig) Kind() string {
	kind := strings.ToLower(strings.TrimSpace(p.Type))
	if kind == "" {
		return PrinterTypeNone
	}
	return kind
}

func (p PrinterConfig) validate() error {
	switch p.Kind() {
	case PrinterTypeRawBT, PrinterTypeNone:
		return nil
	case PrinterTypeNetwork:
		if strings.TrimSpace(p.Address) == "" {
			return fmt.Errorf("%s is required for network printers", EnvPrinterAddress)
		}
		return nil
	case PrinterTypeUSB:
		if strings.TrimSpace(p.DevicePath) == "" {
			return fmt.Errorf("%s is required for usb printers", EnvPrinterDevicePath)
		}
		return nil
	default:
		return fmt.Errorf("unknown printer type %q", p.Type)
	}
}

type EventsConfig struct {
	Channel string `envconfig:"WARUNG_EVENTS_CHANNEL" default:"events"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"WARUNG_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"WARUNG_PUBSUB_EVENTS_TOPIC"`
	// CreateTopic creates a missing events topic instead of failing startup.
	// Meant for the emulator and local projects.
	CreateTopic  bool          `envconfig:"WARUNG_PUBSUB_CREATE_TOPIC" default:"false"`
	PublishDelay time.Duration `envconfig:"WARUNG_PUBSUB_PUBLISH_DELAY" default:"10ms"`
}

// Enabled reports whether events should be mirrored to Pub/Sub.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(p.EventsTopic) != "" && strings.TrimSpace(gcp.ProjectID) != ""
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
