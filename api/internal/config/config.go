package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all dynamic configuration for the dashboard API.
type Config struct {
	Environment    string `validate:"required,oneof=development production"`
	Port           string `validate:"required,numeric"`
	AllowedOrigins []string
	LogLevel       string `validate:"oneof=debug info warn error"`

	// Snapshot persistence
	SnapshotBackend string `validate:"oneof=file sql redis memory"`
	SnapshotDir     string `validate:"required_if=SnapshotBackend file"`
	DatabaseURL     string `validate:"required_if=SnapshotBackend sql"`
	RedisAddr       string `validate:"required_if=SnapshotBackend redis"`
	RedisPassword   string
	RedisDB         int `validate:"gte=0"`
	SeedFile        string

	// Env var sealing. Empty disables it outside production.
	MasterKeyHex string `validate:"omitempty,hexadecimal,len=64"`

	// Advice service
	AdviceAPIKey        string
	AdviceModel         string `validate:"required"`
	AdviceBaseURL       string `validate:"required,url"`
	AdviceRatePerMinute int    `validate:"gte=1"`

	// Wizard
	HostingDomain  string        `validate:"required,fqdn"`
	ProvisionDelay time.Duration `validate:"gt=0"`
	ResetDelay     time.Duration `validate:"gte=0"`
}

// TransferConfig configures the drive-push command. It is loaded on its own
// so the CLI does not need the server's production secrets.
type TransferConfig struct {
	DriveBaseURL   string `validate:"required,url"`
	DriveUploadURL string `validate:"required,url"`
	Token          string
	// Concurrency caps parallel uploads; 0 issues them all at once.
	Concurrency int `validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load parses the environment and applies development fallbacks.
func Load() *Config {
	env := getEnv("REACTHOST_ENV", "production")

	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if corsOrigins == "" {
		if env == "production" {
			log.Fatal("🚨 [FATAL] CORS_ALLOWED_ORIGINS environment variable is required in production.")
		}
		corsOrigins = "http://localhost:5173"
	}

	// The settings page promises encrypted secrets; production must keep that promise.
	masterKey := getEnv("ENCRYPTION_KEY", "")
	if masterKey == "" && env == "production" {
		log.Fatal("🚨 [FATAL] ENCRYPTION_KEY environment variable is required in production.")
	}

	cfg := &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(corsOrigins),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),

		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "file"),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", DefaultDataDir()),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		SeedFile:        getEnv("SEED_FILE", ""),

		MasterKeyHex: masterKey,

		AdviceAPIKey:        getEnv("GEMINI_API_KEY", ""),
		AdviceModel:         getEnv("ADVICE_MODEL", "gemini-3-pro-preview"),
		AdviceBaseURL:       getEnv("ADVICE_BASE_URL", "https://generativelanguage.googleapis.com"),
		AdviceRatePerMinute: getInt("ADVICE_RATE_PER_MINUTE", 20),

		HostingDomain:  getEnv("HOSTING_DOMAIN", "reacthost.ai"),
		ProvisionDelay: getDuration("PROVISION_DELAY", 2*time.Second),
		ResetDelay:     getDuration("RESET_DELAY", time.Second),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("🚨 [FATAL] invalid configuration: %v", err)
	}
	return cfg
}

// LoadTransfer reads the transfer service settings.
func LoadTransfer() (*TransferConfig, error) {
	cfg := &TransferConfig{
		DriveBaseURL:   getEnv("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
		DriveUploadURL: getEnv("DRIVE_UPLOAD_URL", "https://www.googleapis.com/upload/drive/v3"),
		Token:          getEnv("DRIVE_TOKEN", ""),
		Concurrency:    getInt("DRIVE_CONCURRENCY", 0),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags above.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// DefaultDataDir is where the file backend keeps snapshots.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reacthost"
	}
	return filepath.Join(home, ".local", "share", "reacthost")
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
