package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed posture.yaml
var defaultManifest []byte

// PostureManifest is the baseline a deployment is audited against.
type PostureManifest struct {
	Cryptography struct {
		EncryptionKeyHexLen int `yaml:"encryption_key_hex_len"`
	} `yaml:"cryptography"`
	Network struct {
		ForbidWildcardOrigin bool `yaml:"forbid_wildcard_origin"`
		RequireHTTPSOrigins  bool `yaml:"require_https_origins"`
	} `yaml:"network"`
	Storage struct {
		SnapshotDirMaxMode   string   `yaml:"snapshot_dir_max_mode"`
		ForbiddenCredentials []string `yaml:"forbidden_credentials"`
	} `yaml:"storage"`
	Advice struct {
		RequireAPIKey bool `yaml:"require_api_key"`
	} `yaml:"advice"`
}

type audit struct {
	failed bool
}

func (a *audit) pass(msg string) { fmt.Println("✅ PASS: " + msg) }

func (a *audit) fail(format string, args ...any) {
	fmt.Printf("❌ FAIL: "+format+"\n", args...)
	a.failed = true
}

func (a *audit) warn(format string, args ...any) {
	fmt.Printf("⚠️  WARN: "+format+"\n", args...)
}

func main() {
	manifestPath := flag.String("manifest", "", "path to a posture manifest (defaults to the embedded baseline)")
	flag.Parse()

	fmt.Println("🔍 ReactHost Console: Running Security Posture Audit...")

	// 1. Load the manifest
	data := defaultManifest
	if *manifestPath != "" {
		var err error
		data, err = os.ReadFile(*manifestPath)
		if err != nil {
			log.Fatalf("❌ CRITICAL: Could not read manifest: %v", err)
		}
	}
	var manifest PostureManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("❌ CRITICAL: Failed to parse posture manifest: %v", err)
	}

	// 2. Load the current environment
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  Warning: No .env file found, checking system env vars...")
	}

	a := &audit{}
	checkEncryptionKey(a, manifest)
	checkOrigins(a, manifest)
	checkBackend(a, manifest)
	checkAdvice(a, manifest)

	fmt.Println("---------------------------------------------------")
	if a.failed {
		fmt.Println("🚨 AUDIT FAILED: Fix the issues above before exposing the console.")
		os.Exit(1)
	}
	fmt.Println("🛡️  AUDIT PASSED: Configuration meets the posture baseline.")
}

// --- Audit Point 1: Encryption key entropy ---
func checkEncryptionKey(a *audit, m PostureManifest) {
	key := os.Getenv("ENCRYPTION_KEY")
	want := m.Cryptography.EncryptionKeyHexLen
	switch {
	case len(key) != want:
		a.fail("ENCRYPTION_KEY must be exactly %d hex characters (Current: %d)", want, len(key))
	case strings.Trim(strings.ToLower(key), "0123456789abcdef") != "":
		a.fail("ENCRYPTION_KEY contains non-hex characters")
	default:
		a.pass("Encryption key entropy meets 256-bit standards.")
	}
}

// --- Audit Point 2: Browser origins ---
func checkOrigins(a *audit, m PostureManifest) {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		a.fail("CORS_ALLOWED_ORIGINS is not set")
		return
	}
	ok := true
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if m.Network.ForbidWildcardOrigin && origin == "*" {
			a.fail("CORS_ALLOWED_ORIGINS must not contain a wildcard")
			ok = false
			continue
		}
		if m.Network.RequireHTTPSOrigins && !strings.HasPrefix(origin, "https://") {
			a.fail("origin %q is not served over https", origin)
			ok = false
		}
	}
	if ok {
		a.pass("Allowed origins are explicit.")
	}
}

// --- Audit Point 3: Snapshot backend ---
func checkBackend(a *audit, m PostureManifest) {
	backend := os.Getenv("SNAPSHOT_BACKEND")
	if backend == "" {
		backend = "file"
	}
	switch backend {
	case "file":
		dir := os.Getenv("SNAPSHOT_DIR")
		if dir == "" {
			a.warn("SNAPSHOT_DIR not set, the default data dir will be used")
			return
		}
		info, err := os.Stat(dir)
		if err != nil {
			a.warn("SNAPSHOT_DIR %s does not exist yet", dir)
			return
		}
		limit, err := strconv.ParseUint(m.Storage.SnapshotDirMaxMode, 8, 32)
		if err != nil {
			log.Fatalf("❌ CRITICAL: snapshot_dir_max_mode is not octal: %v", err)
		}
		if mode := info.Mode().Perm(); uint64(mode)&^limit != 0 {
			a.fail("SNAPSHOT_DIR mode %#o is broader than %#o", mode, limit)
			return
		}
		a.pass("Snapshot directory permissions are restricted.")
	case "sql":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			a.fail("DATABASE_URL is required for the sql backend")
			return
		}
		for _, bad := range m.Storage.ForbiddenCredentials {
			if strings.Contains(dsn, bad) {
				a.fail("DATABASE_URL contains a development credential")
				return
			}
		}
		if u, err := url.Parse(dsn); err == nil && u.Scheme != "sqlite3" && u.Scheme != "sqlite" && u.Query().Get("sslmode") == "disable" {
			a.warn("DATABASE_URL disables TLS")
		}
		a.pass("Database credentials are not development defaults.")
	case "redis":
		if os.Getenv("REDIS_ADDR") == "" {
			a.fail("REDIS_ADDR is required for the redis backend")
			return
		}
		if os.Getenv("REDIS_PASSWORD") == "" {
			a.fail("REDIS_PASSWORD is empty")
			return
		}
		a.pass("Redis backend is authenticated.")
	case "memory":
		a.warn("memory backend loses every project on restart")
	default:
		a.fail("unknown SNAPSHOT_BACKEND %q", backend)
	}
}

// --- Audit Point 4: Architect credentials ---
func checkAdvice(a *audit, m PostureManifest) {
	if os.Getenv("GEMINI_API_KEY") != "" {
		a.pass("Advice API key is configured.")
		return
	}
	if m.Advice.RequireAPIKey {
		a.fail("GEMINI_API_KEY is not set")
		return
	}
	a.warn("GEMINI_API_KEY not set, the architect will answer with the offline fallback")
}
