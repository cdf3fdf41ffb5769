package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/expovote/db"
)

const (
	defaultPort             = 3318
	defaultMaxDevices       = 3
	defaultBucketWidth      = 10 * time.Second
	defaultStoreTimeout     = 5 * time.Second
	defaultRegistryCacheTTL = 10 * time.Minute
	defaultEnvFile          = ".env"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Vote protocol
	SharedSecret   string
	ValidityWindow int           // buckets a token stays valid
	MaxVotes       int           // votes per voter fingerprint
	MaxDevices     int           // display devices per project
	BucketWidth    time.Duration // key rotation period
	BaseURL        string
	VoterIdentity  string // "display" or "scanner"

	AdminKey         string
	StoreTimeout     time.Duration
	RegistryCacheTTL time.Duration

	LogLevel  string
	LogFormat string

	ConfigFile string
	EnvFile    string

	// Kiosk display mode
	DisplayProject     int64
	DisplayFingerprint string
	DisplayAddress     string
}

// fileConfig mirrors Config for the optional YAML file
type fileConfig struct {
	Port     int `yaml:"port"`
	Database struct {
		URL  string `yaml:"url"`
		Type string `yaml:"type"`
	} `yaml:"database"`
	SharedSecret          string `yaml:"shared_secret"`
	ValidityWindowBuckets *int   `yaml:"validity_window_buckets"`
	MaxVotes              *int   `yaml:"max_votes"`
	MaxDevicesPerProject  *int   `yaml:"max_devices_per_project"`
	BucketWidthSeconds    *int   `yaml:"bucket_width_seconds"`
	BaseURL               string `yaml:"base_url"`
	VoterIdentity         string `yaml:"voter_identity"`
	AdminKey              string `yaml:"admin_key"`
	StoreTimeout          string `yaml:"store_timeout"`
	RegistryCacheTTL      string `yaml:"registry_cache_ttl"`
	Log                   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// ParseFlags builds the configuration.
// Precedence: CLI flag, then environment (including the dotenv file), then
// the YAML config file, then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var bucketSeconds, storeTimeout, cacheTTL string
	var validityWindow, maxVotes, maxDevices int

	fs := flag.NewFlagSet("expovote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in vote links")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SharedSecret, "secret", "", "Shared secret (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin API key (prefer env)")

	// Vote policy
	fs.IntVar(&validityWindow, "window", 0, "Validity window in buckets")
	fs.IntVar(&maxVotes, "max-votes", 0, "Votes allowed per voter")
	fs.IntVar(&maxDevices, "max-devices", 0, "Display devices allowed per project")
	fs.StringVar(&bucketSeconds, "bucket-width", "", "Bucket width in seconds")
	fs.StringVar(&cfg.VoterIdentity, "voter-identity", "", "Voter identity source (display or scanner)")
	fs.StringVar(&storeTimeout, "store-timeout", "", "Timeout for each store call")
	fs.StringVar(&cacheTTL, "registry-cache-ttl", "", "How long device authorizations are cached")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (auto, json, text)")

	fs.StringVar(&cfg.ConfigFile, "c", "", "YAML config file")
	fs.StringVar(&cfg.EnvFile, "env-file", "", "dotenv file loaded before reading the environment")

	// Kiosk display mode
	fs.Int64Var(&cfg.DisplayProject, "project", 0, "Project id to display (display mode)")
	fs.StringVar(&cfg.DisplayFingerprint, "fingerprint", "", "Fingerprint of this display device (display mode)")
	fs.StringVar(&cfg.DisplayAddress, "address", "", "Network address of this display device (display mode)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := loadEnvFile(cfg.EnvFile); err != nil {
		return Config{}, err
	}

	cfg.ConfigFile = pickString(set["c"], cfg.ConfigFile, "CONFIG_FILE", "", "")
	var file fileConfig
	if cfg.ConfigFile != "" {
		var err error
		if file, err = loadFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	// Fall back to environment variables, then the config file
	port, _, err := pickInt(set["p"], cfg.Port, "PORT", intPtr(file.Port), defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.Port = port

	cfg.DatabaseURL = pickString(set["d"], cfg.DatabaseURL, "DATABASE_URL", file.Database.URL, "")
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	dialect, err := db.ParseDialect(pickString(set["t"], cfg.DatabaseType, "DATABASE_TYPE", file.Database.Type, "sqlite"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DATABASE_TYPE: %w", err)
	}
	cfg.DatabaseType = string(dialect)

	// Secrets - MUST be provided
	cfg.SharedSecret = pickString(set["secret"], cfg.SharedSecret, "SHARED_SECRET", file.SharedSecret, "")
	if cfg.SharedSecret == "" {
		return Config{}, errors.New("SHARED_SECRET required")
	}
	cfg.AdminKey = pickString(set["admin-key"], cfg.AdminKey, "ADMIN_KEY", file.AdminKey, "")

	window, found, err := pickInt(set["window"], validityWindow, "VALIDITY_WINDOW_BUCKETS", file.ValidityWindowBuckets, 0)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, errors.New("VALIDITY_WINDOW_BUCKETS required")
	}
	if window < 0 {
		return Config{}, errors.New("VALIDITY_WINDOW_BUCKETS must not be negative")
	}
	cfg.ValidityWindow = window

	votes, found, err := pickInt(set["max-votes"], maxVotes, "MAX_VOTES", file.MaxVotes, 0)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, errors.New("MAX_VOTES required")
	}
	if votes < 1 {
		return Config{}, errors.New("MAX_VOTES must be at least 1")
	}
	cfg.MaxVotes = votes

	devices, _, err := pickInt(set["max-devices"], maxDevices, "MAX_DEVICES_PER_PROJECT", file.MaxDevicesPerProject, defaultMaxDevices)
	if err != nil {
		return Config{}, err
	}
	if devices < 1 {
		return Config{}, errors.New("MAX_DEVICES_PER_PROJECT must be at least 1")
	}
	cfg.MaxDevices = devices

	var fileWidth string
	if file.BucketWidthSeconds != nil {
		fileWidth = strconv.Itoa(*file.BucketWidthSeconds)
	}
	widthStr := pickString(set["bucket-width"], bucketSeconds, "BUCKET_WIDTH_SECONDS", fileWidth, "")
	cfg.BucketWidth = defaultBucketWidth
	if widthStr != "" {
		seconds, err := strconv.Atoi(widthStr)
		if err != nil || seconds < 1 {
			return Config{}, errors.New("invalid BUCKET_WIDTH_SECONDS")
		}
		cfg.BucketWidth = time.Duration(seconds) * time.Second
	}

	cfg.BaseURL = pickString(set["base-url"], cfg.BaseURL, "BASE_URL", file.BaseURL, "http://localhost:"+strconv.Itoa(cfg.Port))

	cfg.VoterIdentity = strings.ToLower(pickString(set["voter-identity"], cfg.VoterIdentity, "VOTER_IDENTITY", file.VoterIdentity, "display"))
	if cfg.VoterIdentity != "display" && cfg.VoterIdentity != "scanner" {
		return Config{}, fmt.Errorf("invalid VOTER_IDENTITY %q (use display or scanner)", cfg.VoterIdentity)
	}

	if cfg.StoreTimeout, err = pickDuration(set["store-timeout"], storeTimeout, "STORE_TIMEOUT", file.StoreTimeout, defaultStoreTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RegistryCacheTTL, err = pickDuration(set["registry-cache-ttl"], cacheTTL, "REGISTRY_CACHE_TTL", file.RegistryCacheTTL, defaultRegistryCacheTTL); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = pickString(set["log-level"], cfg.LogLevel, "LOG_LEVEL", file.Log.Level, "info")
	cfg.LogFormat = pickString(set["log-format"], cfg.LogFormat, "LOG_FORMAT", file.Log.Format, "auto")

	return cfg, nil
}

// loadEnvFile loads a dotenv file without overriding the real environment.
// The default file is optional; an explicitly named one must exist.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("config file %s: %w", path, err)
	}
	return fc, nil
}

func pickString(flagSet bool, flagVal, envKey, fileVal, def string) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

// pickInt reports whether the value came from any source other than def
func pickInt(flagSet bool, flagVal int, envKey string, fileVal *int, def int) (int, bool, error) {
	if flagSet {
		return flagVal, true, nil
	}
	if v := os.Getenv(envKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("invalid %s env variable", envKey)
		}
		return n, true, nil
	}
	if fileVal != nil {
		return *fileVal, true, nil
	}
	return def, false, nil
}

func pickDuration(flagSet bool, flagVal, envKey, fileVal string, def time.Duration) (time.Duration, error) {
	s := pickString(flagSet, flagVal, envKey, fileVal, "")
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", envKey, s)
	}
	return d, nil
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
