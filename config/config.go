package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "30s" in YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) { return time.Duration(d).String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(time.Duration(d).String()) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins" json:"allowedOrigins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

type AuthConfig struct {
	JWTSecret string   `yaml:"jwtSecret" json:"jwtSecret"`
	TokenTTL  Duration `yaml:"tokenTTL" json:"tokenTTL"`
	// Admins はユーザーIDで指定します。メールアドレスは未登録なら誰でも取得できるため使いません。
	Admins []string `yaml:"admins" json:"admins"`
}

type StoreConfig struct {
	TaxRate  float64 `yaml:"taxRate" json:"taxRate"`
	Currency string  `yaml:"currency" json:"currency"`
}

type ImportConfig struct {
	Timeout      Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string   `yaml:"userAgent" json:"userAgent"`
	BrowserBin   string   `yaml:"browserBin" json:"browserBin"`
	UnitsFile    string   `yaml:"unitsFile" json:"unitsFile"`
	UnitsCharset string   `yaml:"unitsCharset" json:"unitsCharset"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Import   ImportConfig   `yaml:"import" json:"import"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// RedactedSecret replaces secrets in responses. Saving it back keeps the
// current secret.
const RedactedSecret = "********"

const defaultConfigFilePath = "./mealmate.yaml"

var (
	cfg            = Default()
	mu             sync.RWMutex
	configFilePath = defaultConfigFilePath
)

// Default は設定ファイルが無い場合の既定値です。
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{Path: "./mealmate.db"},
		Auth: AuthConfig{
			JWTSecret: "change-me",
			TokenTTL:  Duration(24 * time.Hour),
		},
		Store: StoreConfig{TaxRate: 0.07, Currency: "USD"},
		Import: ImportConfig{
			Timeout:   Duration(30 * time.Second),
			UserAgent: "mealmate/1.0 (+recipe import)",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// fillDefaults sets zero fields to their defaults.
func fillDefaults(c *Config) {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = d.Auth.TokenTTL
	}
	if c.Store.Currency == "" {
		c.Store.Currency = d.Store.Currency
	}
	if c.Import.Timeout == 0 {
		c.Import.Timeout = d.Import.Timeout
	}
	if c.Import.UserAgent == "" {
		c.Import.UserAgent = d.Import.UserAgent
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// SetPath changes the file LoadConfig and SaveConfig use.
func SetPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	if path == "" {
		path = defaultConfigFilePath
	}
	configFilePath = path
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configFilePath
}

// LoadConfig は設定ファイルを読み込み、MEALMATE_* 環境変数で上書きします。
// ファイルが無い場合は既定値を使います。
func LoadConfig() (Config, error) {
	path := Path()

	loaded := Default()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		var tempCfg Config
		if err := yaml.Unmarshal(file, &tempCfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		fillDefaults(&tempCfg)
		loaded = tempCfg
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := applyEnv(&loaded); err != nil {
		return Config{}, err
	}
	if err := loaded.Validate(); err != nil {
		return Config{}, err
	}

	mu.Lock()
	cfg = loaded
	mu.Unlock()
	return loaded, nil
}

// SaveConfig validates newCfg, writes it to the config file and makes it current.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if newCfg.Auth.JWTSecret == RedactedSecret {
		newCfg.Auth.JWTSecret = cfg.Auth.JWTSecret
	}
	fillDefaults(&newCfg)
	if err := newCfg.Validate(); err != nil {
		return err
	}

	file, err := yaml.Marshal(newCfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(configFilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFilePath, err)
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// ErrInvalid wraps every error Validate returns.
var ErrInvalid = errors.New("invalid config")

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.Store.TaxRate < 0 || c.Store.TaxRate >= 1 {
		return fmt.Errorf("store.taxRate must be between 0 and 1, got %g", c.Store.TaxRate)
	}
	if len(c.Store.Currency) != 3 {
		return fmt.Errorf("store.currency must be an ISO 4217 code, got %q", c.Store.Currency)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret must not be empty")
	}
	if c.Auth.TokenTTL < 0 || c.Import.Timeout < 0 {
		return errors.New("durations must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// Redacted returns a copy safe to send to clients.
func (c Config) Redacted() Config {
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = RedactedSecret
	}
	c.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	c.Auth.Admins = append([]string(nil), c.Auth.Admins...)
	return c
}

// ProtectedChanges lists the settings that differ between cur and next and
// may only be changed through the config file or the environment. A
// redacted secret counts as unchanged.
func ProtectedChanges(cur, next Config) []string {
	var changed []string
	if next.Auth.JWTSecret != RedactedSecret && next.Auth.JWTSecret != cur.Auth.JWTSecret {
		changed = append(changed, "auth.jwtSecret")
	}
	if !slices.Equal(next.Auth.Admins, cur.Auth.Admins) {
		changed = append(changed, "auth.admins")
	}
	if next.Database.Path != cur.Database.Path {
		changed = append(changed, "database.path")
	}
	if next.Import.BrowserBin != cur.Import.BrowserBin {
		changed = append(changed, "import.browserBin")
	}
	if next.Import.UnitsFile != cur.Import.UnitsFile {
		changed = append(changed, "import.unitsFile")
	}
	return changed
}

func applyEnv(c *Config) error {
	if v := os.Getenv("MEALMATE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MEALMATE_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MEALMATE_ADMINS"); v != "" {
		c.Auth.Admins = splitList(v)
	}
	if v := os.Getenv("MEALMATE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MEALMATE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("MEALMATE_TAX_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MEALMATE_TAX_RATE environment variable is invalid: %w", err)
		}
		c.Store.TaxRate = rate
	}
	if v := os.Getenv("MEALMATE_BROWSER_BIN"); v != "" {
		c.Import.BrowserBin = v
	}
	if v := os.Getenv("MEALMATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
