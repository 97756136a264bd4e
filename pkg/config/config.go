package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const (
	xdgAppName = "opsboard"
	configFile = "config.json"
	envPrefix  = "OPSBOARD_"

	// DirEnv overrides the configuration directory.
	DirEnv = "OPSBOARD_CONFIG_DIR"
)

const (
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	Backend              string `koanf:"backend" json:"backend" validate:"oneof=sqlite sheets"`
	DatabasePath         string `koanf:"database_path" json:"database_path" validate:"required_if=Backend sqlite"`
	SpreadsheetID        string `koanf:"spreadsheet_id" json:"spreadsheet_id,omitempty" validate:"required_if=Backend sheets"`
	DefaultRate          string `koanf:"default_rate" json:"default_rate,omitempty" validate:"omitempty,numeric"`
	DefaultPaymentStatus string `koanf:"default_payment_status" json:"default_payment_status" validate:"payment_status"`
	SessionPath          string `koanf:"session_path" json:"session_path" validate:"required"`
	LedgerPath           string `koanf:"ledger_path" json:"ledger_path" validate:"required"`
	LockPath             string `koanf:"lock_path" json:"lock_path" validate:"required"`
	LogLevel             string `koanf:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
}

// Dir is the configuration directory, ~/.config/opsboard unless overridden.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Default returns the configuration used when nothing is set.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Backend:              BackendSQLite,
		DatabasePath:         filepath.Join(dir, "opsboard.db"),
		DefaultPaymentStatus: string(model.Unpaid),
		SessionPath:          filepath.Join(dir, "import_session.json"),
		LedgerPath:           filepath.Join(dir, "import_ledger.json"),
		LockPath:             filepath.Join(dir, "import.lock"),
		LogLevel:             "info",
	}, nil
}

// fileMap is a koanf provider over an already decoded JSON object.
type fileMap map[string]any

func (m fileMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("fileMap does not support ReadBytes")
}

func (m fileMap) Read() (map[string]any, error) {
	return m, nil
}

// Load layers defaults, the config file and OPSBOARD_* environment variables.
func Load() (*Config, error) {
	defaults, err := Default()
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := k.Load(data, nil); err != nil {
			return nil, fmt.Errorf("failed to apply config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "config_dir" {
			return "", nil
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) (fileMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var m map[string]any
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return fileMap(m), nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		return model.PaymentStatus(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks struct rules and that the default rate, when set, is positive.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := cfg.Rate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Rate returns the default rate, zero when unset.
func (c *Config) Rate() (decimal.Decimal, error) {
	if strings.TrimSpace(c.DefaultRate) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.DefaultRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("default_rate %q is not a number", c.DefaultRate)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("default_rate must be positive, got %s", d)
	}
	return d, nil
}

func Save(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
