// Package config builds the per-invocation configuration of the CLI from
// the environment, an optional .env file and command-line flags.
package config

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/merkledistributor"
)

var (
	ErrMissingRPC     = errors.New("config: rpc endpoint is required (RPC)")
	ErrMissingKeypair = errors.New("config: keypair path is required (ADMIN)")
	ErrInvalidKeypair = errors.New("config: invalid keypair file")
)

type Config struct {
	// RPC is the Solana JSON-RPC endpoint.
	RPC string `mapstructure:"rpc"`
	// RPCWebsocket is accepted for compatibility with existing .env files.
	// Confirmation polls over RPC.
	RPCWebsocket string `mapstructure:"rpc_ws"`

	// Admin is the path to a keypair file (JSON array of 64 bytes).
	Admin string `mapstructure:"admin"`

	ProgramID string `mapstructure:"program_id"`
	APIURL    string `mapstructure:"api_url"`

	// APIRateLimit caps requests per second to the allocation API; zero
	// leaves it unlimited.
	APIRateLimit float64 `mapstructure:"api_rate_limit"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
	NewRelicAppName    string `mapstructure:"new_relic_app_name"`
}

var defaultConfig = Config{
	ProgramID:       "KdisqEcXbXKaTrBFqeDLhMmBvymLTwj9GmhDcdJyGat",
	LogLevel:        "info",
	LogFormat:       "text",
	NewRelicAppName: "distributor-cli",
}

var envBindings = map[string]string{
	"rpc":                   "RPC",
	"rpc_ws":                "RPC_WS",
	"admin":                 "ADMIN",
	"program_id":            "PROGRAM_ID",
	"api_url":               "API_URL",
	"api_rate_limit":        "API_RATE_LIMIT",
	"log_level":             "LOG_LEVEL",
	"log_format":            "LOG_FORMAT",
	"new_relic_license_key": "NEW_RELIC_LICENSE_KEY",
	"new_relic_app_name":    "NEW_RELIC_APP_NAME",
}

// FlagNames maps config keys to the command-line flags that override them.
var FlagNames = map[string]string{
	"rpc":        "rpc",
	"admin":      "keypair",
	"program_id": "program-id",
	"api_url":    "api-url",
	"log_level":  "log-level",
	"log_format": "log-format",
}

// Load reads envFile (a missing file is not an error), then the environment,
// then any flags in flags that were set. Later sources win.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	if len(envFile) > 0 {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "failed to load env file %s", envFile)
		}
	}

	v := viper.New()
	v.SetDefault("rpc", defaultConfig.RPC)
	v.SetDefault("rpc_ws", defaultConfig.RPCWebsocket)
	v.SetDefault("admin", defaultConfig.Admin)
	v.SetDefault("program_id", defaultConfig.ProgramID)
	v.SetDefault("api_url", defaultConfig.APIURL)
	v.SetDefault("api_rate_limit", defaultConfig.APIRateLimit)
	v.SetDefault("log_level", defaultConfig.LogLevel)
	v.SetDefault("log_format", defaultConfig.LogFormat)
	v.SetDefault("new_relic_license_key", defaultConfig.NewRelicLicenseKey)
	v.SetDefault("new_relic_app_name", defaultConfig.NewRelicAppName)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if flags != nil {
		for key, name := range FlagNames {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, errors.Wrapf(err, "failed to bind flag %s", name)
				}
			}
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	config.LogFormat = strings.ToLower(config.LogFormat)
	return &config, nil
}

// Program returns the configured distributor program id.
func (c *Config) Program() (ed25519.PublicKey, error) {
	if len(c.ProgramID) == 0 {
		return merkledistributor.DefaultProgramKey, nil
	}
	return solana.ParsePublicKey(c.ProgramID)
}

// RequireRPC fails when no RPC endpoint is configured.
func (c *Config) RequireRPC() error {
	if len(c.RPC) == 0 {
		return ErrMissingRPC
	}
	return nil
}

// LoadAdminKeypair reads the keypair at Admin.
func (c *Config) LoadAdminKeypair() (ed25519.PrivateKey, error) {
	if len(c.Admin) == 0 {
		return nil, ErrMissingKeypair
	}
	return LoadKeypair(c.Admin)
}

// LoadKeypair reads a keypair file in the Solana CLI format: a JSON array of
// 64 bytes holding the seed followed by the public key.
func LoadKeypair(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair %s", path)
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: %v", path, err)
	}

	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(values))
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, value := range values {
		if value < 0 || value > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypair, "%s: byte %d out of range", path, i)
		}
		key[i] = byte(value)
	}

	expected := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !expected.Equal(ed25519.PrivateKey(key)) {
		return nil, errors.Wrapf(ErrInvalidKeypair, "%s: public key does not match seed", path)
	}

	return expected, nil
}
