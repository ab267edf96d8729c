// Package config loads launchpad settings from defaults, an optional YAML
// file, a .env file and LAUNCHPAD_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"token-launchpad/internal/domain"
)

// EnvPrefix prefixes every environment variable, e.g. LAUNCHPAD_SOLANA_RPC_ENDPOINT.
const EnvPrefix = "launchpad"

// Backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendGCS      = "gcs"
	BackendIPFS     = "ipfs"

	WalletCustody = "custody"
	WalletKeypair = "keypair"
)

// Config is the complete launchpad configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Solana    SolanaConfig    `yaml:"solana"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Pool      PoolConfig      `yaml:"pool"`
	Assets    AssetsConfig    `yaml:"assets"`
	Storage   StorageConfig   `yaml:"storage"`
	Recovery  RecoveryConfig  `yaml:"recovery"`
	RateLimit RateLimitConfig `yaml:"rateLimit" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
	MaxUploadBytes  int64         `yaml:"maxUploadBytes"  split_words:"true"`
}

type SolanaConfig struct {
	RPCEndpoint    string            `yaml:"rpcEndpoint"    split_words:"true"`
	WSEndpoint     string            `yaml:"wsEndpoint"     split_words:"true"`
	Commitment     domain.Commitment `yaml:"commitment"`
	ConfirmTimeout time.Duration     `yaml:"confirmTimeout" split_words:"true"`
	PollInterval   time.Duration     `yaml:"pollInterval"   split_words:"true"`
	RequestsPerSec float64           `yaml:"requestsPerSec" split_words:"true"`
}

type WalletConfig struct {
	Mode        string `yaml:"mode"`
	KeypairPath string `yaml:"keypairPath" split_words:"true"`

	CustodyURL string `yaml:"custodyUrl" split_words:"true"`
	AppID      string `yaml:"appId"      split_words:"true"`
	AppSecret  string `yaml:"appSecret"  split_words:"true"`
	WalletID   string `yaml:"walletId"   split_words:"true"`
	Address    string `yaml:"address"`
}

type PoolConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"apiKey" split_words:"true"`
	Timeout time.Duration `yaml:"timeout"`
}

type AssetsConfig struct {
	Backend   string `yaml:"backend"`
	CreatedOn string `yaml:"createdOn" split_words:"true"`

	GCSBucket      string `yaml:"gcsBucket"      split_words:"true"`
	GCSPrefix      string `yaml:"gcsPrefix"      split_words:"true"`
	GCSCredentials string `yaml:"gcsCredentials" split_words:"true"`
	GCSEndpoint    string `yaml:"gcsEndpoint"    split_words:"true"`
	PublicBaseURL  string `yaml:"publicBaseUrl"  split_words:"true"`

	IPFSAPIURL     string `yaml:"ipfsApiUrl"     envconfig:"IPFS_API_URL"`
	IPFSGatewayURL string `yaml:"ipfsGatewayUrl" envconfig:"IPFS_GATEWAY_URL"`
	IPFSJWT        string `yaml:"ipfsJwt"        envconfig:"IPFS_JWT"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgresDsn"   split_words:"true"`
	SQLitePath    string `yaml:"sqlitePath"    split_words:"true"`
	ClickHouseDSN string `yaml:"clickhouseDsn" split_words:"true"`
}

type RecoveryConfig struct {
	Dir string `yaml:"dir"`
}

type RateLimitConfig struct {
	// LaunchesPerMinute is the per-client launch allowance. Zero disables limiting.
	LaunchesPerMinute float64 `yaml:"launchesPerMinute" split_words:"true"`
	Burst             int     `yaml:"burst"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  5 << 20,
		},
		Solana: SolanaConfig{
			RPCEndpoint:    "https://api.devnet.solana.com",
			Commitment:     domain.CommitmentConfirmed,
			ConfirmTimeout: 60 * time.Second,
			PollInterval:   time.Second,
			RequestsPerSec: 10,
		},
		Wallet: WalletConfig{Mode: WalletKeypair},
		Pool:   PoolConfig{Timeout: 30 * time.Second},
		Assets: AssetsConfig{Backend: BackendMemory},
		Storage: StorageConfig{
			Backend:    BackendMemory,
			SQLitePath: "launchpad.db",
		},
		Recovery:  RecoveryConfig{Dir: ".launchpad"},
		RateLimit: RateLimitConfig{LaunchesPerMinute: 2, Burst: 1},
	}
}

// Load builds the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	LoadEnvFile(".env")
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and the settings every binary needs.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !c.Solana.Commitment.IsValid() {
		errs = append(errs, fmt.Errorf("solana.commitment: unknown value %q", c.Solana.Commitment))
	}
	if c.Solana.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("solana.confirmTimeout must be positive"))
	}

	switch c.Assets.Backend {
	case BackendMemory:
	case BackendGCS:
		if c.Assets.GCSBucket == "" {
			errs = append(errs, errors.New("assets.gcsBucket is required for the gcs backend"))
		}
	case BackendIPFS:
		if c.Assets.IPFSJWT == "" {
			errs = append(errs, errors.New("assets.ipfsJwt is required for the ipfs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("assets.backend: unknown value %q", c.Assets.Backend))
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgresDsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown value %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}

// ValidateLaunch checks the settings only launching binaries need.
func (c *Config) ValidateLaunch() error {
	var errs []error

	switch c.Wallet.Mode {
	case WalletKeypair:
		if c.Wallet.KeypairPath == "" {
			errs = append(errs, errors.New("wallet.keypairPath is required for keypair mode"))
		}
	case WalletCustody:
		if c.Wallet.CustodyURL == "" || c.Wallet.WalletID == "" || c.Wallet.Address == "" {
			errs = append(errs, errors.New("wallet.custodyUrl, wallet.walletId and wallet.address are required for custody mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("wallet.mode: unknown value %q", c.Wallet.Mode))
	}
	if c.Pool.URL == "" {
		errs = append(errs, errors.New("pool.url is required"))
	}

	return errors.Join(errs...)
}

// Logger returns a logrus logger configured from the log section.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// LoadEnvFile loads environment variables from path if it exists.
// Variables already set in the environment win.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}
