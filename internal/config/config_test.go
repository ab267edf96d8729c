package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "launchpad.yaml", `
log:
  level: debug
  json: true
solana:
  rpcEndpoint: http://127.0.0.1:8899
  commitment: finalized
  confirmTimeout: 90s
storage:
  backend: sqlite
  sqlitePath: /tmp/launchpad.db
rateLimit:
  launchesPerMinute: 6
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "http://127.0.0.1:8899", cfg.Solana.RPCEndpoint)
	assert.Equal(t, domain.CommitmentFinalized, cfg.Solana.Commitment)
	assert.Equal(t, 90*time.Second, cfg.Solana.ConfirmTimeout)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, float64(6), cfg.RateLimit.LaunchesPerMinute)

	// Untouched keys keep their defaults.
	assert.Equal(t, time.Second, cfg.Solana.PollInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "launchpad.yaml", "solana:\n  rpcEndpoint: http://from-file\n")

	t.Setenv("LAUNCHPAD_SOLANA_RPC_ENDPOINT", "http://from-env")
	t.Setenv("LAUNCHPAD_SOLANA_CONFIRM_TIMEOUT", "15s")
	t.Setenv("LAUNCHPAD_WALLET_KEYPAIR_PATH", "/keys/payer.json")
	t.Setenv("LAUNCHPAD_STORAGE_POSTGRES_DSN", "postgres://localhost/launchpad")
	t.Setenv("LAUNCHPAD_STORAGE_BACKEND", "postgres")
	t.Setenv("LAUNCHPAD_RATE_LIMIT_BURST", "4")
	t.Setenv("LAUNCHPAD_ASSETS_IPFS_JWT", "jwt")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.Solana.RPCEndpoint)
	assert.Equal(t, 15*time.Second, cfg.Solana.ConfirmTimeout)
	assert.Equal(t, "/keys/payer.json", cfg.Wallet.KeypairPath)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/launchpad", cfg.Storage.PostgresDSN)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Equal(t, "jwt", cfg.Assets.IPFSJWT)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "log: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad-backend.yaml", "storage:\n  backend: mongo\n"))
	assert.ErrorContains(t, err, "storage.backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad commitment", func(c *Config) { c.Solana.Commitment = "recent" }, "solana.commitment"},
		{"zero timeout", func(c *Config) { c.Solana.ConfirmTimeout = 0 }, "confirmTimeout"},
		{"gcs without bucket", func(c *Config) { c.Assets.Backend = BackendGCS }, "gcsBucket"},
		{"ipfs without jwt", func(c *Config) { c.Assets.Backend = BackendIPFS }, "ipfsJwt"},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }, "postgresDsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateLaunch(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateLaunch()
	assert.ErrorContains(t, err, "keypairPath")
	assert.ErrorContains(t, err, "pool.url")

	cfg.Wallet.KeypairPath = "/keys/payer.json"
	cfg.Pool.URL = "http://pool"
	assert.NoError(t, cfg.ValidateLaunch())

	cfg.Wallet.Mode = WalletCustody
	assert.ErrorContains(t, cfg.ValidateLaunch(), "custodyUrl")

	cfg.Wallet.CustodyURL = "https://custody"
	cfg.Wallet.WalletID = "wallet-1"
	cfg.Wallet.Address = "Payer"
	assert.NoError(t, cfg.ValidateLaunch())

	cfg.Wallet.Mode = "ledger"
	assert.ErrorContains(t, cfg.ValidateLaunch(), "wallet.mode")
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("LAUNCHPAD_TEST_PRESET", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("LAUNCHPAD_TEST_DOTENV")
		os.Unsetenv("LAUNCHPAD_TEST_QUOTED")
	})

	path := writeFile(t, ".env", `
# comment
LAUNCHPAD_TEST_DOTENV=from-file
LAUNCHPAD_TEST_PRESET=from-file
LAUNCHPAD_TEST_QUOTED="a=b"
not a pair
`)
	LoadEnvFile(path)

	assert.Equal(t, "from-file", os.Getenv("LAUNCHPAD_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("LAUNCHPAD_TEST_PRESET"))
	assert.Equal(t, "a=b", os.Getenv("LAUNCHPAD_TEST_QUOTED"))

	// Missing file is ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "none"))
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.JSON = true

	logger := cfg.Logger()
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
