package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/config"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/pool"
	"token-launchpad/internal/solana/stub"
	"token-launchpad/internal/wallet"
)

type poolService struct{ payer solanago.PublicKey }

func (s poolService) CreatePool(_ context.Context, req *pool.Request) (*pool.Response, error) {
	mint := solanago.MustPublicKeyFromBase58(req.BaseMint)
	return &pool.Response{
		Success: true,
		Transactions: []string{
			base64.StdEncoding.EncodeToString(stub.MustUnsignedTransaction(s.payer, 0, mint)),
			base64.StdEncoding.EncodeToString(stub.MustUnsignedTransaction(s.payer, 1)),
		},
		ContractAddress: req.BaseMint,
	}, nil
}

func writeKeypair(t *testing.T, key solanago.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "payer.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Recovery.Dir = t.TempDir()
	cfg.Pool.URL = "http://pool.invalid"
	return cfg
}

func TestOpenStores_SQLite(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "launchpad.db")

	stores, err := OpenStores(context.Background(), cfg, logger)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, stores.Records.Insert(ctx, &domain.LaunchRecord{
		Address: "Mint", Name: "Agent Meme", Ticker: "ABCD", Status: domain.RecordStatusActive,
	}))
	got, err := stores.Records.GetByAddress(ctx, "Mint")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got.Ticker)

	require.NoError(t, stores.Close())
	assert.NoError(t, stores.Close(), "second close is a no-op")
}

func TestNew_LaunchesWithKeypairWallet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Wallet.KeypairPath = writeKeypair(t, key)
	cfg.Solana.PollInterval = time.Millisecond
	require.NoError(t, cfg.ValidateLaunch())

	rpc := stub.NewRPCClient()
	var stages []string
	a, err := New(context.Background(), cfg, logger, Options{
		RPC:         rpc,
		PoolService: poolService{payer: key.PublicKey()},
		Progress:    func(p orchestrator.Progress) { stages = append(stages, string(p.Stage)) },
	})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, key.PublicKey().String(), a.Creator)

	rec, err := a.Orchestrator.Launch(context.Background(), &domain.LaunchRequest{
		Name:   "Agent Meme",
		Ticker: "ABCD",
		Image:  domain.Image{Data: []byte{1}, ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Len(t, rec.Signatures, 2)
	assert.Equal(t, 2, rpc.SentCount())
	assert.NotEmpty(t, stages)

	stored, err := a.Records.GetByCreator(context.Background(), a.Creator)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestNew_MissingKeypairFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Wallet.KeypairPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(context.Background(), cfg, logger, Options{RPC: stub.NewRPCClient()})
	assert.Error(t, err)
}

func TestNew_CustodyWallet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Wallet.Mode = config.WalletCustody
	cfg.Wallet.CustodyURL = "https://custody.invalid"
	cfg.Wallet.WalletID = "wallet-1"
	cfg.Wallet.Address = stub.NewAddress()

	a, err := New(context.Background(), cfg, logger, Options{})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, cfg.Wallet.Address, a.Creator)

	var _ Signer = (*wallet.CustodySigner)(nil)
	var _ Signer = (*wallet.KeypairSigner)(nil)
}
