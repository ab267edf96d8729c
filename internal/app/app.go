// Package app wires the launch pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/assets/gcs"
	"token-launchpad/internal/assets/ipfs"
	assetsmem "token-launchpad/internal/assets/memory"
	"token-launchpad/internal/config"
	"token-launchpad/internal/metadata"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/pool"
	"token-launchpad/internal/record"
	"token-launchpad/internal/recovery"
	"token-launchpad/internal/sequencer"
	"token-launchpad/internal/solana"
	"token-launchpad/internal/storage"
	chstore "token-launchpad/internal/storage/clickhouse"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/storage/migrations"
	pgstore "token-launchpad/internal/storage/postgres"
	"token-launchpad/internal/storage/sqlite"
	"token-launchpad/internal/wallet"
)

// Stores holds the storage backends.
type Stores struct {
	Records  storage.RecordStore
	Attempts storage.AttemptStore
	Journal  *recovery.Journal

	closers []func() error
}

// Close releases every backend in reverse order of opening.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// OpenStores opens the record store, the attempt store and the recovery journal.
func OpenStores(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Stores, error) {
	s := &Stores{}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Records = pgstore.NewRecordStore(pool)

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { return sqlite.Close(db) })
		s.Records = sqlite.NewRecordStore(db)

	default:
		s.Records = memory.NewRecordStore()
	}

	if cfg.Storage.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		s.Attempts = chstore.NewAttemptStore(conn)
	} else {
		s.Attempts = memory.NewAttemptStore()
	}

	journal, err := recovery.Open(recovery.Options{Dir: cfg.Recovery.Dir, Logger: logger})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, journal.Close)
	s.Journal = journal

	logger.WithFields(logrus.Fields{
		"records":  cfg.Storage.Backend,
		"attempts": attemptBackend(cfg),
		"recovery": cfg.Recovery.Dir,
	}).Info("stores opened")
	return s, nil
}

func attemptBackend(cfg *config.Config) string {
	if cfg.Storage.ClickHouseDSN != "" {
		return "clickhouse"
	}
	return config.BackendMemory
}

// App is a wired launch pipeline.
type App struct {
	*Stores
	Orchestrator *orchestrator.Orchestrator
	Creator      string
}

// Options tunes New beyond the configuration file.
type Options struct {
	// Progress receives every progress update of every attempt.
	Progress orchestrator.ProgressFunc

	// Signer replaces the configured wallet, e.g. in tests.
	Signer Signer
	// RPC replaces the configured RPC client.
	RPC solana.RPCClient
	// PoolService replaces the configured pool service.
	PoolService pool.Service
}

// Signer is a payer wallet.
type Signer interface {
	sequencer.Signer
	Address() string
}

// New builds the pipeline described by cfg.
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, opts Options) (*App, error) {
	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Stores: stores}

	if err := a.wire(ctx, cfg, logger, opts); err != nil {
		stores.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, opts Options) error {
	rpc := opts.RPC
	if rpc == nil {
		rpc = solana.NewHTTPClient(cfg.Solana.RPCEndpoint,
			solana.WithRateLimit(cfg.Solana.RequestsPerSec, int(cfg.Solana.RequestsPerSec)+1))
	}

	signer := opts.Signer
	if signer == nil {
		var err error
		if signer, err = newSigner(cfg, rpc); err != nil {
			return err
		}
	}
	a.Creator = signer.Address()

	assets, err := a.newAssetStore(ctx, cfg)
	if err != nil {
		return err
	}

	confirmer, err := a.newConfirmer(ctx, cfg, rpc, logger)
	if err != nil {
		return err
	}

	service := opts.PoolService
	if service == nil {
		service = pool.NewHTTPService(cfg.Pool.URL, cfg.Pool.APIKey, cfg.Pool.Timeout)
	}

	a.Orchestrator = orchestrator.New(orchestrator.Options{
		Preparer: metadata.NewPreparer(metadata.Options{
			Assets:    assets,
			Documents: assets,
			CreatedOn: cfg.Assets.CreatedOn,
			Logger:    logger.WithField("component", "metadata"),
		}),
		Builder: pool.NewBuilder(service, logger.WithField("component", "pool")),
		Sequencer: sequencer.New(sequencer.Options{
			Signer:     signer,
			Confirmer:  confirmer,
			Commitment: cfg.Solana.Commitment,
			Logger:     logger.WithField("component", "sequencer"),
		}),
		Writer:   record.NewWriter(a.Records, logger.WithField("component", "record")),
		Creator:  a.Creator,
		Attempts: a.Attempts,
		Journal:  a.Journal,
		Progress: opts.Progress,
		Logger:   logger.WithField("component", "orchestrator"),
	})
	return nil
}

func newSigner(cfg *config.Config, rpc solana.RPCClient) (Signer, error) {
	switch cfg.Wallet.Mode {
	case config.WalletCustody:
		return wallet.NewCustodySigner(wallet.CustodyOptions{
			BaseURL:   cfg.Wallet.CustodyURL,
			AppID:     cfg.Wallet.AppID,
			AppSecret: cfg.Wallet.AppSecret,
			WalletID:  cfg.Wallet.WalletID,
			Address:   cfg.Wallet.Address,
		}), nil
	case config.WalletKeypair:
		return wallet.LoadKeypairSigner(cfg.Wallet.KeypairPath, rpc, cfg.Solana.Commitment)
	default:
		return nil, fmt.Errorf("unknown wallet mode %q", cfg.Wallet.Mode)
	}
}

// assetStore uploads images and publishes documents.
type assetStore interface {
	metadata.AssetStore
	metadata.MetadataStore
}

func (a *App) newAssetStore(ctx context.Context, cfg *config.Config) (assetStore, error) {
	switch cfg.Assets.Backend {
	case config.BackendGCS:
		store, err := gcs.New(ctx, gcs.Options{
			Bucket:          cfg.Assets.GCSBucket,
			Prefix:          cfg.Assets.GCSPrefix,
			CredentialsFile: cfg.Assets.GCSCredentials,
			Endpoint:        cfg.Assets.GCSEndpoint,
			PublicBaseURL:   cfg.Assets.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.BackendIPFS:
		return ipfs.NewClient(ipfs.Options{
			APIURL:     cfg.Assets.IPFSAPIURL,
			GatewayURL: cfg.Assets.IPFSGatewayURL,
			JWT:        cfg.Assets.IPFSJWT,
		}), nil
	default:
		return assetsmem.NewStore(cfg.Assets.PublicBaseURL), nil
	}
}

// newConfirmer prefers signature subscriptions when a WebSocket endpoint is
// configured and falls back to polling otherwise.
func (a *App) newConfirmer(ctx context.Context, cfg *config.Config, rpc solana.RPCClient, logger logrus.FieldLogger) (sequencer.Confirmer, error) {
	opts := solana.ConfirmerOptions{
		PollInterval: cfg.Solana.PollInterval,
		Timeout:      cfg.Solana.ConfirmTimeout,
		Logger:       logger.WithField("component", "confirmer"),
	}
	if cfg.Solana.WSEndpoint == "" {
		return solana.NewPollingConfirmer(rpc, opts), nil
	}

	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}
	a.closers = append(a.closers, ws.Close)
	return solana.NewWSConfirmer(ws, rpc, opts), nil
}
