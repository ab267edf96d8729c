// Package pool requests the pool-creation transaction batch for a new token
// from the external bonding-curve pool service.
package pool

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/solana"
)

// Request is the body sent to the pool service.
type Request struct {
	BaseMint           string `json:"baseMint"`
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	Description        string `json:"description,omitempty"`
	URI                string `json:"uri"`
	Payer              string `json:"payer"`
	InitialBuyLamports uint64 `json:"initialBuyLamports,omitempty"`
}

// Response is the pool service reply.
type Response struct {
	Success         bool     `json:"success"`
	Transactions    []string `json:"transactions"` // base64 serialized, unsigned
	ContractAddress string   `json:"contractAddress"`
	Error           string   `json:"error,omitempty"`
}

// Service creates pools.
type Service interface {
	CreatePool(ctx context.Context, req *Request) (*Response, error)
}

// HTTPService calls the pool service over HTTP.
type HTTPService struct {
	client *resty.Client
}

// NewHTTPService creates a pool service client for baseURL.
func NewHTTPService(baseURL, apiKey string, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &HTTPService{client: client}
}

// CreatePool posts req once. Pool creation is not idempotent, so it is never retried.
func (s *HTTPService) CreatePool(ctx context.Context, req *Request) (*Response, error) {
	var out Response
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/v1/pools")
	if err != nil {
		return nil, fmt.Errorf("post pool request: %w", err)
	}
	if res.IsError() {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(res.Body()))
		}
		return nil, fmt.Errorf("pool service status %d: %s", res.StatusCode(), msg)
	}
	return &out, nil
}

// Builder turns a prepared token into the ordered transaction batch.
type Builder struct {
	service Service
	logger  logrus.FieldLogger
}

// NewBuilder creates a Builder.
func NewBuilder(service Service, logger logrus.FieldLogger) *Builder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Builder{service: service, logger: logger}
}

// Build asks the pool service for the launch transactions and validates the reply.
// Empty entries are dropped; the remaining order is preserved exactly.
func (b *Builder) Build(
	ctx context.Context,
	identity *domain.TokenIdentity,
	metadata *domain.MetadataReference,
	req *domain.LaunchRequest,
	payer string,
) (batch *domain.TransactionBatch, err error) {
	defer func() { observability.RecordPoolRequest(err) }()

	if identity == nil || metadata == nil || req == nil {
		return nil, fmt.Errorf("%w: missing token identity or metadata", launch.ErrPoolCreation)
	}
	if err := solana.ValidateSignerAddress(payer); err != nil {
		return nil, fmt.Errorf("%w: payer: %w", launch.ErrPoolCreation, err)
	}

	poolReq := &Request{
		BaseMint:           identity.Address,
		Name:               req.Name,
		Symbol:             req.Ticker,
		Description:        req.Description,
		URI:                metadata.MetadataURI,
		Payer:              payer,
		InitialBuyLamports: req.InitialLiquidityLamports(),
	}

	resp, err := b.service.CreatePool(ctx, poolReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", launch.ErrPoolCreation, err)
	}
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "service reported failure"
		}
		return nil, fmt.Errorf("%w: %s", launch.ErrPoolCreation, reason)
	}

	batch, err = decodeBatch(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", launch.ErrPoolCreation, err)
	}

	b.logger.WithFields(logrus.Fields{
		"token_address": batch.TokenAddress,
		"transactions":  batch.Len(),
	}).Info("pool transactions received")
	return batch, nil
}

func decodeBatch(resp *Response) (*domain.TransactionBatch, error) {
	if err := solana.ValidateAddress(resp.ContractAddress); err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}

	txs := make([][]byte, 0, len(resp.Transactions))
	for i, encoded := range resp.Transactions {
		if strings.TrimSpace(encoded) == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: decode base64: %w", i, err)
		}
		if _, err := solana.DecodeTransaction(raw); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, raw)
	}
	if len(txs) == 0 {
		return nil, errors.New("pool service returned no transactions")
	}

	return &domain.TransactionBatch{Transactions: txs, TokenAddress: resp.ContractAddress}, nil
}
