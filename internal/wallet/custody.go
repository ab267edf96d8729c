// Package wallet implements transaction signers: a custody-delegated wallet
// reached over HTTP and a local keypair for development networks.
package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
)

// MainnetCAIP2 identifies Solana mainnet in wallet RPC requests.
const MainnetCAIP2 = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"

// CustodyOptions configures a CustodySigner.
type CustodyOptions struct {
	BaseURL   string
	AppID     string
	AppSecret string
	WalletID  string
	Address   string // public address of the delegated wallet
	CAIP2     string // chain id, defaults to MainnetCAIP2
	Timeout   time.Duration
}

// CustodySigner asks a custody provider to sign and broadcast each
// transaction with the user's delegated wallet.
type CustodySigner struct {
	client   *resty.Client
	walletID string
	address  string
	caip2    string
}

type rpcParams struct {
	Transaction string `json:"transaction"`
	Encoding    string `json:"encoding"`
}

type rpcRequest struct {
	Method string    `json:"method"`
	CAIP2  string    `json:"caip2"`
	Params rpcParams `json:"params"`
}

type rpcResponse struct {
	Method string `json:"method"`
	Data   struct {
		Hash  string `json:"hash"`
		CAIP2 string `json:"caip2"`
	} `json:"data"`
}

type rpcError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// rejectionCodes are provider error codes meaning the wallet declined to sign.
var rejectionCodes = map[string]bool{
	"transaction_rejected": true,
	"policy_violation":     true,
	"user_rejected":        true,
}

// NewCustodySigner creates a CustodySigner.
func NewCustodySigner(opts CustodyOptions) *CustodySigner {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	caip2 := opts.CAIP2
	if caip2 == "" {
		caip2 = MainnetCAIP2
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetBasicAuth(opts.AppID, opts.AppSecret).
		SetHeader("privy-app-id", opts.AppID).
		SetHeader("Content-Type", "application/json")

	return &CustodySigner{
		client:   client,
		walletID: opts.WalletID,
		address:  opts.Address,
		caip2:    caip2,
	}
}

// Address returns the wallet address that pays for and signs the launch.
func (s *CustodySigner) Address() string {
	return s.address
}

// SignAndSubmit signs raw with the delegated wallet and broadcasts it.
// A refusal wraps launch.ErrSigningRejected; anything else wraps launch.ErrSubmission.
func (s *CustodySigner) SignAndSubmit(ctx context.Context, raw []byte) (domain.SubmittedSignature, error) {
	var (
		out    rpcResponse
		failed rpcError
	)
	res, err := s.client.R().
		SetContext(ctx).
		SetPathParam("wallet", s.walletID).
		SetBody(rpcRequest{
			Method: "signAndSendTransaction",
			CAIP2:  s.caip2,
			Params: rpcParams{
				Transaction: base64.StdEncoding.EncodeToString(raw),
				Encoding:    "base64",
			},
		}).
		SetResult(&out).
		SetError(&failed).
		Post("/v1/wallets/{wallet}/rpc")
	if err != nil {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: wallet rpc: %w", launch.ErrSubmission, err)
	}

	if res.IsError() {
		reason := failed.Error
		if reason == "" {
			reason = strings.TrimSpace(string(res.Body()))
		}
		if res.StatusCode() == http.StatusForbidden || rejectionCodes[failed.Code] {
			return domain.SubmittedSignature{}, fmt.Errorf("%w: %s", launch.ErrSigningRejected, reason)
		}
		return domain.SubmittedSignature{}, fmt.Errorf("%w: wallet rpc status %d: %s",
			launch.ErrSubmission, res.StatusCode(), reason)
	}

	if out.Data.Hash == "" {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: wallet returned no signature", launch.ErrSubmission)
	}
	return domain.SubmittedSignature{Text: out.Data.Hash}, nil
}
