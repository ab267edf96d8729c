package domain

import (
	"github.com/shopspring/decimal"
)

// Field limits enforced on every launch request.
const (
	MaxNameLength        = 32
	MaxTickerLength      = 10
	MaxDescriptionLength = 100
)

// Initial liquidity bounds in SOL.
var (
	MinInitialLiquidity = decimal.RequireFromString("0.1")
	MaxInitialLiquidity = decimal.RequireFromString("5")
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Links holds the optional social links of a token.
type Links struct {
	X        string `json:"x,omitempty"`        // profile link
	Website  string `json:"website,omitempty"`  // project site
	Telegram string `json:"telegram,omitempty"` // chat link
}

// Image is the raw token image asset.
type Image struct {
	Data        []byte
	ContentType string // e.g. image/png
}

// LaunchRequest holds the user supplied parameters of one token launch.
// It is treated as immutable once handed to the pipeline.
type LaunchRequest struct {
	Name             string
	Ticker           string
	Description      string
	Links            Links
	InitialLiquidity *decimal.Decimal // SOL, nil means no initial buy
	Image            Image
}

// HasInitialLiquidity reports whether an initial buy amount was supplied.
func (r *LaunchRequest) HasInitialLiquidity() bool {
	return r.InitialLiquidity != nil
}

// InitialLiquidityLamports converts the initial buy amount to lamports.
// Returns 0 when no amount is set.
func (r *LaunchRequest) InitialLiquidityLamports() uint64 {
	if r.InitialLiquidity == nil {
		return 0
	}
	return uint64(r.InitialLiquidity.Shift(9).Truncate(0).IntPart())
}

// TokenIdentity is the freshly generated keypair of a new mint.
// The public half is the token address; the secret is used once to co-sign
// the mint creation transaction and must be wiped when the launch ends.
type TokenIdentity struct {
	Address string // base58 public key
	secret  []byte // 64 byte ed25519 private key
}

// NewTokenIdentity wraps a generated keypair. The secret slice is owned by
// the identity from here on.
func NewTokenIdentity(address string, secret []byte) *TokenIdentity {
	return &TokenIdentity{Address: address, secret: secret}
}

// Secret returns the private key, or nil once wiped.
func (t *TokenIdentity) Secret() []byte {
	if t == nil || len(t.secret) == 0 {
		return nil
	}
	return t.secret
}

// Wiped reports whether the private key has been discarded.
func (t *TokenIdentity) Wiped() bool {
	return t == nil || len(t.secret) == 0
}

// Wipe zeroes and drops the private key. Safe to call more than once.
func (t *TokenIdentity) Wipe() {
	if t == nil {
		return
	}
	for i := range t.secret {
		t.secret[i] = 0
	}
	t.secret = nil
}

// MetadataReference points at the uploaded off-chain token assets.
type MetadataReference struct {
	ImageURI    string
	MetadataURI string
}
