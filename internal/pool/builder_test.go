package pool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/solana/stub"
)

type fakeService struct {
	resp  *Response
	err   error
	calls int
	last  *Request
}

func (f *fakeService) CreatePool(_ context.Context, req *Request) (*Response, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type fixture struct {
	identity *domain.TokenIdentity
	metadata *domain.MetadataReference
	request  *domain.LaunchRequest
	payer    string
	txs      [][]byte
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mint, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	payer, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	liq := decimal.RequireFromString("1.5")
	return fixture{
		identity: domain.NewTokenIdentity(mint.PublicKey().String(), []byte(mint)),
		metadata: &domain.MetadataReference{ImageURI: "https://a/img", MetadataURI: "https://a/meta.json"},
		request:  &domain.LaunchRequest{Name: "Agent", Ticker: "AGNT", Description: "agent token", InitialLiquidity: &liq},
		payer:    payer.PublicKey().String(),
		txs: [][]byte{
			stub.MustUnsignedTransaction(payer.PublicKey(), 1, mint.PublicKey()),
			stub.MustUnsignedTransaction(payer.PublicKey(), 2),
		},
	}
}

func encode(txs ...[]byte) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = base64.StdEncoding.EncodeToString(tx)
	}
	return out
}

func newBuilder(svc Service) *Builder {
	logger, _ := test.NewNullLogger()
	return NewBuilder(svc, logger)
}

func TestBuild_PreservesOrderAndDropsEmpty(t *testing.T) {
	f := newFixture(t)
	svc := &fakeService{resp: &Response{
		Success:         true,
		Transactions:    append([]string{""}, encode(f.txs[0], f.txs[1])...),
		ContractAddress: f.identity.Address,
	}}

	batch, err := newBuilder(svc).Build(context.Background(), f.identity, f.metadata, f.request, f.payer)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, f.txs[0], batch.Transactions[0])
	assert.Equal(t, f.txs[1], batch.Transactions[1])
	assert.Equal(t, f.identity.Address, batch.TokenAddress)

	require.NotNil(t, svc.last)
	assert.Equal(t, f.identity.Address, svc.last.BaseMint)
	assert.Equal(t, "https://a/meta.json", svc.last.URI)
	assert.Equal(t, "Agent", svc.last.Name)
	assert.Equal(t, "agent token", svc.last.Description)
	assert.Equal(t, uint64(1_500_000_000), svc.last.InitialBuyLamports)
	assert.Equal(t, f.payer, svc.last.Payer)
}

func TestBuild_Failures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		svc  *fakeService
	}{
		{"service error", &fakeService{err: errors.New("connection reset")}},
		{"success false", &fakeService{resp: &Response{Success: false, Error: "insufficient funds"}}},
		{"empty batch", &fakeService{resp: &Response{Success: true, Transactions: []string{"", ""}, ContractAddress: f.identity.Address}}},
		{"bad base64", &fakeService{resp: &Response{Success: true, Transactions: []string{"***"}, ContractAddress: f.identity.Address}}},
		{"not a transaction", &fakeService{resp: &Response{
			Success: true, Transactions: []string{base64.StdEncoding.EncodeToString([]byte{0xff})}, ContractAddress: f.identity.Address,
		}}},
		{"bad address", &fakeService{resp: &Response{Success: true, Transactions: encode(f.txs[0]), ContractAddress: "nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := newBuilder(tt.svc).Build(context.Background(), f.identity, f.metadata, f.request, f.payer)
			assert.ErrorIs(t, err, launch.ErrPoolCreation)
			assert.Nil(t, batch)
			assert.Equal(t, 1, tt.svc.calls, "pool service is called exactly once")
		})
	}
}

func TestBuild_InvalidPayerSkipsService(t *testing.T) {
	f := newFixture(t)
	svc := &fakeService{}

	_, err := newBuilder(svc).Build(context.Background(), f.identity, f.metadata, f.request, "not-base58-0OIl")
	assert.ErrorIs(t, err, launch.ErrPoolCreation)
	assert.Zero(t, svc.calls)
}

func TestHTTPService_CreatePool(t *testing.T) {
	f := newFixture(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/pools" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "key" {
			t.Errorf("missing api key")
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Symbol != "AGNT" {
			t.Errorf("unexpected symbol %q", req.Symbol)
		}
		if req.Description != "agent token" {
			t.Errorf("unexpected description %q", req.Description)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			Success:         true,
			Transactions:    encode(f.txs...),
			ContractAddress: f.identity.Address,
		})
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "key", time.Second)
	batch, err := newBuilder(svc).Build(context.Background(), f.identity, f.metadata, f.request, f.payer)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())
}

func TestHTTPService_NoRetryOnError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"curve config missing"}`))
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "", time.Second)
	_, err := svc.CreatePool(context.Background(), &Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curve config missing")
	assert.Equal(t, int32(1), calls.Load())
}
