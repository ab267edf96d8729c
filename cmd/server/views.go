package main

import (
	"errors"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
)

// recordView is the JSON shape of a launch record.
type recordView struct {
	Address          string   `json:"address"`
	Name             string   `json:"name"`
	Ticker           string   `json:"ticker"`
	Description      string   `json:"description"`
	Twitter          string   `json:"twitter,omitempty"`
	Website          string   `json:"website,omitempty"`
	Telegram         string   `json:"telegram,omitempty"`
	ImageURI         string   `json:"imageUri"`
	MetadataURI      string   `json:"metadataUri"`
	Creator          string   `json:"creator"`
	InitialLiquidity *string  `json:"initialLiquidity,omitempty"`
	Category         string   `json:"category"`
	Verified         bool     `json:"verified"`
	Status           string   `json:"status"`
	MarketCap        float64  `json:"marketCap"`
	Holders          int64    `json:"holders"`
	Volume24h        float64  `json:"volume24h"`
	PriceChange24h   float64  `json:"priceChange24h"`
	Signatures       []string `json:"signatures"`
	CreatedAt        int64    `json:"createdAt"`
}

func newRecordView(r *domain.LaunchRecord) *recordView {
	if r == nil {
		return nil
	}
	v := &recordView{
		Address:        r.Address,
		Name:           r.Name,
		Ticker:         r.Ticker,
		Description:    r.Description,
		Twitter:        r.Links.X,
		Website:        r.Links.Website,
		Telegram:       r.Links.Telegram,
		ImageURI:       r.ImageURI,
		MetadataURI:    r.MetadataURI,
		Creator:        r.Creator,
		Category:       r.Category,
		Verified:       r.Verified,
		Status:         string(r.Status),
		MarketCap:      r.MarketCap,
		Holders:        r.Holders,
		Volume24h:      r.Volume24h,
		PriceChange24h: r.PriceChange24h,
		Signatures:     r.Signatures,
		CreatedAt:      r.CreatedAt,
	}
	if r.InitialLiquidity != nil {
		s := r.InitialLiquidity.String()
		v.InitialLiquidity = &s
	}
	return v
}

func newRecordViews(records []*domain.LaunchRecord) []*recordView {
	out := make([]*recordView, 0, len(records))
	for _, r := range records {
		out = append(out, newRecordView(r))
	}
	return out
}

// failureView is the JSON shape of a failed attempt.
type failureView struct {
	Stage        launch.Stage `json:"stage"`
	Kind         string       `json:"kind"`
	Index        int          `json:"index"`
	Confirmed    int          `json:"confirmed"`
	Total        int          `json:"total"`
	Signatures   []string     `json:"signatures,omitempty"`
	TokenAddress string       `json:"tokenAddress,omitempty"`
	Orphaned     bool         `json:"orphaned"`
	OnChainState bool         `json:"onChainState"`
	Message      string       `json:"message"`
	Error        string       `json:"error"`
}

// errorKinds maps each pipeline sentinel to its wire name.
var errorKinds = []struct {
	err  error
	kind string
}{
	{launch.ErrCancelled, "cancelled"},
	{launch.ErrValidation, "validation"},
	{launch.ErrAssetUpload, "asset_upload"},
	{launch.ErrPoolCreation, "pool_creation"},
	{launch.ErrSigningRejected, "signing_rejected"},
	{launch.ErrSubmission, "submission"},
	{launch.ErrConfirmationTimeout, "confirmation_timeout"},
	{launch.ErrConfirmationFailed, "confirmation_failed"},
	{launch.ErrPersistence, "persistence"},
}

func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

func newFailureView(err error) *failureView {
	f, ok := launch.AsFailure(err)
	if !ok {
		return &failureView{Kind: errorKind(err), Index: -1, Message: err.Error(), Error: err.Error()}
	}
	return &failureView{
		Stage:        f.Stage,
		Kind:         errorKind(f.Reason),
		Index:        f.Index,
		Confirmed:    f.Confirmed,
		Total:        f.Total,
		Signatures:   f.Signatures,
		TokenAddress: f.TokenAddress,
		Orphaned:     f.Orphaned(),
		OnChainState: f.OnChainStateMayExist(),
		Message:      f.UserMessage(),
		Error:        f.Error(),
	}
}
