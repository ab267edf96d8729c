package domain

import "github.com/shopspring/decimal"

// RecordStatus is the lifecycle status of a launch record.
type RecordStatus string

const (
	RecordStatusActive RecordStatus = "active"
)

// CategoryMeme is the category assigned to tokens launched through the pipeline.
const CategoryMeme = "meme"

// LaunchRecord is the durable listing of a launched token.
// Corresponds to launch_records table in PostgreSQL.
type LaunchRecord struct {
	Address          string           // PRIMARY KEY, on-chain token address
	Name             string           // token name
	Ticker           string           // token symbol
	Description      string           // short description
	Links            Links            // optional social links
	ImageURI         string           // uploaded image
	MetadataURI      string           // uploaded metadata document
	Creator          string           // creator wallet address
	InitialLiquidity *decimal.Decimal // initial buy in SOL (nullable)
	Category         string           // "meme"
	Verified         bool             // always false at launch
	Status           RecordStatus     // "active"
	Signatures       []string         // confirmed launch signatures, in order
	MarketCap        float64          // owned by market data collaborators
	Holders          int64            // owned by market data collaborators
	Volume24h        float64          // owned by market data collaborators
	PriceChange24h   float64          // owned by market data collaborators
	CreatedAt        int64            // record creation timestamp (ms)
}

// ListingSort selects the ordering of active listings.
type ListingSort string

const (
	SortByMarketCap ListingSort = "marketCap"
	SortByNewest    ListingSort = "new"
)

// IsValid checks if the sort is a known value.
func (s ListingSort) IsValid() bool {
	return s == SortByMarketCap || s == SortByNewest
}

// DefaultListingLimit caps listing queries.
const DefaultListingLimit = 50

// Clone returns a deep copy of the record.
func (r *LaunchRecord) Clone() *LaunchRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Signatures != nil {
		c.Signatures = append([]string(nil), r.Signatures...)
	}
	if r.InitialLiquidity != nil {
		d := *r.InitialLiquidity
		c.InitialLiquidity = &d
	}
	return &c
}
