package storage

import (
	"sort"

	"token-launchpad/internal/domain"
)

// SortRecords orders records in place the way ListActive returns them.
// Backends without a query planner use it to match the SQL ordering.
func SortRecords(records []*domain.LaunchRecord, order domain.ListingSort) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch order {
		case domain.SortByMarketCap:
			if a.MarketCap != b.MarketCap {
				return a.MarketCap > b.MarketCap
			}
		default:
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		}
		return a.Address < b.Address
	})
}

// NormalizeLimit clamps a listing limit to (0, DefaultListingLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > domain.DefaultListingLimit {
		return domain.DefaultListingLimit
	}
	return limit
}
