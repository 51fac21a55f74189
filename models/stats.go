package models

import (
	"encoding/json"
	"math"
)

// MarketStats are the headline numbers shown above the GMP table.
// AverageGMP is NaN when no record carried a usable GMP quote.
type MarketStats struct {
	ActiveCount   int     `json:"active_count"`
	UpcomingCount int     `json:"upcoming_count"`
	TotalCount    int     `json:"total_count"`
	AverageGMP    float64 `json:"average_gmp"`
}

// MarshalJSON emits average_gmp as null in the NaN case, which JSON has
// no encoding for. Clients read null as "no data".
func (s MarketStats) MarshalJSON() ([]byte, error) {
	out := struct {
		ActiveCount   int      `json:"active_count"`
		UpcomingCount int      `json:"upcoming_count"`
		TotalCount    int      `json:"total_count"`
		AverageGMP    *float64 `json:"average_gmp"`
	}{
		ActiveCount:   s.ActiveCount,
		UpcomingCount: s.UpcomingCount,
		TotalCount:    s.TotalCount,
	}
	if !math.IsNaN(s.AverageGMP) {
		out.AverageGMP = &s.AverageGMP
	}
	return json.Marshal(out)
}
