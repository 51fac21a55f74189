package services

import (
	"math"
	"time"

	"github.com/gmpdesk/gmp-dashboard/models"
)

// StatsService derives the headline numbers from a record slice.
type StatsService struct {
	format *FormatService
}

// NewStatsService creates an aggregator on top of the formatter's
// parsing policies.
func NewStatsService(format *FormatService) *StatsService {
	return &StatsService{format: format}
}

// Compute classifies records against now and averages the quoted GMPs.
//
// A record is active when its open date parses strictly in the future
// and no listing date is set; upcoming when the open date is missing,
// unreadable or in the future. AverageGMP is the mean over records whose
// gmp is not a placeholder — an unreadable quote still counts as zero —
// and NaN when no record qualifies (serialized as null by the model).
func (s *StatsService) Compute(records []models.GMPRecord, now time.Time) models.MarketStats {
	stats := models.MarketStats{
		TotalCount: len(records),
		AverageGMP: math.NaN(),
	}

	var sum float64
	var quoted int

	for _, record := range records {
		openAt := s.format.ParseFeedDate(record.OpenDate)
		openInFuture := openAt != nil && openAt.After(now)

		if openInFuture && record.ListingDate == "" {
			stats.ActiveCount++
		}
		if openAt == nil || openInFuture {
			stats.UpcomingCount++
		}
		if !s.format.IsPlaceholder(record.GMP) {
			sum += s.format.ExtractNumeric(record.GMP)
			quoted++
		}
	}

	if quoted > 0 {
		stats.AverageGMP = sum / float64(quoted)
	}
	return stats
}
