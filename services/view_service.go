package services

import (
	"sort"
	"strings"

	"github.com/gmpdesk/gmp-dashboard/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField names a sortable dashboard column. Values match the feed's
// wire names so the UI can pass column keys straight through.
type SortField string

const (
	SortByName       SortField = "name"
	SortByPrice      SortField = "price"
	SortByGMP        SortField = "gmp"
	SortByEstListing SortField = "est_listing"
	SortBySize       SortField = "ipo_size"
	SortByLot        SortField = "lot"
	SortByOpen       SortField = "open"
	SortByClose      SortField = "close"
	SortByAllotment  SortField = "boa_dt"
	SortByListing    SortField = "listing"
	SortByUpdated    SortField = "gmp_updated"
)

// SortDirection is the ±1 multiplier applied to comparison results.
type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// ParseSortField maps a query-string value onto a sortable column.
func ParseSortField(value string) (SortField, bool) {
	field := SortField(strings.ToLower(strings.TrimSpace(value)))
	switch field {
	case SortByName, SortByPrice, SortByGMP, SortByEstListing, SortBySize,
		SortByLot, SortByOpen, SortByClose, SortByAllotment, SortByListing,
		SortByUpdated:
		return field, true
	}
	return "", false
}

// ParseSortDirection reads "asc"/"desc", defaulting to ascending.
func ParseSortDirection(value string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(value), "desc") {
		return Descending
	}
	return Ascending
}

// ViewService turns cached records into what the table shows: filtered,
// sorted, display-formatted. Sort and Filter are pure; the cache entry
// they read from is never touched.
type ViewService struct {
	format *FormatService
}

// NewViewService creates a view builder on top of the formatter.
func NewViewService(format *FormatService) *ViewService {
	return &ViewService{format: format}
}

// Filter keeps records whose entity-decoded name contains the query,
// case-insensitively. An empty query keeps everything. Survivor order is
// the input order.
func (v *ViewService) Filter(records []models.GMPRecord, query string) []models.GMPRecord {
	out := make([]models.GMPRecord, 0, len(records))
	if query == "" {
		return append(out, records...)
	}
	needle := strings.ToLower(query)
	for _, record := range records {
		name := strings.ToLower(v.format.DecodeEntities(record.Name))
		if strings.Contains(name, needle) {
			out = append(out, record)
		}
	}
	return out
}

// Sort returns a new slice ordered by the field's comparison policy.
// Equal keys keep their incoming order; an unknown field returns the
// input order unchanged.
func (v *ViewService) Sort(records []models.GMPRecord, field SortField, direction SortDirection) []models.GMPRecord {
	out := make([]models.GMPRecord, len(records))
	copy(out, records)

	compare := v.comparatorFor(field)
	if compare == nil {
		return out
	}

	dir := int(direction)
	sort.SliceStable(out, func(i, j int) bool {
		return compare(&out[i], &out[j], dir) < 0
	})
	return out
}

// BuildRows renders records into display rows.
func (v *ViewService) BuildRows(records []models.GMPRecord) []models.ViewRow {
	rows := make([]models.ViewRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, models.ViewRow{
			Name:             v.format.DecodeEntities(record.Name),
			PriceDisplay:     v.format.FormatPrice(record.Price),
			GMP:              record.GMP,
			EstimatedListing: v.format.DecodeEntities(record.EstimatedListing),
			SizeDisplay:      v.format.FormatSize(record.Size),
			Lot:              record.Lot,
			OpenDate:         record.OpenDate,
			CloseDate:        record.CloseDate,
			AllotmentDate:    record.AllotmentDate,
			ListingDate:      record.ListingDate,
			GMPUpdated:       record.GMPUpdated,
			RowClass:         record.RowClass,
		})
	}
	return rows
}

type recordComparator func(a, b *models.GMPRecord, dir int) int

func (v *ViewService) comparatorFor(field SortField) recordComparator {
	switch field {
	case SortByPrice:
		return v.numericComparator(func(r *models.GMPRecord) string { return r.Price })
	case SortByLot:
		return v.numericComparator(func(r *models.GMPRecord) string { return r.Lot })
	case SortBySize:
		return v.numericComparator(func(r *models.GMPRecord) string { return r.Size })
	case SortByGMP:
		return v.gmpComparator()
	case SortByOpen:
		return v.dateComparator(func(r *models.GMPRecord) string { return r.OpenDate })
	case SortByClose:
		return v.dateComparator(func(r *models.GMPRecord) string { return r.CloseDate })
	case SortByAllotment:
		return v.dateComparator(func(r *models.GMPRecord) string { return r.AllotmentDate })
	case SortByListing:
		return v.dateComparator(func(r *models.GMPRecord) string { return r.ListingDate })
	case SortByUpdated:
		return v.dateComparator(func(r *models.GMPRecord) string { return r.GMPUpdated })
	case SortByName:
		return v.stringComparator(func(r *models.GMPRecord) string { return v.format.DecodeEntities(r.Name) })
	case SortByEstListing:
		return v.stringComparator(func(r *models.GMPRecord) string { return r.EstimatedListing })
	}
	return nil
}

func (v *ViewService) numericComparator(key func(*models.GMPRecord) string) recordComparator {
	return func(a, b *models.GMPRecord, dir int) int {
		return dir * compareFloats(v.format.ExtractNumeric(key(a)), v.format.ExtractNumeric(key(b)))
	}
}

func (v *ViewService) gmpComparator() recordComparator {
	return func(a, b *models.GMPRecord, dir int) int {
		return dir * compareFloats(v.gmpValue(a.GMP), v.gmpValue(b.GMP))
	}
}

// gmpValue maps the "-" placeholder to zero before numeric extraction,
// so missing premiums sort between losses and gains.
func (v *ViewService) gmpValue(raw string) float64 {
	if v.format.IsPlaceholder(raw) {
		return 0
	}
	return v.format.ExtractNumeric(raw)
}

// dateComparator pushes records without a parseable date to the end no
// matter which direction is requested; only real dates flip with dir.
func (v *ViewService) dateComparator(key func(*models.GMPRecord) string) recordComparator {
	return func(a, b *models.GMPRecord, dir int) int {
		at := v.format.ParseFeedDate(key(a))
		bt := v.format.ParseFeedDate(key(b))
		switch {
		case at == nil && bt == nil:
			return 0
		case at == nil:
			return 1
		case bt == nil:
			return -1
		case at.Equal(*bt):
			return 0
		case at.Before(*bt):
			return -dir
		default:
			return dir
		}
	}
}

// Collators keep internal buffers and are not safe for concurrent use,
// so every sort builds its own.
func (v *ViewService) stringComparator(key func(*models.GMPRecord) string) recordComparator {
	collator := collate.New(language.English)
	return func(a, b *models.GMPRecord, dir int) int {
		return dir * collator.CompareString(key(a), key(b))
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
