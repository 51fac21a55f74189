package services

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// All feed dates are Indian market times published without an offset.
// Falls back to a fixed offset when the zone database is unavailable.
var istLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+30*60)
	}
	return loc
}()

var (
	numericTokenPattern = regexp.MustCompile(`-?\d+\.?\d*`)
	leadingSizePattern  = regexp.MustCompile(`^\d[\d,]*(?:\.\d+)?`)
	priceCleanPattern   = regexp.MustCompile(`[^0-9.\-]`)
	currencyCleaner     = strings.NewReplacer("₹", "", "$", "", "€", "", "£", "", ",", "", "%", "", " ", "")
)

// Feed date layouts, most specific first. The feed never sends a year.
var feedDateLayouts = []string{
	"2-Jan 15:04",
	"2-Jan",
}

// FormatService turns raw feed text into parsed and display values. All
// methods are pure string/time transformations.
type FormatService struct {
	location *time.Location
}

// NewFormatService creates a formatter bound to the dashboard timezone.
func NewFormatService() *FormatService {
	return &FormatService{location: istLocation}
}

// DecodeEntities resolves named and numeric HTML entities in feed text.
// Plain text passes through unchanged. This is a pure string transform;
// no markup is ever built or interpreted.
func (s *FormatService) DecodeEntities(value string) string {
	return html.UnescapeString(value)
}

// IsPlaceholder reports whether the feed sent a "no value" marker
// instead of data.
func (s *FormatService) IsPlaceholder(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "-", "--", "—", "n/a", "na", "null":
		return true
	}
	return false
}

// ExtractNumeric pulls the first numeric token out of feed text after
// stripping currency symbols, grouping commas and percent signs.
// Returns 0 when nothing numeric remains; band values like "145-155"
// yield the lower bound, matching how the table reads them.
func (s *FormatService) ExtractNumeric(value string) float64 {
	cleaned := currencyCleaner.Replace(strings.TrimSpace(value))
	match := numericTokenPattern.FindString(cleaned)
	if match == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ParseFeedDate reads the feed's day-month forms ("23-Dec",
// "18-Dec 16:01"). The feed omits the year, so the current year applies,
// and the time is taken as IST. Returns nil for anything unreadable;
// callers treat nil as "no date".
func (s *FormatService) ParseFeedDate(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if s.IsPlaceholder(trimmed) {
		return nil
	}

	year := time.Now().In(s.location).Year()
	for _, layout := range feedDateLayouts {
		parsed, err := time.ParseInLocation(layout, trimmed, s.location)
		if err != nil {
			continue
		}
		resolved := time.Date(year, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, s.location)
		return &resolved
	}
	return nil
}

// FormatPrice renders issue-price text as whole-rupee currency
// ("₹1,235"). The feed's "--" marker, empty input and unparseable text
// all render as the "-" placeholder.
func (s *FormatService) FormatPrice(value string) string {
	if s.IsPlaceholder(value) {
		return "-"
	}
	stripped := priceCleanPattern.ReplaceAllString(value, "")
	token := numericTokenPattern.FindString(stripped)
	if token == "" {
		return "-"
	}
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "-"
	}
	return "₹" + formatIndianGrouping(parsed)
}

// FormatSize renders issue-size text ("3,027.26 Cr", possibly entity
// encoded) as whole-rupee currency with the crore suffix ("₹3,027 Cr").
// Text that does not start with a number passes through decoded but
// otherwise untouched.
func (s *FormatService) FormatSize(value string) string {
	decoded := strings.TrimSpace(s.DecodeEntities(value))
	match := leadingSizePattern.FindString(decoded)
	if match == "" {
		return decoded
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return decoded
	}
	return "₹" + formatIndianGrouping(parsed) + " Cr"
}

// formatIndianGrouping renders a number in the Indian digit convention:
// the last three digits group together, then every pair ("1,23,45,678").
// Fractions round half away from zero; the table shows whole rupees.
func formatIndianGrouping(value float64) string {
	rounded := int64(math.Round(value))
	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	digits := strconv.FormatInt(rounded, 10)
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		digits = strings.Join(groups, ",") + "," + tail
	}

	if negative {
		return "-" + digits
	}
	return digits
}
