package services

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseFeedDateDayMonth(t *testing.T) {
	svc := NewFormatService()
	year := time.Now().In(istLocation).Year()

	parsed := svc.ParseFeedDate("23-Dec")
	if parsed == nil {
		t.Fatal("expected 23-Dec to parse")
	}
	want := time.Date(year, time.December, 23, 0, 0, 0, 0, istLocation)
	if !parsed.Equal(want) {
		t.Errorf("got %v, want %v", parsed, want)
	}
}

func TestParseFeedDateDayMonthTime(t *testing.T) {
	svc := NewFormatService()
	year := time.Now().In(istLocation).Year()

	parsed := svc.ParseFeedDate("18-Dec 16:01")
	if parsed == nil {
		t.Fatal("expected 18-Dec 16:01 to parse")
	}
	want := time.Date(year, time.December, 18, 16, 1, 0, 0, istLocation)
	if !parsed.Equal(want) {
		t.Errorf("got %v, want %v", parsed, want)
	}
}

func TestParseFeedDateAcceptsPaddedDay(t *testing.T) {
	svc := NewFormatService()

	parsed := svc.ParseFeedDate("07-Jan")
	if parsed == nil {
		t.Fatal("expected 07-Jan to parse")
	}
	if parsed.Day() != 7 || parsed.Month() != time.January {
		t.Errorf("got %v, want January 7", parsed)
	}
}

func TestParseFeedDateTrimsWhitespace(t *testing.T) {
	svc := NewFormatService()

	if svc.ParseFeedDate("  9-Aug  ") == nil {
		t.Error("expected surrounding whitespace to be ignored")
	}
}

func TestParseFeedDateUnreadableInputs(t *testing.T) {
	svc := NewFormatService()

	for _, input := range []string{"", "-", "--", "—", "N/A", "null", "soon", "32-Dec", "23-Foo", "2024-12-23", "16:01"} {
		if parsed := svc.ParseFeedDate(input); parsed != nil {
			t.Errorf("ParseFeedDate(%q) = %v, want nil", input, parsed)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	svc := NewFormatService()

	cases := []struct {
		input string
		want  string
	}{
		{"456", "₹456"},
		{"₹456", "₹456"},
		{"1234.5", "₹1,235"},
		{"12345678", "₹1,23,45,678"},
		{"145-155", "₹145"},
		{"--", "-"},
		{"-", "-"},
		{"", "-"},
		{"TBA", "-"},
	}
	for _, tc := range cases {
		if got := svc.FormatPrice(tc.input); got != tc.want {
			t.Errorf("FormatPrice(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	svc := NewFormatService()

	cases := []struct {
		input string
		want  string
	}{
		{"3,027.26 Cr", "₹3,027 Cr"},
		{"495.00 Cr", "₹495 Cr"},
		{"12000 Cr", "₹12,000 Cr"},
		{"1,500&nbsp;Cr", "₹1,500 Cr"},
		{"TBA", "TBA"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := svc.FormatSize(tc.input); got != tc.want {
			t.Errorf("FormatSize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDecodeEntities(t *testing.T) {
	svc := NewFormatService()

	cases := []struct {
		input string
		want  string
	}{
		{"R&amp;D Systems", "R&D Systems"},
		{"Tata&nbsp;Tech", "Tata Tech"},
		{"A &lt; B", "A < B"},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := svc.DecodeEntities(tc.input); got != tc.want {
			t.Errorf("DecodeEntities(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestExtractNumeric(t *testing.T) {
	svc := NewFormatService()

	cases := []struct {
		input string
		want  float64
	}{
		{"₹570", 570},
		{"-45", -45},
		{"1,234.56", 1234.56},
		{"5.5%", 5.5},
		{"145-155", 145},
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := svc.ExtractNumeric(tc.input); got != tc.want {
			t.Errorf("ExtractNumeric(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestIndianGrouping(t *testing.T) {
	cases := []struct {
		input float64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "1,23,456"},
		{12345678, "1,23,45,678"},
		{-1234567, "-12,34,567"},
	}
	for _, tc := range cases {
		if got := formatIndianGrouping(tc.input); got != tc.want {
			t.Errorf("formatIndianGrouping(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatterProperties(t *testing.T) {
	svc := NewFormatService()
	properties := gopter.NewProperties(nil)

	properties.Property("decoding entity-free text is the identity", prop.ForAll(
		func(text string) bool {
			return svc.DecodeEntities(text) == text
		},
		gen.AlphaString(),
	))

	properties.Property("price output is the placeholder or rupee-prefixed", prop.ForAll(
		func(text string) bool {
			got := svc.FormatPrice(text)
			return got == "-" || strings.HasPrefix(got, "₹")
		},
		gen.OneConstOf("456", "₹456", "1234.5", "145-155", "--", "", "TBA", "0.99", "-12"),
	))

	properties.Property("date parsing resolves to the current year or nothing", prop.ForAll(
		func(text string) bool {
			parsed := svc.ParseFeedDate(text)
			if parsed == nil {
				return true
			}
			return parsed.Year() == time.Now().In(istLocation).Year()
		},
		gen.OneConstOf("23-Dec", "1-Jan", "07-Jan", "18-Dec 16:01", "31-Mar 09:30", "--", "soon", ""),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
