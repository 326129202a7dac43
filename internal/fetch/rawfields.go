package fetch

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// RawFields carries the fields cheaply scraped from a page before the external
// structured-extraction call. They cross-check and backfill that call's output.
type RawFields struct {
	Title        string
	AmountMin    float64
	AmountMax    float64
	Currency     string
	Deadline     *time.Time
	OpenDeadline bool
	ContactEmail string
	ContactPhone string
}

var (
	// Matches "€ 500.000", "EUR 10.000", "50.000,- Euro" with European
	// thousand separators.
	amountRe = regexp.MustCompile(`(?i)(?:€|eur(?:o)?\s?)\s*([0-9][0-9.,]*[0-9]|[0-9])|([0-9][0-9.,]*[0-9]|[0-9])\s*(?:,-)?\s*(?:€|euro?\b)`)

	// "bis zu", "maximal", "up to" mark an upper bound rather than a range.
	upperBoundRe = regexp.MustCompile(`(?i)(bis zu|maximal|max\.|up to|höchstens)\s*(?:€|eur(?:o)?)?\s*([0-9][0-9.,]*[0-9])`)

	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+|00)[0-9][0-9 /().\-]{7,18}[0-9]`)

	dateDottedRe = regexp.MustCompile(`\b([0-3]?[0-9])\.([01]?[0-9])\.(20[0-9]{2})\b`)
	dateISORe    = regexp.MustCompile(`\b(20[0-9]{2})-([01][0-9])-([0-3][0-9])\b`)
)

// openDeadlineMarkers flag programs with rolling submission windows.
var openDeadlineMarkers = []string{
	"laufend", "laufende einreichung", "jederzeit",
	"rolling", "open deadline", "ongoing", "no deadline",
	"keine frist", "offene ausschreibung",
}

// ExtractRawFields scrapes title, funding amounts, deadline and contact fields
// from raw HTML. All fields are best effort; zero values mean "not found".
func ExtractRawFields(html string) RawFields {
	var fields RawFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fields
	}

	fields.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if fields.Title == "" {
		fields.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Text()

	fields.AmountMin, fields.AmountMax, fields.Currency = extractAmountRange(text)
	fields.Deadline, fields.OpenDeadline = extractDeadline(text)

	if m := emailRe.FindString(text); m != "" {
		fields.ContactEmail = m
	}
	if m := phoneRe.FindString(text); m != "" {
		fields.ContactPhone = strings.TrimSpace(m)
	}

	return fields
}

// extractAmountRange finds euro amounts in text. A single amount behind an
// upper-bound marker becomes the max; two or more amounts become a min/max
// range.
func extractAmountRange(text string) (min, max float64, currency string) {
	if m := upperBoundRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseEuroAmount(m[2]); ok {
			return 0, v, "EUR"
		}
	}

	var amounts []float64
	for _, m := range amountRe.FindAllStringSubmatch(text, 10) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, ok := parseEuroAmount(raw); ok {
			amounts = append(amounts, v)
		}
	}

	switch len(amounts) {
	case 0:
		return 0, 0, ""
	case 1:
		return 0, amounts[0], "EUR"
	}

	min, max = amounts[0], amounts[0]
	for _, v := range amounts[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, "EUR"
}

// parseEuroAmount parses European-formatted numbers: dots as thousand
// separators, an optional comma as decimal separator.
func parseEuroAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	// "1.500.000" -> "1500000", "2.500,50" -> "2500.50"
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	// Single digits are almost never funding amounts; they come from
	// footnotes and percentages.
	if v < 100 {
		return 0, false
	}
	return v, true
}

// extractDeadline finds a specific date or a rolling-deadline marker.
func extractDeadline(text string) (*time.Time, bool) {
	lower := strings.ToLower(text)
	for _, marker := range openDeadlineMarkers {
		if strings.Contains(lower, marker) {
			return nil, true
		}
	}

	if m := dateDottedRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day); ok {
			return &d, false
		}
	}
	if m := dateISORe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day); ok {
			return &d, false
		}
	}

	return nil, false
}

func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
