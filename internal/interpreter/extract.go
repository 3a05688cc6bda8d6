package interpreter

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	thousandsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)k`)
	numberPattern    = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

	numericTokenPattern = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?k?\b`)
	stopWordPattern     = regexp.MustCompile(`(?i)\b(?:rs|rupees|for|on|in|at|` +
		`day after tomorrow|day after|next week|next month|` +
		`today|tdy|yesterday|ystd|tomorrow|tmrw)\b`)
	apostrophePattern  = regexp.MustCompile(`['’]`)
	punctuationPattern = regexp.MustCompile(`[\p{P}\p{Sc}]+`)
)

var thousand = decimal.NewFromInt(1000)

// extractAmount returns the first "<n>k" value times 1000, else the first
// standalone number, else 0. lower must be lower-cased. Values too large for
// a float64 count as no amount.
func extractAmount(lower string) float64 {
	if m := thousandsPattern.FindStringSubmatch(lower); m != nil {
		if d, err := decimal.NewFromString(m[1]); err == nil {
			return finite(d.Mul(thousand).InexactFloat64())
		}
	}
	if m := numberPattern.FindString(lower); m != "" {
		if d, err := decimal.NewFromString(m); err == nil {
			return finite(d.InexactFloat64())
		}
	}
	return 0
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

type dateMarker struct {
	phrases []string
	days    int
}

// dateMarkers are checked in order; the first marker found in the text wins.
// "day after tomorrow" sits ahead of "tomorrow" so the full phrase is not
// read as plain tomorrow.
var dateMarkers = []dateMarker{
	{phrases: []string{"today", "tdy"}, days: 0},
	{phrases: []string{"yesterday", "ystd"}, days: -1},
	{phrases: []string{"day after tomorrow"}, days: 2},
	{phrases: []string{"tomorrow", "tmrw"}, days: 1},
	{phrases: []string{"day after"}, days: 2},
	{phrases: []string{"next week"}, days: 7},
	{phrases: []string{"next month"}, days: 30},
}

// resolveDate applies the first relative-date marker in lower to now.
func resolveDate(lower string, now time.Time) string {
	for _, marker := range dateMarkers {
		for _, phrase := range marker.phrases {
			if strings.Contains(lower, phrase) {
				return now.AddDate(0, 0, marker.days).Format(domain.DateLayout)
			}
		}
	}
	return now.Format(domain.DateLayout)
}

// cleanNote strips amounts, stop words, date markers, symbols and emoji from
// the original text and title-cases what is left. An empty result becomes
// the category name.
func cleanNote(text string, category domain.Category) string {
	note := numericTokenPattern.ReplaceAllString(text, " ")
	note = stopWordPattern.ReplaceAllString(note, " ")
	note = gomoji.RemoveEmojis(note)
	note = apostrophePattern.ReplaceAllString(note, "")
	note = punctuationPattern.ReplaceAllString(note, " ")
	note = strings.Join(strings.Fields(note), " ")

	if note == "" {
		return string(category)
	}
	// Casers keep state; one per call keeps Interpret safe for concurrent use.
	return cases.Title(language.English).String(note)
}
