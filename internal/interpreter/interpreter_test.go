package interpreter

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestInterpreter() *Interpreter {
	return New(nil, zerolog.Nop())
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.ParsedTransaction
	}{
		{
			name: "salary credited",
			text: "salary credited 50000",
			want: domain.ParsedTransaction{Amount: 50000, Category: domain.CategorySalary, Note: "Salary Credited", Date: "2024-03-15", Type: domain.TypeIncome, Account: "wallet"},
		},
		{
			name: "misspelled food yesterday",
			text: "ricee 200 ystd",
			want: domain.ParsedTransaction{Amount: 200, Category: domain.CategoryFood, Note: "Ricee", Date: "2024-03-14", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "thousands suffix tomorrow",
			text: "2.5k for netflix tmrw",
			want: domain.ParsedTransaction{Amount: 2500, Category: domain.CategoryEntertainment, Note: "Netflix", Date: "2024-03-16", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "empty input",
			text: "",
			want: domain.ParsedTransaction{Amount: 0, Category: domain.CategoryOther, Note: "Other", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "whitespace only",
			text: "   ",
			want: domain.ParsedTransaction{Amount: 0, Category: domain.CategoryOther, Note: "Other", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "spending category beats salary word",
			text: "rice refund 200",
			want: domain.ParsedTransaction{Amount: 200, Category: domain.CategoryFood, Note: "Rice Refund", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "uppercase thousands suffix",
			text: "Got bonus 5K",
			want: domain.ParsedTransaction{Amount: 5000, Category: domain.CategorySalary, Note: "Got Bonus", Date: "2024-03-15", Type: domain.TypeIncome, Account: "wallet"},
		},
		{
			name: "decimal thousands are exact",
			text: "1.1k petrol",
			want: domain.ParsedTransaction{Amount: 1100, Category: domain.CategoryTransport, Note: "Petrol", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			// The full phrase is matched ahead of plain "tomorrow".
			name: "day after tomorrow",
			text: "movie day after tomorrow 300",
			want: domain.ParsedTransaction{Amount: 300, Category: domain.CategoryEntertainment, Note: "Movie", Date: "2024-03-17", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "next month",
			text: "gym next month 1500",
			want: domain.ParsedTransaction{Amount: 1500, Category: domain.CategoryHealth, Note: "Gym", Date: "2024-04-14", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "currency symbol and stop words",
			text: "₹450 at dmart today",
			want: domain.ParsedTransaction{Amount: 450, Category: domain.CategoryFood, Note: "Dmart", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "first number wins",
			text: "uber 2 trips 340",
			want: domain.ParsedTransaction{Amount: 2, Category: domain.CategoryTransport, Note: "Uber Trips", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "unlisted plural stays Other",
			text: "shoes next week 999",
			want: domain.ParsedTransaction{Amount: 999, Category: domain.CategoryOther, Note: "Shoes", Date: "2024-03-22", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "emoji removed from note",
			text: "🍕 pizza 300",
			want: domain.ParsedTransaction{Amount: 300, Category: domain.CategoryOther, Note: "Pizza", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
		{
			name: "only symbols",
			text: "!!! $$$",
			want: domain.ParsedTransaction{Amount: 0, Category: domain.CategoryOther, Note: "Other", Date: "2024-03-15", Type: domain.TypeExpense, Account: "wallet"},
		},
	}

	interp := newTestInterpreter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, interp.Interpret(tt.text, testNow))
		})
	}
}

func TestInterpret_WordBoundaries(t *testing.T) {
	interp := newTestInterpreter()

	tests := []struct {
		text string
		want domain.Category
	}{
		{"bike 500", domain.CategoryTransport},
		{"bikeshop 500", domain.CategoryOther},
		{"category 50", domain.CategoryOther},
		{"barber 150", domain.CategoryOther},
		{"grocery-run 700", domain.CategoryFood},
		{"fried rice 120", domain.CategoryFood},
		{"creditcard 900", domain.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, interp.Interpret(tt.text, testNow).Category)
		})
	}
}

func TestInterpret_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"ricee 200 ystd",
		"salary credited 50000",
		"refund from amazon 1200",
		"cashback on swiggy 40",
		"stipend received 8k",
		"uber 2 trips 340",
		"12.50.30 ... k k k",
		"∞ ☃ 🚗 ¥¥¥",
		"RS. 1,200 FOR PETROL TMRW",
		"kk 0k 00 0.0",
		"next week next month today",
		"profit from game 3.75k day after",
		"\t\n",
		strings.Repeat("9", 400) + " rice",
		strings.Repeat("9", 400) + "k rice",
	}

	datePattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	interp := newTestInterpreter()

	for _, text := range inputs {
		t.Run(text, func(t *testing.T) {
			got := interp.Interpret(text, testNow)

			assert.GreaterOrEqual(t, got.Amount, 0.0)
			assert.False(t, math.IsInf(got.Amount, 0) || math.IsNaN(got.Amount), "amount %v", got.Amount)
			_, err := json.Marshal(got)
			assert.NoError(t, err)
			assert.True(t, got.Category.Valid(), "category %q", got.Category)
			assert.True(t, got.Type.Valid(), "type %q", got.Type)
			assert.Regexp(t, datePattern, got.Date)
			assert.NotEmpty(t, got.Note)
			assert.Equal(t, domain.DefaultAccount, got.Account)
			if got.Category.IsSpending() {
				assert.Equal(t, domain.TypeExpense, got.Type)
			}

			assert.Equal(t, got, interp.Interpret(text, testNow), "not idempotent")
		})
	}
}

func TestInterpret_AmountTooLargeForFloat(t *testing.T) {
	interp := newTestInterpreter()

	for _, text := range []string{
		strings.Repeat("9", 400) + " rice",
		"rice " + strings.Repeat("1", 320) + "k",
	} {
		got := interp.Interpret(text, testNow)
		assert.Zero(t, got.Amount)
		assert.Equal(t, "Rice", got.Note)
	}
}

func TestInterpret_SpendingCategoriesNeverIncome(t *testing.T) {
	interp := newTestInterpreter()

	for _, cat := range []domain.Category{
		domain.CategoryFood,
		domain.CategoryTransport,
		domain.CategoryHealth,
		domain.CategoryEntertainment,
		domain.CategoryShopping,
	} {
		for _, word := range interp.Keywords().Words(cat) {
			text := word + " salary credited 100"
			got := interp.Interpret(text, testNow)
			assert.Equal(t, cat, got.Category, text)
			assert.Equal(t, domain.TypeExpense, got.Type, text)
		}
	}
}

func TestInterpret_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 23:00 UTC on the 14th is already the 15th in IST.
	now := time.Date(2024, 3, 14, 23, 0, 0, 0, time.UTC).In(loc)

	got := newTestInterpreter().Interpret("tea 20", now)
	assert.Equal(t, "2024-03-15", got.Date)
}

func TestInterpret_Concurrent(t *testing.T) {
	interp := newTestInterpreter()
	want := interp.Interpret("2.5k for netflix tmrw", testNow)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, interp.Interpret("2.5k for netflix tmrw", testNow))
		}()
	}
	wg.Wait()
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"200", 200},
		{"2.5k", 2500},
		{"0.1k", 100},
		{"spent 12.75 on tea", 12.75},
		{"10 then 3k", 3000},
		{"no numbers", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAmount(tt.input))
		})
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"lunch", "2024-03-15"},
		{"lunch today", "2024-03-15"},
		{"lunch tdy", "2024-03-15"},
		{"lunch yesterday", "2024-03-14"},
		{"lunch tomorrow", "2024-03-16"},
		{"lunch day after", "2024-03-17"},
		{"lunch next week", "2024-03-22"},
		{"today or yesterday", "2024-03-15"},
		{"yesterday or tomorrow", "2024-03-14"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveDate(tt.input, testNow))
		})
	}
}

func TestKeywordTable_EveryWordClassifiesToItsCategory(t *testing.T) {
	table := DefaultKeywords()
	require.Equal(t, 1, table.Version())

	for _, cat := range classificationOrder {
		words := table.Words(cat)
		require.NotEmpty(t, words, cat)
		for _, w := range words {
			assert.Equal(t, cat, table.Classify(w), "word %q", w)
			assert.True(t, table.Matches(cat, "paid "+w+" today"), "word %q", w)
		}
	}
}

func TestKeywordTable_WordsReturnsCopy(t *testing.T) {
	table := DefaultKeywords()
	words := table.Words(domain.CategoryFood)
	words[0] = "mutated"

	assert.NotEqual(t, "mutated", table.Words(domain.CategoryFood)[0])
	assert.Nil(t, table.Words(domain.CategoryOther))
}

func TestLoadKeywords_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid yaml", "version: [1"},
		{"missing version", "categories: []"},
		{"too few categories", `
version: 1
categories:
  - name: Food
    words: [rice]
`},
		{"wrong order", `
version: 1
categories:
  - {name: Transport, words: [bus]}
  - {name: Food, words: [rice]}
  - {name: Health, words: [gym]}
  - {name: Entertainment, words: [movie]}
  - {name: Shopping, words: [bag]}
  - {name: Salary, words: [salary]}
`},
		{"uppercase word", `
version: 1
categories:
  - {name: Food, words: [Rice]}
  - {name: Transport, words: [bus]}
  - {name: Health, words: [gym]}
  - {name: Entertainment, words: [movie]}
  - {name: Shopping, words: [bag]}
  - {name: Salary, words: [salary]}
`},
		{"empty set", `
version: 1
categories:
  - {name: Food, words: []}
  - {name: Transport, words: [bus]}
  - {name: Health, words: [gym]}
  - {name: Entertainment, words: [movie]}
  - {name: Shopping, words: [bag]}
  - {name: Salary, words: [salary]}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeywords([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadKeywords_CustomTable(t *testing.T) {
	table, err := LoadKeywords([]byte(`
version: 2
categories:
  - {name: Food, words: [pizza]}
  - {name: Transport, words: [cab]}
  - {name: Health, words: [gym]}
  - {name: Entertainment, words: [movie]}
  - {name: Shopping, words: [bag]}
  - {name: Salary, words: [payday]}
`))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Version())

	interp := New(table, zerolog.Nop())
	got := interp.Interpret("pizza 300", testNow)
	assert.Equal(t, domain.CategoryFood, got.Category)

	got = interp.Interpret("payday 40k", testNow)
	assert.Equal(t, domain.CategorySalary, got.Category)
	assert.Equal(t, domain.TypeIncome, got.Type)
	assert.Equal(t, 40000.0, got.Amount)
}
