// Package interpreter turns short free-text entries such as "ricee 200 ystd"
// into structured transactions using keyword tables and simple patterns.
// It performs no I/O and never fails: every input yields a fully populated
// domain.ParsedTransaction.
package interpreter

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// Interpreter is the deterministic text interpreter. It is safe for
// concurrent use.
type Interpreter struct {
	keywords *KeywordTable
	log      zerolog.Logger
}

// New creates an Interpreter. A nil table selects DefaultKeywords.
func New(keywords *KeywordTable, log zerolog.Logger) *Interpreter {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Interpreter{
		keywords: keywords,
		log:      log,
	}
}

// Keywords returns the table the interpreter classifies with.
func (i *Interpreter) Keywords() *KeywordTable {
	return i.keywords
}

// Interpret converts text into a transaction guess. Relative dates are
// resolved against now in now's location. The result depends only on text,
// now and the keyword table.
func (i *Interpreter) Interpret(text string, now time.Time) domain.ParsedTransaction {
	lower := strings.ToLower(text)

	amount := extractAmount(lower)

	classified := i.keywords.Classify(lower)
	category := classified
	txType := domain.TypeExpense

	if i.keywords.Matches(domain.CategorySalary, lower) {
		category = domain.CategorySalary
		txType = domain.TypeIncome
	}
	// Spending categories are never income.
	if classified.IsSpending() {
		category = classified
		txType = domain.TypeExpense
	}

	parsed := domain.ParsedTransaction{
		Amount:   amount,
		Category: category,
		Note:     cleanNote(text, category),
		Date:     resolveDate(lower, now),
		Type:     txType,
		Account:  domain.DefaultAccount,
	}

	i.log.Debug().
		Str("text", text).
		Float64("amount", parsed.Amount).
		Str("category", string(parsed.Category)).
		Str("type", string(parsed.Type)).
		Str("date", parsed.Date).
		Msg("Interpreted text")

	return parsed
}
