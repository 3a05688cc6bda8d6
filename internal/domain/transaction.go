package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on every transaction.
const DateLayout = "2006-01-02"

// DefaultAccount is the generic cash account assigned when none is known.
const DefaultAccount = "wallet"

// Category is one of the closed set of transaction categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategorySalary        Category = "Salary"
	CategoryOther         Category = "Other"
)

// Categories lists the closed category set in classification priority order,
// followed by Other.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHealth,
	CategoryEntertainment,
	CategoryShopping,
	CategorySalary,
	CategoryOther,
}

// IsSpending reports whether the category can only ever be an expense.
func (c Category) IsSpending() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryHealth, CategoryEntertainment, CategoryShopping:
		return true
	}
	return false
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the closed set.
// Unknown values map to CategoryOther.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return CategoryOther
}

// TxType is the direction of money movement.
type TxType string

const (
	TypeExpense TxType = "expense"
	TypeIncome  TxType = "income"
)

// Valid reports whether t is expense or income.
func (t TxType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// ParseTxType maps s onto a TxType, defaulting to expense.
func ParseTxType(s string) TxType {
	if strings.EqualFold(strings.TrimSpace(s), string(TypeIncome)) {
		return TypeIncome
	}
	return TypeExpense
}

// ParsedTransaction is the structured guess produced from free text.
// Every field is always populated with a value from its domain.
type ParsedTransaction struct {
	Amount   float64  `json:"amount"`
	Category Category `json:"category"`
	Note     string   `json:"note"`
	Date     string   `json:"date"`
	Type     TxType   `json:"type"`
	Account  string   `json:"account"`
}

// Transaction is a stored transaction record owned by a user.
type Transaction struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Amount   float64  `json:"amount"`
	Category Category `json:"category"`
	Note     string   `json:"note"`
	Date     string   `json:"date"`
	Type     TxType   `json:"type"`
	Account  string   `json:"account"`

	CreatedAt time.Time `json:"created_at"`
}

// FromParsed builds an unsaved transaction record from a parse result.
func FromParsed(p ParsedTransaction) Transaction {
	return Transaction{
		Amount:   p.Amount,
		Category: p.Category,
		Note:     p.Note,
		Date:     p.Date,
		Type:     p.Type,
		Account:  p.Account,
	}
}

// Normalize fills defaulted fields: a missing category becomes Other and a
// missing account becomes wallet.
func (t *Transaction) Normalize() {
	if t.Category == "" {
		t.Category = CategoryOther
	}
	if t.Account == "" {
		t.Account = DefaultAccount
	}
}

// Validate checks that every field holds a value from its domain.
func (t Transaction) Validate() error {
	if t.Amount < 0 {
		return fmt.Errorf("amount must not be negative: %v", t.Amount)
	}
	if math.IsInf(t.Amount, 0) || math.IsNaN(t.Amount) {
		return fmt.Errorf("amount must be finite: %v", t.Amount)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("invalid category: %q", t.Category)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("invalid type: %q", t.Type)
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", t.Date)
	}
	return nil
}
