package domain

import "github.com/shopspring/decimal"

// Summary aggregates a set of transactions for the dashboard.
type Summary struct {
	Income     float64              `json:"income"`
	Expense    float64              `json:"expense"`
	Balance    float64              `json:"balance"`
	ByCategory map[Category]float64 `json:"by_category"`
	Count      int                  `json:"count"`
}

// Summarize totals income and expenses. Per-category totals cover expenses only.
func Summarize(txs []Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	byCategory := make(map[Category]decimal.Decimal)

	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type == TypeIncome {
			income = income.Add(amount)
			continue
		}
		expense = expense.Add(amount)
		byCategory[tx.Category] = byCategory[tx.Category].Add(amount)
	}

	out := Summary{
		Income:     income.InexactFloat64(),
		Expense:    expense.InexactFloat64(),
		Balance:    income.Sub(expense).InexactFloat64(),
		ByCategory: make(map[Category]float64, len(byCategory)),
		Count:      len(txs),
	}
	for cat, total := range byCategory {
		out.ByCategory[cat] = total.InexactFloat64()
	}
	return out
}
