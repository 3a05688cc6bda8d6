package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// CategoryTotal is the sum of one category and direction over a date range.
type CategoryTotal struct {
	Category  string   `bigquery:"category"`
	Direction string   `bigquery:"direction"`
	Total     *big.Rat `bigquery:"total"`
	Count     int64    `bigquery:"count"`
}

// TotalFloat returns Total as a float64.
func (c CategoryTotal) TotalFloat() float64 {
	if c.Total == nil {
		return 0
	}
	f, _ := c.Total.Float64()
	return f
}

func categoryTotalsSQL(table string) string {
	return `
		SELECT
			category,
			direction,
			SUM(amount) AS total,
			COUNT(*) AS count
		FROM ` + table + `
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		GROUP BY category, direction
		ORDER BY total DESC
	`
}

// CategoryTotals sums the user's exported transactions per category between
// start and end inclusive.
func (e *Exporter) CategoryTotals(ctx context.Context, userID string, start, end time.Time) ([]CategoryTotal, error) {
	return CategoryTotalsWithClient(ctx, e.client, e.tableRef(transactionsTable), userID, start, end)
}

// CategoryTotalsWithClient runs the category report against table.
func CategoryTotalsWithClient(ctx context.Context, client *bigquery.Client, table, userID string, start, end time.Time) ([]CategoryTotal, error) {
	q := client.Query(categoryTotalsSQL(table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("CategoryTotals: query read: %w", err)
	}

	var rows []CategoryTotal
	for {
		var r CategoryTotal
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CategoryTotals: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}
