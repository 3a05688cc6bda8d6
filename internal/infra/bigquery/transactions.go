package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// numericScale is the number of fractional digits a BigQuery NUMERIC keeps.
const numericScale = 9

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID   string
	UserID          string
	TransactionDate civil.Date
	Amount          *big.Rat
	Category        string
	Note            string
	Direction       string
	Account         string
	CreatedTS       time.Time
}

// NewTransactionRow maps a stored transaction onto the table schema.
func NewTransactionRow(tx domain.Transaction) (*TransactionRow, error) {
	if tx.ID == "" {
		return nil, fmt.Errorf("NewTransactionRow: transaction id is required")
	}
	date, err := civil.ParseDate(tx.Date)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRow: parse date %q: %w", tx.Date, err)
	}

	created := tx.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TransactionDate: date,
		Amount:          decimal.NewFromFloat(tx.Amount).Round(numericScale).Rat(),
		Category:        string(tx.Category),
		Note:            tx.Note,
		Direction:       string(tx.Type),
		Account:         tx.Account,
		CreatedTS:       created,
	}, nil
}

func (r *TransactionRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: r.TransactionID},
		{Name: "user_id", Value: r.UserID},
		{Name: "transaction_date", Value: r.TransactionDate},
		{Name: "amount", Value: r.Amount},
		{Name: "category", Value: r.Category},
		{Name: "note", Value: r.Note},
		{Name: "direction", Value: r.Direction},
		{Name: "account", Value: r.Account},
		{Name: "created_ts", Value: r.CreatedTS},
	}
}

func upsertSQL(table string) string {
	return `
		MERGE ` + table + ` t
		USING (SELECT @transaction_id AS transaction_id) s
		ON t.transaction_id = s.transaction_id
		WHEN MATCHED THEN UPDATE SET
			user_id = @user_id,
			transaction_date = @transaction_date,
			amount = @amount,
			category = @category,
			note = @note,
			direction = @direction,
			account = @account,
			updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT
			(transaction_id, user_id, transaction_date, amount, category, note, direction, account, created_ts)
		VALUES
			(@transaction_id, @user_id, @transaction_date, @amount, @category, @note, @direction, @account, @created_ts)
	`
}

func deleteSQL(table string) string {
	return `
		DELETE FROM ` + table + `
		WHERE transaction_id = @transaction_id
		  AND user_id = @user_id
	`
}

// UpsertTransaction inserts or replaces the transaction's row.
func (e *Exporter) UpsertTransaction(ctx context.Context, tx domain.Transaction) error {
	row, err := NewTransactionRow(tx)
	if err != nil {
		return err
	}
	return UpsertTransactionWithClient(ctx, e.client, e.tableRef(transactionsTable), row)
}

// UpsertTransactionWithClient merges row into table using the provided client.
func UpsertTransactionWithClient(ctx context.Context, client *bigquery.Client, table string, row *TransactionRow) error {
	q := client.Query(upsertSQL(table))
	q.Parameters = row.params()

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("UpsertTransaction %s: %w", row.TransactionID, err)
	}
	return nil
}

// DeleteTransaction removes the transaction's row.
func (e *Exporter) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return DeleteTransactionWithClient(ctx, e.client, e.tableRef(transactionsTable), userID, transactionID)
}

// DeleteTransactionWithClient deletes one row from table using the provided client.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, table, userID, transactionID string) error {
	q := client.Query(deleteSQL(table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
		{Name: "user_id", Value: userID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteTransaction %s: %w", transactionID, err)
	}
	return nil
}
