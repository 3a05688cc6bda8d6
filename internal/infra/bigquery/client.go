// Package bigquery mirrors transactions into a BigQuery dataset for
// analytics and reads aggregate reports back.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const transactionsTable = "transactions"

// Exporter writes to one BigQuery dataset through a shared client.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewExporter creates a BigQuery client for projectID.
func NewExporter(ctx context.Context, projectID, datasetID string) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return NewExporterWithClient(client, projectID, datasetID), nil
}

// NewExporterWithClient wraps an existing client.
func NewExporterWithClient(client *bigquery.Client, projectID, datasetID string) *Exporter {
	return &Exporter{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// tableRef returns the backquoted fully qualified table name.
func (e *Exporter) tableRef(table string) string {
	return qualifiedTable(e.projectID, e.datasetID, table)
}

func qualifiedTable(projectID, datasetID, table string) string {
	return "`" + projectID + "." + datasetID + "." + table + "`"
}

// runDML runs a statement and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
