package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/assistant"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BUDGET_AI_PROVIDER", "none")
	t.Setenv("BUDGET_BQ_PROJECT", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseJSON(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "parse", "--json", "--date", "2024-03-15", "salary", "credited", "50000")
	require.NoError(t, err)

	var got domain.ParsedTransaction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.ParsedTransaction{
		Amount: 50000, Category: domain.CategorySalary, Note: "Salary Credited",
		Date: "2024-03-15", Type: domain.TypeIncome, Account: "wallet",
	}, got)
}

func TestParseWithUnavailableModelFallsBack(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "parse", "--ai", "--json", "--date", "2024-03-15", "salary credited 50000")
	require.NoError(t, err)

	var got domain.ParsedTransaction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 50000.0, got.Amount)
	assert.Equal(t, domain.CategorySalary, got.Category)
}

func TestParseText(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "parse", "--date", "2024-03-15", "salary credited 50000")
	require.NoError(t, err)
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "2024-03-15")
	assert.Contains(t, out, "50000.00")
	assert.Contains(t, out, "Salary Credited")
}

func TestParseErrors(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "parse")
	assert.Error(t, err)

	_, err = run(t, "parse", "--date", "15/03/2024", "tea 10")
	assert.Error(t, err)
}

func TestChatWithoutModel(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "chat", "how", "much", "did", "I", "spend?")
	require.NoError(t, err)
	assert.Equal(t, assistant.ChatUnavailableReply+"\n", out)
}

func TestPlanWithoutModel(t *testing.T) {
	offlineEnv(t)

	out, err := run(t, "plan", "--json", "--salary", "60000", "--fixed", "rent=15000,phone=500", "--goal", "Laptop=80000")
	require.NoError(t, err)

	var plan domain.BudgetPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, domain.DefaultBudgetPlan(), plan)

	out, err = run(t, "plan", "--salary", "60000")
	require.NoError(t, err)
	assert.Contains(t, out, "System is busy")
	assert.Contains(t, out, "  - Track expenses manually")
}

func TestPlanFlagErrors(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "plan")
	assert.Error(t, err, "salary is required")

	_, err = run(t, "plan", "--salary", "1", "--goal", "Laptop")
	assert.Error(t, err)

	_, err = run(t, "plan", "--salary", "1", "--fixed", "rent=lots")
	assert.Error(t, err)
}

func TestExportCommandsNeedProject(t *testing.T) {
	offlineEnv(t)

	_, err := run(t, "migrate")
	assert.ErrorIs(t, err, errExportDisabled)

	_, err = run(t, "report")
	assert.ErrorIs(t, err, errExportDisabled)
}

func TestBackupNeedsBucket(t *testing.T) {
	offlineEnv(t)
	t.Setenv("BUDGET_BACKUP_BUCKET", "")

	_, err := run(t, "backup")
	assert.ErrorContains(t, err, "no bucket")
}

func TestParseGoals(t *testing.T) {
	goals, err := parseGoals([]string{"Trip to Goa=25000", " Bike = 90000 "})
	require.NoError(t, err)
	assert.Equal(t, []domain.Goal{{Name: "Trip to Goa", Amount: 25000}, {Name: "Bike", Amount: 90000}}, goals)

	for _, bad := range []string{"=5", "Bike", "Bike=-1", "Bike=abc"} {
		_, err := parseGoals([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestReportRange(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	start, end, err := reportRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, now, end)

	start, end, err = reportRange("2024-01-01", "2024-01-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", start.Format(domain.DateLayout))
	assert.Equal(t, "2024-01-31", end.Format(domain.DateLayout))

	_, _, err = reportRange("2024-02-01", "2024-01-01", now)
	assert.Error(t, err)

	_, _, err = reportRange("Jan", "", now)
	assert.Error(t, err)
}
