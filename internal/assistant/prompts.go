package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// buildParsePrompt asks the model for one transaction object extracted from text.
func buildParsePrompt(text string, now time.Time) Prompt {
	var b strings.Builder
	b.WriteString("You are a finance assistant that turns short notes into transactions.\n")
	b.WriteString("Extract exactly one transaction and return a JSON object with keys:\n")
	b.WriteString("  amount (number), category, note, date (YYYY-MM-DD), type, account.\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("1. category must be EXACTLY one of: ")
	names := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		names = append(names, string(c))
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n")
	b.WriteString("2. type is \"expense\" or \"income\". Food, Transport, Health, Entertainment and Shopping are always expense.\n")
	b.WriteString("3. Resolve relative dates (today, yesterday, tomorrow, next week) against the current date.\n")
	b.WriteString("4. \"5k\" means 5000. If no amount is present use 0.\n")
	b.WriteString("5. note is a short title-cased description without the amount or date words.\n")
	fmt.Fprintf(&b, "6. If no account is mentioned use %q.\n", domain.DefaultAccount)
	b.WriteString("Return ONLY the JSON object. Do not include explanations or code fences.\n")

	return Prompt{
		System: b.String(),
		User:   fmt.Sprintf("Current date: %s\nText: %s", now.Format(domain.DateLayout), text),
		JSON:   true,
	}
}

// buildPlanPrompt asks for a monthly budget plan for the given profile.
func buildPlanPrompt(profile domain.BudgetProfile) Prompt {
	var b strings.Builder
	b.WriteString("You are a personal budget planner for a young professional.\n")
	b.WriteString("Return a JSON object with keys:\n")
	b.WriteString("  summary (string), breakdown (array of {category, amount, note}),\n")
	b.WriteString("  tips (array of strings), alternatives (array of strings).\n")
	b.WriteString("Amounts are monthly and must not exceed the salary in total.\n")
	b.WriteString("Return ONLY the JSON object.\n")

	var u strings.Builder
	fmt.Fprintf(&u, "Monthly salary: %.2f\n", profile.Salary)
	if len(profile.FixedCosts) > 0 {
		u.WriteString("Fixed costs:\n")
		for _, name := range sortedKeys(profile.FixedCosts) {
			fmt.Fprintf(&u, "  - %s: %.2f\n", name, profile.FixedCosts[name])
		}
	}
	if len(profile.Goals) > 0 {
		u.WriteString("Savings goals:\n")
		for _, g := range profile.Goals {
			fmt.Fprintf(&u, "  - %s: %.2f\n", g.Name, g.Amount)
		}
	}
	if profile.CurrentSpending > 0 {
		fmt.Fprintf(&u, "Spent so far this period: %.2f\n", profile.CurrentSpending)
	}
	if len(profile.SpendingSummary) > 0 {
		u.WriteString("Spending by category:\n")
		for _, name := range sortedKeys(profile.SpendingSummary) {
			fmt.Fprintf(&u, "  - %s: %.2f\n", name, profile.SpendingSummary[name])
		}
	}
	if profile.PeriodContext != "" {
		fmt.Fprintf(&u, "Period: %s\n", profile.PeriodContext)
	}
	if profile.UserContext != "" {
		fmt.Fprintf(&u, "About the user: %s\n", profile.UserContext)
	}

	return Prompt{System: b.String(), User: u.String(), JSON: true}
}

// buildChatPrompt wraps a free-form question with optional financial context.
func buildChatPrompt(message, contextData string) Prompt {
	system := "You are a friendly, concise personal finance assistant. " +
		"Answer in plain text in at most a few short paragraphs."

	user := message
	if strings.TrimSpace(contextData) != "" {
		user = "Context about my finances:\n" + contextData + "\n\nQuestion: " + message
	}
	return Prompt{System: system, User: user}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
