package domain

// Goal is a savings target.
type Goal struct {
	ID     string  `json:"id"`
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Habit is a named habit with the dates (YYYY-MM-DD) it was completed on.
type Habit struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	CompletedDates []string `json:"completed_dates"`
}

// HabitUpdate is a partial habit update; nil fields are left unchanged.
type HabitUpdate struct {
	Name           *string   `json:"name,omitempty"`
	CompletedDates *[]string `json:"completed_dates,omitempty"`
}

// Account is a money account such as a bank account or the cash wallet.
type Account struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

// FixedCosts are the recurring monthly costs of a budget.
type FixedCosts struct {
	Rent          float64 `json:"rent"`
	Travel        float64 `json:"travel"`
	Phone         float64 `json:"phone"`
	Subscriptions float64 `json:"subscriptions"`
}

// BudgetSettings holds a user's salary and fixed costs.
type BudgetSettings struct {
	UserID     string     `json:"user_id,omitempty"`
	Salary     float64    `json:"salary"`
	FixedCosts FixedCosts `json:"fixed_costs"`
	Config     string     `json:"config"`
}

// BudgetProfile is the input to budget-plan generation.
type BudgetProfile struct {
	Salary          float64            `json:"salary"`
	FixedCosts      map[string]float64 `json:"fixed_costs"`
	Goals           []Goal             `json:"goals"`
	CurrentSpending float64            `json:"current_spending"`
	SpendingSummary map[string]float64 `json:"spending_summary,omitempty"`
	UserContext     string             `json:"user_context,omitempty"`
	PeriodContext   string             `json:"period_context,omitempty"`
}

// BudgetLine is one row of a recommended budget breakdown.
type BudgetLine struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note,omitempty"`
}

// BudgetPlan is a structured budget recommendation.
type BudgetPlan struct {
	Summary      string       `json:"summary"`
	Breakdown    []BudgetLine `json:"breakdown"`
	Tips         []string     `json:"tips"`
	Alternatives []string     `json:"alternatives"`
}

// DefaultBudgetPlan is the fixed plan returned when no recommendation
// could be generated.
func DefaultBudgetPlan() BudgetPlan {
	return BudgetPlan{
		Summary:   "System is busy. Please try again later.",
		Breakdown: []BudgetLine{},
		Tips: []string{
			"Track expenses manually",
			"Avoid unnecessary spending",
			"Save at least 20% of your income",
		},
		Alternatives: []string{},
	}
}
