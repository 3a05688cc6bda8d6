package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rupeeriser/budget-buddy/internal/assistant"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

func newChatCommand(env *environment) *cobra.Command {
	var contextData string

	cmd := &cobra.Command{
		Use:   "chat <message>...",
		Short: "Ask the finance assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			log := env.logger(cmd, cfg)

			gen, err := assistant.NewGenerator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			advisor := assistant.NewAdvisor(gen, nil, cfg.AITimeout, log)

			reply := advisor.Chat(cmd.Context(), strings.Join(args, " "), contextData)
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&contextData, "context", "", "facts about your finances to include")
	return cmd
}

func newPlanCommand(env *environment) *cobra.Command {
	var (
		profile domain.BudgetProfile
		fixed   map[string]string
		goals   []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:     "plan",
		Short:   "Generate a monthly budget plan",
		Example: `  budget plan --salary 60000 --fixed rent=15000,phone=500 --goal "Laptop=80000"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedGoals, err := parseGoals(goals)
			if err != nil {
				return err
			}
			profile.Goals = parsedGoals
			profile.FixedCosts, err = parseFixedCosts(fixed)
			if err != nil {
				return err
			}

			cfg, err := env.config()
			if err != nil {
				return err
			}
			log := env.logger(cmd, cfg)

			gen, err := assistant.NewGenerator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			advisor := assistant.NewAdvisor(gen, nil, cfg.AITimeout, log)

			plan := advisor.Plan(cmd.Context(), profile)
			if plan == nil {
				fallback := domain.DefaultBudgetPlan()
				plan = &fallback
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}

	cmd.Flags().Float64Var(&profile.Salary, "salary", 0, "monthly salary")
	cmd.Flags().StringToStringVar(&fixed, "fixed", nil, "fixed monthly costs as name=amount pairs")
	cmd.Flags().StringArrayVar(&goals, "goal", nil, "savings goal as name=amount (repeatable)")
	cmd.Flags().Float64Var(&profile.CurrentSpending, "spent", 0, "amount spent so far this period")
	cmd.Flags().StringVar(&profile.UserContext, "about", "", "anything the planner should know about you")
	cmd.Flags().StringVar(&profile.PeriodContext, "period", "", "the period being planned")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	_ = cmd.MarkFlagRequired("salary")

	return cmd
}

func parseFixedCosts(raw map[string]string) (map[string]float64, error) {
	costs := make(map[string]float64, len(raw))
	for name, v := range raw {
		amount, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("invalid --fixed %s=%s: amount must be a non-negative number", name, v)
		}
		costs[strings.TrimSpace(name)] = amount
	}
	return costs, nil
}

func parseGoals(raw []string) ([]domain.Goal, error) {
	goals := make([]domain.Goal, 0, len(raw))
	for _, g := range raw {
		i := strings.LastIndex(g, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --goal %q: want name=amount", g)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(g[i+1:]), 64)
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("invalid --goal %q: amount must be a non-negative number", g)
		}
		goals = append(goals, domain.Goal{Name: strings.TrimSpace(g[:i]), Amount: amount})
	}
	return goals, nil
}

func printPlan(w io.Writer, plan *domain.BudgetPlan) {
	heading := color.New(color.Bold)

	fmt.Fprintln(w, plan.Summary)
	if len(plan.Breakdown) > 0 {
		heading.Fprintln(w, "\nBreakdown")
		for _, line := range plan.Breakdown {
			fmt.Fprintf(w, "  %-20s %12.2f", line.Category, line.Amount)
			if line.Note != "" {
				fmt.Fprintf(w, "  %s", line.Note)
			}
			fmt.Fprintln(w)
		}
	}
	if len(plan.Tips) > 0 {
		heading.Fprintln(w, "\nTips")
		for _, tip := range plan.Tips {
			fmt.Fprintf(w, "  - %s\n", tip)
		}
	}
	if len(plan.Alternatives) > 0 {
		heading.Fprintln(w, "\nAlternatives")
		for _, alt := range plan.Alternatives {
			fmt.Fprintf(w, "  - %s\n", alt)
		}
	}
}
