package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rupeeriser/budget-buddy/internal/assistant"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
)

func newParseCommand(env *environment) *cobra.Command {
	var (
		asJSON   bool
		useModel bool
		date     string
	)

	cmd := &cobra.Command{
		Use:   "parse <text>...",
		Short: "Interpret a free-text transaction",
		Example: `  budget parse "paid 250 for lunch yesterday"
  budget parse --ai --json "got salary 50k"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if date != "" {
				d, err := time.ParseInLocation(domain.DateLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				now = d
			}
			text := strings.Join(args, " ")

			cfg, err := env.config()
			if err != nil {
				return err
			}
			log := env.logger(cmd, cfg)
			interp := interpreter.New(nil, log)

			var parsed domain.ParsedTransaction
			if useModel {
				gen, err := assistant.NewGenerator(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				parser := assistant.NewParser(gen, interp, nil, cfg.AITimeout, log).
					WithClock(func() time.Time { return now })
				parsed = parser.Parse(cmd.Context(), text)
			} else {
				parsed = interp.Interpret(text, now)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(parsed)
			}
			printParsed(cmd.OutOrStdout(), parsed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&useModel, "ai", false, "ask the configured language model first")
	cmd.Flags().StringVar(&date, "date", "", "reference date for relative phrases (YYYY-MM-DD)")

	return cmd
}

func printParsed(w io.Writer, p domain.ParsedTransaction) {
	typeColor := color.New(color.BgRed, color.FgWhite)
	if p.Type == domain.TypeIncome {
		typeColor = color.New(color.BgGreen, color.FgBlack)
	}

	typeColor.Fprintf(w, " %-7s ", p.Type)
	color.New(color.BgBlue, color.FgWhite).Fprintf(w, " %-13s ", p.Category)
	color.New(color.BgYellow, color.FgBlack).Fprintf(w, " %s ", p.Date)
	fmt.Fprintf(w, " %12.2f  %-8s %s\n", p.Amount, p.Account, p.Note)
}
