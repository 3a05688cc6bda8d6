package assistant

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// ChatUnavailableReply is returned by Chat when no answer could be produced.
const ChatUnavailableReply = "AI busy. Try again later."

const (
	operationPlan = "plan"
	operationChat = "chat"

	defaultPlanSummary = "Your financial overview is ready."
	defaultPlanTip     = "Track your expenses regularly."
)

// Advisor produces budget plans and chat replies with a language model.
type Advisor struct {
	gen     Generator
	metrics *Metrics
	timeout time.Duration
	log     zerolog.Logger
}

// NewAdvisor creates an Advisor. metrics may be nil.
func NewAdvisor(gen Generator, metrics *Metrics, timeout time.Duration, log zerolog.Logger) *Advisor {
	return &Advisor{
		gen:     gen,
		metrics: metrics,
		timeout: timeout,
		log:     log,
	}
}

type planReply struct {
	Summary   string `json:"summary"`
	Breakdown []struct {
		Category string     `json:"category"`
		Amount   flexNumber `json:"amount"`
		Note     string     `json:"note"`
	} `json:"breakdown"`
	Tips         []string `json:"tips"`
	Alternatives []string `json:"alternatives"`
}

// Plan returns a budget recommendation for profile, or nil when the model
// is unavailable or its reply cannot be decoded.
func (a *Advisor) Plan(ctx context.Context, profile domain.BudgetProfile) *domain.BudgetPlan {
	start := time.Now()
	raw, err := callWithTimeout(ctx, a.gen, a.timeout, buildPlanPrompt(profile))
	a.metrics.since(operationPlan, start)
	if err != nil {
		a.metrics.observe(operationPlan, sourceFallback, err)
		a.log.Warn().Err(err).Msg("Budget plan generation failed")
		return nil
	}

	var reply planReply
	if err := decodeObject(raw, &reply); err != nil {
		err = fmt.Errorf("%w: %v", ErrMalformed, err)
		a.metrics.observe(operationPlan, sourceFallback, err)
		a.log.Warn().Err(err).Msg("Budget plan reply unusable")
		return nil
	}

	plan := &domain.BudgetPlan{
		Summary:      strings.TrimSpace(reply.Summary),
		Breakdown:    make([]domain.BudgetLine, 0, len(reply.Breakdown)),
		Tips:         nonEmpty(reply.Tips),
		Alternatives: nonEmpty(reply.Alternatives),
	}
	for _, line := range reply.Breakdown {
		if strings.TrimSpace(line.Category) == "" {
			continue
		}
		plan.Breakdown = append(plan.Breakdown, domain.BudgetLine{
			Category: strings.TrimSpace(line.Category),
			Amount:   math.Abs(float64(line.Amount)),
			Note:     strings.TrimSpace(line.Note),
		})
	}
	if plan.Summary == "" {
		plan.Summary = defaultPlanSummary
	}
	if len(plan.Tips) == 0 {
		plan.Tips = []string{defaultPlanTip}
	}

	a.metrics.observe(operationPlan, sourceModel, nil)
	return plan
}

// Chat answers a free-form question. contextData may be empty. On failure
// it returns ChatUnavailableReply.
func (a *Advisor) Chat(ctx context.Context, message, contextData string) string {
	start := time.Now()
	raw, err := callWithTimeout(ctx, a.gen, a.timeout, buildChatPrompt(message, contextData))
	a.metrics.since(operationChat, start)
	if err != nil {
		a.metrics.observe(operationChat, sourceFallback, err)
		a.log.Warn().Err(err).Msg("Chat reply failed")
		return ChatUnavailableReply
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		a.metrics.observe(operationChat, sourceFallback, ErrDegenerate)
		return ChatUnavailableReply
	}

	a.metrics.observe(operationChat, sourceModel, nil)
	return reply
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
