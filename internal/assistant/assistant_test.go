package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/config"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// stubGenerator records prompts and answers with a fixed reply or error.
type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []Prompt
}

func (s *stubGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubGenerator) lastPrompt() Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[len(s.prompts)-1]
}

type generatorFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

func newTestParser(gen Generator, timeout time.Duration) (*Parser, *interpreter.Interpreter, *Metrics) {
	interp := interpreter.New(nil, zerolog.Nop())
	metrics := NewMetrics(prometheus.NewRegistry())
	p := NewParser(gen, interp, metrics, timeout, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
	return p, interp, metrics
}

func TestParseUsesModelReply(t *testing.T) {
	gen := &stubGenerator{reply: `{"amount": 250, "category": "food", "note": "Lunch With Team",
		"date": "2024-03-14", "type": "expense", "account": "hdfc"}`}
	p, _, metrics := newTestParser(gen, time.Second)

	got := p.Parse(context.Background(), "lunch with team 250 yesterday on hdfc")

	assert.Equal(t, domain.ParsedTransaction{
		Amount:   250,
		Category: domain.CategoryFood,
		Note:     "Lunch With Team",
		Date:     "2024-03-14",
		Type:     domain.TypeExpense,
		Account:  "hdfc",
	}, got)

	prompt := gen.lastPrompt()
	assert.True(t, prompt.JSON)
	assert.Contains(t, prompt.User, "Current date: 2024-03-15")
	assert.Contains(t, prompt.User, "lunch with team 250 yesterday on hdfc")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("parse", "model", "ok")))
}

func TestParseNormalizesModelReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  domain.ParsedTransaction
	}{
		{
			name:  "fenced reply with string amount",
			reply: "```json\n{\"amount\": \"1,500\", \"category\": \"Shopping\", \"note\": \"Shoes\", \"date\": \"2024-03-15\", \"type\": \"expense\", \"account\": \"card\"}\n```",
			want:  domain.ParsedTransaction{Amount: 1500, Category: domain.CategoryShopping, Note: "Shoes", Date: "2024-03-15", Type: domain.TypeExpense, Account: "card"},
		},
		{
			name:  "spending category forced to expense",
			reply: `{"amount": 200, "category": "Food", "note": "Rice Refund", "date": "2024-03-15", "type": "income"}`,
			want:  domain.ParsedTransaction{Amount: 200, Category: domain.CategoryFood, Note: "Rice Refund", Date: "2024-03-15", Type: domain.TypeExpense, Account: domain.DefaultAccount},
		},
		{
			name:  "unknown category and bad date",
			reply: `Here you go: {"amount": -40, "category": "Pets", "note": "Dog Food", "date": "15/03/2024", "type": "outflow"}`,
			want:  domain.ParsedTransaction{Amount: 40, Category: domain.CategoryOther, Note: "Dog Food", Date: "2024-03-15", Type: domain.TypeExpense, Account: domain.DefaultAccount},
		},
		{
			name:  "salary income kept",
			reply: `{"amount": 50000, "category": "salary", "note": "March Salary", "date": "2024-03-01", "type": "Income", "account": "bank"}`,
			want:  domain.ParsedTransaction{Amount: 50000, Category: domain.CategorySalary, Note: "March Salary", Date: "2024-03-01", Type: domain.TypeIncome, Account: "bank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestParser(&stubGenerator{reply: tt.reply}, time.Second)
			assert.Equal(t, tt.want, p.Parse(context.Background(), "whatever"))
		})
	}
}

func TestParseEmptyNoteUsesInterpreterNote(t *testing.T) {
	gen := &stubGenerator{reply: `{"amount": 120, "category": "Transport", "note": "  "}`}
	p, interp, _ := newTestParser(gen, time.Second)

	got := p.Parse(context.Background(), "uber 120")
	assert.Equal(t, interp.Interpret("uber 120", testNow).Note, got.Note)
	assert.Equal(t, domain.CategoryTransport, got.Category)
}

func TestParseFallsBackToInterpreter(t *testing.T) {
	texts := []string{"ricee 200 ystd", "salary 50k", "uber 150 tomorrow", "", "random words"}

	tests := []struct {
		name   string
		gen    Generator
		reason string
	}{
		{"generator error", &stubGenerator{err: errors.New("503 from upstream")}, "error"},
		{"unavailable", Unavailable("no key"), "unavailable"},
		{"not json", &stubGenerator{reply: "Sorry, I cannot help with that."}, "malformed"},
		{"json array", &stubGenerator{reply: `[{"amount": 10}]`}, "malformed"},
		{"bad amount", &stubGenerator{reply: `{"amount": "lots"}`}, "malformed"},
		{"zero amount", &stubGenerator{reply: `{"amount": 0, "category": "Food"}`}, "degenerate"},
		{"missing amount", &stubGenerator{reply: `{"category": "Food", "note": "Rice"}`}, "degenerate"},
		{"panic", generatorFunc(func(ctx context.Context, prompt Prompt) (string, error) {
			panic("boom")
		}), "error"},
		{"timeout", generatorFunc(func(ctx context.Context, prompt Prompt) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, interp, metrics := newTestParser(tt.gen, 20*time.Millisecond)
			for _, text := range texts {
				assert.Equal(t, interp.Interpret(text, testNow), p.Parse(context.Background(), text), "text %q", text)
			}
			assert.Equal(t, float64(len(texts)),
				testutil.ToFloat64(metrics.requests.WithLabelValues("parse", "fallback", tt.reason)))
		})
	}
}

func TestParseTimeoutWithUncooperativeGenerator(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	gen := generatorFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		<-release
		return `{"amount": 999}`, nil
	})
	p, interp, _ := newTestParser(gen, 20*time.Millisecond)

	start := time.Now()
	got := p.Parse(context.Background(), "coffee 90")
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, interp.Interpret("coffee 90", testNow), got)
}

func TestParseConcurrent(t *testing.T) {
	gen := &stubGenerator{reply: `{"amount": 80, "category": "Food", "note": "Tea"}`}
	p, _, metrics := newTestParser(gen, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := p.Parse(context.Background(), "tea 80")
			assert.Equal(t, 80.0, got.Amount)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20.0, testutil.ToFloat64(metrics.requests.WithLabelValues("parse", "model", "ok")))
}

func TestInterpretSkipsModel(t *testing.T) {
	gen := &stubGenerator{reply: `{"amount": 1}`}
	p, interp, _ := newTestParser(gen, time.Second)

	assert.Equal(t, interp.Interpret("movie 300", testNow), p.Interpret("movie 300"))
	assert.Empty(t, gen.prompts)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`Sure! {"a":{"b":2}} Hope that helps.`, `{"a":{"b":2}}`},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanModelJSON(tt.in))
	}
}

func TestPlan(t *testing.T) {
	gen := &stubGenerator{reply: `{
		"summary": "You can save 30% this month.",
		"breakdown": [
			{"category": "Rent", "amount": 15000, "note": "fixed"},
			{"category": "", "amount": 10},
			{"category": "Food", "amount": "6000"}
		],
		"tips": ["Cook at home", " "],
		"alternatives": ["Share a flat"]
	}`}
	advisor := NewAdvisor(gen, NewMetrics(prometheus.NewRegistry()), time.Second, zerolog.Nop())

	profile := domain.BudgetProfile{
		Salary:     50000,
		FixedCosts: map[string]float64{"rent": 15000, "phone": 500},
		Goals:      []domain.Goal{{Name: "Laptop", Amount: 80000}},
	}
	plan := advisor.Plan(context.Background(), profile)
	require.NotNil(t, plan)

	assert.Equal(t, "You can save 30% this month.", plan.Summary)
	assert.Equal(t, []domain.BudgetLine{
		{Category: "Rent", Amount: 15000, Note: "fixed"},
		{Category: "Food", Amount: 6000},
	}, plan.Breakdown)
	assert.Equal(t, []string{"Cook at home"}, plan.Tips)
	assert.Equal(t, []string{"Share a flat"}, plan.Alternatives)

	prompt := gen.lastPrompt()
	assert.True(t, prompt.JSON)
	assert.Contains(t, prompt.User, "Monthly salary: 50000.00")
	assert.Contains(t, prompt.User, "phone: 500.00")
	assert.Contains(t, prompt.User, "Laptop: 80000.00")
}

func TestPlanFillsMissingFields(t *testing.T) {
	advisor := NewAdvisor(&stubGenerator{reply: `{}`}, nil, time.Second, zerolog.Nop())

	plan := advisor.Plan(context.Background(), domain.BudgetProfile{Salary: 1000})
	require.NotNil(t, plan)
	assert.Equal(t, defaultPlanSummary, plan.Summary)
	assert.Equal(t, []string{defaultPlanTip}, plan.Tips)
	assert.NotNil(t, plan.Breakdown)
	assert.NotNil(t, plan.Alternatives)
}

func TestPlanFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"error", &stubGenerator{err: errors.New("quota exceeded")}},
		{"unavailable", Unavailable("disabled")},
		{"malformed", &stubGenerator{reply: "I think you should save more."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advisor := NewAdvisor(tt.gen, nil, time.Second, zerolog.Nop())
			assert.Nil(t, advisor.Plan(context.Background(), domain.BudgetProfile{Salary: 1000}))
		})
	}
}

func TestChat(t *testing.T) {
	gen := &stubGenerator{reply: "  Spend less on food.\n"}
	advisor := NewAdvisor(gen, nil, time.Second, zerolog.Nop())

	assert.Equal(t, "Spend less on food.", advisor.Chat(context.Background(), "How do I save?", "food: 9000"))

	prompt := gen.lastPrompt()
	assert.False(t, prompt.JSON)
	assert.Contains(t, prompt.User, "food: 9000")
	assert.True(t, strings.HasSuffix(prompt.User, "How do I save?"))

	advisor.Chat(context.Background(), "Hi", "  ")
	assert.Equal(t, "Hi", gen.lastPrompt().User)
}

func TestChatFailures(t *testing.T) {
	for _, gen := range []Generator{
		&stubGenerator{err: errors.New("down")},
		&stubGenerator{reply: "   "},
		Unavailable("disabled"),
	} {
		advisor := NewAdvisor(gen, nil, time.Second, zerolog.Nop())
		assert.Equal(t, ChatUnavailableReply, advisor.Chat(context.Background(), "hello", ""))
	}
}

func TestNewGeneratorUnavailable(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.Default()
	gen, err := NewGenerator(context.Background(), &cfg)
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), Prompt{User: "hi"})
	assert.ErrorIs(t, err, ErrUnavailable)

	cfg.AIProvider = config.ProviderNone
	cfg.AIAPIKey = "set-but-disabled"
	gen, err = NewGenerator(context.Background(), &cfg)
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), Prompt{User: "hi"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewGeneratorProviders(t *testing.T) {
	cfg := config.Default()
	cfg.AIAPIKey = "test-key"

	cfg.AIProvider = config.ProviderOpenAI
	gen, err := NewGenerator(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, gen)

	cfg.AIProvider = config.ProviderAnthropic
	gen, err = NewGenerator(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, gen)

	cfg.AIProvider = "llama"
	_, err = NewGenerator(context.Background(), &cfg)
	assert.Error(t, err)
}
