// Package assistant wraps external language models for transaction parsing,
// budget planning and chat. Every operation degrades to a local result when
// the model fails, times out or answers with something unusable.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
)

// Reasons a model result is discarded in favour of the fallback.
var (
	ErrModelCall  = errors.New("model call failed")
	ErrTimeout    = errors.New("model call timed out")
	ErrMalformed  = errors.New("model reply is not a usable JSON object")
	ErrDegenerate = errors.New("model reply has no amount")
)

const operationParse = "parse"

// Parser parses free text with a language model and falls back to the
// deterministic interpreter whenever the model result cannot be used.
type Parser struct {
	gen      Generator
	fallback *interpreter.Interpreter
	metrics  *Metrics
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewParser creates a Parser. metrics may be nil.
func NewParser(gen Generator, fallback *interpreter.Interpreter, metrics *Metrics, timeout time.Duration, log zerolog.Logger) *Parser {
	return &Parser{
		gen:      gen,
		fallback: fallback,
		metrics:  metrics,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the clock used to resolve relative dates.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse never fails. When the model result is unusable the output is exactly
// what the interpreter produces for the same text and instant.
func (p *Parser) Parse(ctx context.Context, text string) domain.ParsedTransaction {
	now := p.now()

	start := time.Now()
	tx, err := p.fromModel(ctx, text, now)
	p.metrics.since(operationParse, start)

	if err != nil {
		p.metrics.observe(operationParse, sourceFallback, err)
		p.log.Warn().Err(err).Str("text", text).Msg("Model parse unusable, using interpreter")
		return p.fallback.Interpret(text, now)
	}

	p.metrics.observe(operationParse, sourceModel, nil)
	return tx
}

// Interpret runs only the deterministic interpreter.
func (p *Parser) Interpret(text string) domain.ParsedTransaction {
	return p.fallback.Interpret(text, p.now())
}

// modelTransaction is the reply shape requested from the model.
type modelTransaction struct {
	Amount   flexNumber `json:"amount"`
	Category string     `json:"category"`
	Note     string     `json:"note"`
	Date     string     `json:"date"`
	Type     string     `json:"type"`
	Account  string     `json:"account"`
}

func (p *Parser) fromModel(ctx context.Context, text string, now time.Time) (tx domain.ParsedTransaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrModelCall, r)
		}
	}()

	raw, err := callWithTimeout(ctx, p.gen, p.timeout, buildParsePrompt(text, now))
	if err != nil {
		return domain.ParsedTransaction{}, err
	}

	var reply modelTransaction
	if err := decodeObject(raw, &reply); err != nil {
		return domain.ParsedTransaction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	amount := math.Abs(float64(reply.Amount))
	if amount == 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return domain.ParsedTransaction{}, ErrDegenerate
	}

	category := domain.ParseCategory(reply.Category)
	txType := domain.ParseTxType(reply.Type)
	if category.IsSpending() {
		txType = domain.TypeExpense
	}

	date := strings.TrimSpace(reply.Date)
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		date = now.Format(domain.DateLayout)
	}

	note := strings.TrimSpace(reply.Note)
	if note == "" {
		note = p.fallback.Interpret(text, now).Note
	}

	account := strings.TrimSpace(reply.Account)
	if account == "" {
		account = domain.DefaultAccount
	}

	return domain.ParsedTransaction{
		Amount:   amount,
		Category: category,
		Note:     note,
		Date:     date,
		Type:     txType,
		Account:  account,
	}, nil
}

type generation struct {
	raw string
	err error
}

// callWithTimeout bounds a single model call, returning at the deadline even
// if the generator ignores ctx. Generator errors are wrapped with
// ErrModelCall, or ErrTimeout when the deadline expired.
func callWithTimeout(ctx context.Context, gen Generator, timeout time.Duration, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		raw, err := gen.Generate(ctx, prompt)
		done <- generation{raw: raw, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.raw, nil
		}
		if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, res.err)
		}
		return "", fmt.Errorf("%w: %w", ErrModelCall, res.err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrModelCall, ctx.Err())
	}
}
