package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"deal_diligence/pkg/core/llm"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/prompt"
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

const (
	// MaxInputChars bounds the document text sent to the model.
	MaxInputChars  = 12000
	// RetryZeroShare triggers the guided second pass when exceeded.
	RetryZeroShare = 0.6
)

const maxMissingShown = 10

// DefaultCallTimeout bounds a single extraction model call.
const DefaultCallTimeout = 60 * time.Second

// =============================================================================
// AI EXTRACTOR
// =============================================================================

// AIExtractor performs the model-backed extraction with one guided retry
// when the first pass comes back mostly empty.
type AIExtractor struct {
	Provider llm.Provider
	Limiter  *rate.Limiter // nil means unlimited

	// CallTimeout bounds each model call; <= 0 means DefaultCallTimeout.
	CallTimeout time.Duration
}

var _ Extractor = (*AIExtractor)(nil)

// NewAIExtractor limits model calls to rpm requests per minute (0 = unlimited).
func NewAIExtractor(provider llm.Provider, rpm int) *AIExtractor {
	e := &AIExtractor{Provider: provider, CallTimeout: DefaultCallTimeout}
	if rpm > 0 {
		e.Limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return e
}

func (e *AIExtractor) Extract(ctx context.Context, text, filename string) (*models.Statement, error) {
	system, body, err := prompt.Get().Render(prompt.ExtractionStatement, prompt.Vars{
		"Filename": filename,
		"Text":     truncate(text, MaxInputChars),
	})
	if err != nil {
		return nil, err
	}

	first, err := e.ask(ctx, system, body)
	if err != nil {
		return nil, err
	}

	missing, total := first.ZeroCoverage()
	if total == 0 || float64(len(missing))/float64(total) <= RetryZeroShare {
		return first, nil
	}

	logger.Log.WithField("filename", filename).Infof("first pass left %d of %d fields empty, retrying with guidance", len(missing), total)
	_, guidance, err := prompt.Get().Render(prompt.ExtractionRetry, retryVars(missing, total))
	if err != nil {
		return nil, err
	}
	retry, err := e.ask(ctx, system, body+"\n\n"+guidance)
	if err != nil {
		// Only an unreadable retry keeps the first pass; a failed call goes to the fallback.
		if !errors.Is(err, ErrUnusableReply) {
			return nil, fmt.Errorf("guided retry: %w", err)
		}
		logger.Log.WithError(err).Warn("guided retry unusable, keeping first pass")
		return first, nil
	}
	overlay(first, retry)
	return first, nil
}

func (e *AIExtractor) ask(ctx context.Context, system, userPrompt string) (*models.Statement, error) {
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("limiter wait error: %w", err)
		}
	}
	timeout := e.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := e.Provider.GenerateResponse(ctx, userPrompt, e.Provider.AdaptInstructions(system), map[string]interface{}{
		llm.OptJSON:        true,
		llm.OptMaxTokens:   3000,
		llm.OptTemperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var stmt models.Statement
	payload, err := utils.SmartParse(reply, &stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableReply, err)
	}
	if strings.TrimSpace(payload) == "{}" {
		return nil, fmt.Errorf("%w: empty object", ErrUnusableReply)
	}
	return &stmt, nil
}

func retryVars(missing []string, total int) prompt.Vars {
	shown := missing
	if len(shown) > maxMissingShown {
		shown = shown[:maxMissingShown]
	}
	return prompt.Vars{
		"MissingCount": len(missing),
		"Total":        total,
		"Missing":      strings.Join(shown, ", "),
	}
}

// overlay copies the retry's non-zero line items onto base. Adjustments are
// replaced only when the retry produced some.
func overlay(base, retry *models.Statement) {
	overlaySection(&base.IncomeStatement, &retry.IncomeStatement, models.IncomeFields)
	overlaySection(&base.BalanceSheet, &retry.BalanceSheet, models.BalanceFields)
	overlaySection(&base.CashFlow, &retry.CashFlow, models.CashFlowFields)
	if len(retry.Adjustments) > 0 {
		base.Adjustments = append([]models.Adjustment{}, retry.Adjustments...)
	}
}

func overlaySection[T any](dst, src *T, fields []models.Field[T]) {
	for _, f := range fields {
		if v := *f.Ref(src); v != 0 {
			*f.Ref(dst) = v
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
