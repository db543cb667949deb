package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// RetryingGenerator wraps the primary generator with the core-owned
// policy: bounded retries with backoff on transient failure, immediate
// fallback on permanent failure, template fallback on exhaustion.
type RetryingGenerator struct {
	primary     ports.Generator
	fallback    ports.Generator
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger

	// newBackOff is swappable so tests run without real sleeps.
	newBackOff func() backoff.BackOff
}

var _ ports.Generator = (*RetryingGenerator)(nil)

var errNoFallback = errors.New("no fallback generator configured")

// NewRetryingGenerator wires the retry policy from pipeline configuration.
func NewRetryingGenerator(primary, fallback ports.Generator, cfg config.PipelineConfig, logger *slog.Logger) *RetryingGenerator {
	attempts := cfg.MaxGenerationAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingGenerator{
		primary:     primary,
		fallback:    fallback,
		maxAttempts: attempts,
		timeout:     cfg.GenerationTimeout.Std(),
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 500 * time.Millisecond
			return bo
		},
	}
}

// Generate applies the retry-then-fallback policy around one call.
func (g *RetryingGenerator) Generate(ctx context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category) (ports.GeneratedContent, error) {
	if g.primary == nil {
		return g.fallbackGenerate(ctx, raw, hood, category, 0)
	}

	attempts := 0
	var out ports.GeneratedContent
	operation := func() error {
		attempts++
		res, err := g.callPrimary(ctx, raw, hood, category)
		if err == nil {
			out = res
			return nil
		}
		if domain.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		g.debug("generation attempt failed", "raw_item", raw.ID, "attempt", attempts, "error", err)
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.maxAttempts-1)), ctx)
	err := backoff.Retry(operation, bo)
	if err == nil {
		out.Attempts = attempts
		return out, nil
	}

	g.debug("generation exhausted, using fallback", "raw_item", raw.ID, "attempts", attempts, "error", err)
	return g.fallbackGenerate(ctx, raw, hood, category, attempts)
}

// callPrimary bounds one primary call in time; a blown deadline counts as
// a transient failure.
func (g *RetryingGenerator) callPrimary(ctx context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category) (ports.GeneratedContent, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.primary.Generate(callCtx, raw, hood, category)
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return ports.GeneratedContent{}, &domain.TransientError{Op: "generate timeout", Err: err}
	}
	return res, err
}

func (g *RetryingGenerator) fallbackGenerate(ctx context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category, attempts int) (ports.GeneratedContent, error) {
	if g.fallback == nil {
		return ports.GeneratedContent{}, &domain.PermanentError{Op: "generate", Err: errNoFallback}
	}
	res, err := g.fallback.Generate(ctx, raw, hood, category)
	if err != nil {
		return ports.GeneratedContent{}, err
	}
	res.Attempts = attempts
	return res, nil
}

func (g *RetryingGenerator) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
