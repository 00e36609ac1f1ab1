// Package annotator implements the LLM annotation loop: one upstream
// classification request per input row, with retry, refusal fallback,
// and row-granular checkpoint/resume.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crisislab/triage-cli/internal/model"
	"github.com/crisislab/triage-cli/internal/resilience"
	"github.com/crisislab/triage-cli/pkg/anthropic"
)

// ErrInterrupted reports that the run stopped on a cancelled context
// after flushing a checkpoint. Completed work is preserved; rerunning
// resumes where the interrupt landed.
var ErrInterrupted = errors.New("annotation interrupted")

// errRefused marks a content-policy refusal inside the retry loop. It
// is never retried and maps to the content-filtered sentinel.
var errRefused = errors.New("annotator: content-policy refusal")

// Config holds the annotation loop tunables.
type Config struct {
	Model           string
	BatchSize       int
	MaxRetries      int
	RetryDelay      time.Duration
	RequestDelay    time.Duration
	RequestTimeout  time.Duration
	CheckpointEvery int
	CheckpointFile  string
	ProgressFile    string
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = 100 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = 10
	}
	if c.CheckpointFile == "" {
		c.CheckpointFile = "annotation_checkpoint.json"
	}
	if c.ProgressFile == "" {
		c.ProgressFile = "annotation_progress.csv"
	}
	return c
}

// Annotator drives the sequential annotation loop.
type Annotator struct {
	client  anthropic.Client
	cfg     Config
	limiter *rate.Limiter
	usage   anthropic.TokenUsage
}

// New creates an Annotator. The rate limiter enforces the fixed
// inter-request delay; requests are otherwise strictly sequential.
func New(client anthropic.Client, cfg Config) *Annotator {
	cfg = cfg.withDefaults()
	return &Annotator{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
	}
}

// Usage returns accumulated token usage for the run.
func (a *Annotator) Usage() anthropic.TokenUsage {
	return a.usage
}

// Run annotates every row, resuming from any existing checkpoint.
// It returns exactly one Annotation per input row unless interrupted,
// in which case it returns the work completed so far with
// ErrInterrupted after flushing a checkpoint.
func (a *Annotator) Run(ctx context.Context, rows []model.Row) ([]model.Annotation, error) {
	completed, err := LoadCheckpoint(a.cfg.CheckpointFile)
	if err != nil {
		return nil, err
	}
	results, err := LoadProgress(a.cfg.ProgressFile)
	if err != nil {
		return nil, err
	}

	if len(completed) > 0 {
		zap.L().Info("resuming from checkpoint",
			zap.Int("already_completed", len(completed)),
			zap.Int("remaining", len(rows)-len(completed)),
		)
	} else {
		zap.L().Info("starting fresh annotation", zap.Int("rows", len(rows)))
	}

	type pair struct {
		idx  int
		text string
	}
	var pending []pair
	for idx, row := range rows {
		if completed[idx] {
			continue
		}
		pending = append(pending, pair{idx: idx, text: row.UserText})
	}

	if len(pending) == 0 {
		zap.L().Info("all rows already completed")
		return sortByIndex(results), nil
	}

	for start := 0; start < len(pending); start += a.cfg.BatchSize {
		end := min(start+a.cfg.BatchSize, len(pending))

		for _, p := range pending[start:end] {
			if err := a.limiter.Wait(ctx); err != nil {
				a.flush(completed, results)
				return sortByIndex(results), ErrInterrupted
			}

			ann, err := a.annotateOne(ctx, p.idx, p.text)
			if err != nil {
				// Only context cancellation escapes annotateOne; every
				// upstream failure already degraded to a sentinel.
				a.flush(completed, results)
				return sortByIndex(results), ErrInterrupted
			}

			results = append(results, ann)
			completed[p.idx] = true

			if len(completed)%a.cfg.CheckpointEvery == 0 {
				a.flush(completed, results)
			}
		}
	}

	a.flush(completed, results)
	return sortByIndex(results), nil
}

// annotateOne resolves a single row to a terminal annotation. The only
// non-nil error it returns is context cancellation.
func (a *Annotator) annotateOne(ctx context.Context, idx int, text string) (model.Annotation, error) {
	retryCfg := resilience.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		Delay:       a.cfg.RetryDelay,
		// A refusal is terminal; retrying the same input cannot succeed.
		ShouldRetry: func(err error) bool { return !errors.Is(err, errRefused) },
		OnRetry:     resilience.RetryLogger("anthropic", fmt.Sprintf("annotate row %d", idx)),
	}

	ann, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (model.Annotation, error) {
		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()

		resp, err := a.client.CreateMessage(reqCtx, anthropic.MessageRequest{
			Model:       a.cfg.Model,
			MaxTokens:   150,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: buildUserPrompt(text)}},
			Temperature: ptr(0.1),
		})
		if err != nil {
			if anthropic.IsContentFiltered(err) {
				return model.Annotation{}, errRefused
			}
			return model.Annotation{}, eris.Wrapf(err, "row %d", idx)
		}
		if anthropic.IsRefusalResponse(resp) {
			return model.Annotation{}, errRefused
		}

		a.usage.Add(resp.Usage)
		return parseAnnotation(resp.FirstText(), idx)
	})
	if err == nil {
		return ann, nil
	}

	if ctx.Err() != nil {
		return model.Annotation{}, ctx.Err()
	}

	switch {
	case errors.Is(err, errRefused):
		zap.L().Warn("content filtered", zap.Int("row", idx))
		return model.SentinelContentFiltered(idx), nil
	case errors.Is(err, errUnparseable):
		zap.L().Warn("unparseable response", zap.Int("row", idx))
		return model.SentinelParseError(idx), nil
	default:
		zap.L().Warn("annotation failed",
			zap.Int("row", idx),
			zap.Int("attempts", a.cfg.MaxRetries),
			zap.Error(err),
		)
		return model.SentinelFailed(idx, fmt.Sprintf("Failed after %d attempts", a.cfg.MaxRetries)), nil
	}
}

// flush persists the checkpoint and partial results. Flush failures are
// logged, not fatal: losing a checkpoint only costs redone work.
func (a *Annotator) flush(completed map[int]bool, results []model.Annotation) {
	if err := SaveCheckpoint(a.cfg.CheckpointFile, completed); err != nil {
		zap.L().Error("checkpoint save failed", zap.Error(err))
	}
	if err := SaveProgress(a.cfg.ProgressFile, results); err != nil {
		zap.L().Error("progress save failed", zap.Error(err))
	}
}

// Clear removes the checkpoint side files after a fully merged run.
func (a *Annotator) Clear() {
	ClearCheckpoint(a.cfg.CheckpointFile, a.cfg.ProgressFile)
}

func sortByIndex(results []model.Annotation) []model.Annotation {
	out := make([]model.Annotation, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OriginalIndex < out[j].OriginalIndex
	})
	return out
}

func ptr[T any](v T) *T { return &v }
