package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"industrymap/internal/model"
	"industrymap/internal/store"
)

// NSESource provides NSE symbol lists and per-symbol classifications.
type NSESource interface {
	MainboardListings(ctx context.Context) ([]model.Listing, error)
	SMEListings(ctx context.Context) ([]model.Listing, error)
	Classification(ctx context.Context, symbol, series string, segment model.Segment) (model.Record, error)
}

// BSESource provides the BSE securities list and per-scrip classifications.
type BSESource interface {
	Securities(ctx context.Context) ([]model.Security, error)
	Classification(ctx context.Context, scripCode string) (model.Record, error)
}

// Config holds engine tuning.
type Config struct {
	CheckpointEvery int           // Save after this many processed symbols (default: 50)
	Pacing          time.Duration // Delay before each per-symbol call; zero disables
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CheckpointEvery: 50,
		Pacing:          100 * time.Millisecond,
	}
}

// PassStats accumulates counts for one workflow pass.
type PassStats struct {
	Name       string
	Candidates int // Symbols enumerated by the list fetch
	Skipped    int // Already populated in the store
	Updated    int // Fetched and written
	Missed     int // No data, or per-symbol fetch failure
}

// Summary describes a completed run.
type Summary struct {
	RunID    uuid.UUID
	Workflow string
	Passes   []PassStats
	Updated  int
	Missed   int
	Skipped  int
	Duration time.Duration
}

// Engine drives the sync workflows.
type Engine struct {
	cfg    Config
	store  *store.Store
	nse    NSESource
	bse    BSESource
	logger *slog.Logger
}

// New creates an Engine. Zero config fields fall back to defaults.
func New(cfg Config, st *store.Store, nse NSESource, bse BSESource, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = def.CheckpointEvery
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		store:  st,
		nse:    nse,
		bse:    bse,
		logger: logger,
	}
}

// FullRebuild clears the store and repopulates it from scratch: BSE first,
// then NSE mainboard, then NSE SME. Later passes skip symbols an earlier
// pass populated, so pass order is the precedence rule.
func (e *Engine) FullRebuild(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.New(), Workflow: "full-rebuild"}
	start := time.Now()

	e.logger.Info("starting full rebuild", "run_id", sum.RunID)
	e.store.Clear()

	if err := e.runBSEPass(ctx, sum); err != nil {
		return nil, err
	}
	if err := e.runNSEPass(ctx, sum, model.SegmentMainboard); err != nil {
		return nil, err
	}
	if err := e.runNSEPass(ctx, sum, model.SegmentSME); err != nil {
		return nil, err
	}

	if err := e.store.Save(); err != nil {
		return nil, fmt.Errorf("final save: %w", err)
	}

	sum.Duration = time.Since(start)
	e.logger.Info("full rebuild complete",
		"run_id", sum.RunID,
		"updated", sum.Updated,
		"missed", sum.Missed,
		"skipped", sum.Skipped,
		"symbols", e.store.Len(),
		"duration", sum.Duration,
	)
	return sum, nil
}

// Refresh loads the existing store and fetches only symbols that are
// absent or empty: NSE mainboard, then NSE SME, then BSE. Because every
// pass skips populated symbols, re-running a refresh is idempotent.
func (e *Engine) Refresh(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.New(), Workflow: "refresh"}
	start := time.Now()

	e.logger.Info("starting refresh", "run_id", sum.RunID)
	e.store.Load()

	if err := e.runNSEPass(ctx, sum, model.SegmentMainboard); err != nil {
		return nil, err
	}
	if err := e.runNSEPass(ctx, sum, model.SegmentSME); err != nil {
		return nil, err
	}
	if err := e.runBSEPass(ctx, sum); err != nil {
		return nil, err
	}

	if err := e.store.Save(); err != nil {
		return nil, fmt.Errorf("final save: %w", err)
	}

	sum.Duration = time.Since(start)
	e.logger.Info("refresh complete",
		"run_id", sum.RunID,
		"updated", sum.Updated,
		"missed", sum.Missed,
		"skipped", sum.Skipped,
		"symbols", e.store.Len(),
		"duration", sum.Duration,
	)
	return sum, nil
}

// runNSEPass processes one NSE segment. A list-fetch failure propagates
// and aborts the run: there is no partial list to fall back on.
func (e *Engine) runNSEPass(ctx context.Context, sum *Summary, segment model.Segment) error {
	var (
		name     = "nse-" + segment.String()
		listings []model.Listing
		err      error
	)
	switch segment {
	case model.SegmentSME:
		listings, err = e.nse.SMEListings(ctx)
	default:
		listings, err = e.nse.MainboardListings(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s symbol list: %w", name, err)
	}

	stats := PassStats{Name: name, Candidates: len(listings)}
	e.logger.Info("processing pass", "pass", name, "candidates", len(listings))

	for i, l := range listings {
		if !e.store.Pending(l.Symbol) {
			stats.Skipped++
			continue
		}
		if err := e.pace(ctx); err != nil {
			return err
		}

		e.logger.Info("fetching classification",
			"pass", name,
			"symbol", l.Symbol,
			"progress", fmt.Sprintf("%d/%d", i+1, len(listings)),
		)
		rec, ferr := e.nse.Classification(ctx, l.Symbol, l.Series, segment)
		if ferr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		e.apply(&stats, l.Symbol, rec, ferr)
		e.maybeCheckpoint(&stats)
	}

	e.finishPass(sum, stats)
	return nil
}

// runBSEPass processes the BSE securities list, keyed by cross-exchange
// ticker symbol.
func (e *Engine) runBSEPass(ctx context.Context, sum *Summary) error {
	const name = "bse"

	securities, err := e.bse.Securities(ctx)
	if err != nil {
		return fmt.Errorf("%s securities list: %w", name, err)
	}

	stats := PassStats{Name: name, Candidates: len(securities)}
	e.logger.Info("processing pass", "pass", name, "candidates", len(securities))

	for i, sec := range securities {
		if !e.store.Pending(sec.Symbol) {
			stats.Skipped++
			continue
		}
		if err := e.pace(ctx); err != nil {
			return err
		}

		e.logger.Info("fetching classification",
			"pass", name,
			"symbol", sec.Symbol,
			"scrip_code", sec.ScripCode,
			"progress", fmt.Sprintf("%d/%d", i+1, len(securities)),
		)
		rec, ferr := e.bse.Classification(ctx, sec.ScripCode)
		if ferr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		e.apply(&stats, sec.Symbol, rec, ferr)
		e.maybeCheckpoint(&stats)
	}

	e.finishPass(sum, stats)
	return nil
}

// apply matches one fetch outcome: populated records are written, misses
// and per-symbol failures leave the symbol absent so the next run retries
// it. A per-symbol failure never aborts the workflow.
func (e *Engine) apply(stats *PassStats, symbol string, rec model.Record, err error) {
	switch {
	case err == nil:
		e.store.Update(symbol, rec)
		stats.Updated++
		e.logger.Info("updated symbol", "pass", stats.Name, "symbol", symbol, "record", rec)
	case errors.Is(err, model.ErrNoData):
		stats.Missed++
		e.logger.Warn("no classification data", "pass", stats.Name, "symbol", symbol)
	default:
		stats.Missed++
		e.logger.Warn("classification fetch failed", "pass", stats.Name, "symbol", symbol, "error", err)
	}
}

// maybeCheckpoint saves the store every CheckpointEvery processed symbols.
// Skipped symbols do not count. A failed checkpoint is reported as lost
// and the run continues; the next checkpoint or the final save covers it.
func (e *Engine) maybeCheckpoint(stats *PassStats) {
	processed := stats.Updated + stats.Missed
	if processed == 0 || processed%e.cfg.CheckpointEvery != 0 {
		return
	}
	if err := e.store.Save(); err != nil {
		e.logger.Warn("checkpoint save failed, progress since last save is at risk",
			"pass", stats.Name,
			"processed", processed,
			"error", err,
		)
		return
	}
	e.logger.Info("checkpoint saved", "pass", stats.Name, "processed", processed)
}

// pace sleeps the configured delay before a per-symbol network call.
// Cancellation aborts the run immediately, leaving the store at its last
// checkpoint.
func (e *Engine) pace(ctx context.Context) error {
	if e.cfg.Pacing == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.Pacing):
		return nil
	}
}

func (e *Engine) finishPass(sum *Summary, stats PassStats) {
	sum.Passes = append(sum.Passes, stats)
	sum.Updated += stats.Updated
	sum.Missed += stats.Missed
	sum.Skipped += stats.Skipped

	e.logger.Info("pass complete",
		"pass", stats.Name,
		"candidates", stats.Candidates,
		"updated", stats.Updated,
		"missed", stats.Missed,
		"skipped", stats.Skipped,
	)
}
