package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/record"
)

// DefaultProgressEvery is the record batch size between progress messages.
const DefaultProgressEvery = 100

// Options tune how a pass reports progress.
type Options struct {
	// ProgressEvery is the processed-record interval between progress log
	// lines. Zero selects DefaultProgressEvery; negative disables them.
	ProgressEvery int
}

func (o Options) every() int {
	if o.ProgressEvery == 0 {
		return DefaultProgressEvery
	}
	return o.ProgressEvery
}

// PassStats summarizes one completed pass.
type PassStats struct {
	Name      string          `json:"name"`
	Category  record.Category `json:"category"`
	Processed int             `json:"processed"`
	Changed   int             `json:"changed"`
	Skipped   int             `json:"skipped"`
	Duration  time.Duration   `json:"-"`
}

// Runner is a pass with its record type erased, so passes over different
// categories can be sequenced together.
type Runner interface {
	PassName() string
	Run(ctx context.Context, rc *Context, w *output.Writer, opts Options) (PassStats, error)
}

// Pass runs one pipeline over every winner of a category.
type Pass[T record.Record] struct {
	Name     string
	Category record.Category
	Pipeline *Pipeline[T]

	// Skip excludes a winner from the pipeline entirely. Optional.
	Skip func(rec T, ctx *Context) bool
}

// PassName implements Runner.
func (p *Pass[T]) PassName() string {
	return p.Name
}

// Run enumerates the winners of p.Category against rc's store, applies the
// pipeline to each, and commits changed copies to w.
//
// Cancellation is checked between records and aborts the pass.
func (p *Pass[T]) Run(ctx context.Context, rc *Context, w *output.Writer, opts Options) (PassStats, error) {
	stats := PassStats{Name: p.Name, Category: p.Category}
	start := time.Now()
	log := rc.Logger().With("pass", p.Name)

	winners, err := rc.Store().AllWinningOverrides(p.Category)
	if err != nil {
		return stats, &PassError{
			Code:     ErrCodeStructuralFailure,
			Pass:     p.Name,
			Category: p.Category,
			Message:  "cannot enumerate winners",
			Err:      err,
		}
	}

	every := opts.every()
	log.Info("pass started", "category", p.Category, "rules", p.Pipeline.String())

	for r := range winners {
		if err := ctx.Err(); err != nil {
			return stats, &PassError{
				Code:     ErrCodeAborted,
				Pass:     p.Name,
				Category: p.Category,
				Message:  "run cancelled",
				Err:      err,
			}
		}

		rec, ok := r.(T)
		if !ok {
			log.Warn("winner has unexpected type, skipping",
				"form_key", r.FormKey().String())
			stats.Skipped++
			continue
		}
		if p.Skip != nil && p.Skip(rec, rc) {
			stats.Skipped++
			continue
		}

		res := p.Pipeline.Run(rec, rc)
		stats.Processed++
		if res.IsChanged() {
			if err := w.Commit(p.Category, res.Record()); err != nil {
				return stats, &PassError{
					Code:     ErrCodeCommitFailed,
					Pass:     p.Name,
					Category: p.Category,
					Key:      rec.FormKey(),
					Message:  "output writer rejected record",
					Err:      err,
				}
			}
			stats.Changed++
		}

		if every > 0 && stats.Processed%every == 0 {
			log.Info("pass progress", "processed", stats.Processed)
		}
	}

	stats.Duration = time.Since(start)
	log.Info("pass complete",
		slog.Int("processed", stats.Processed),
		slog.Int("changed", stats.Changed),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}
