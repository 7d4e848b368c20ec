package patch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/record"
)

// Passes returns the passes in the order a session runs them.
func Passes() []engine.Runner {
	return []engine.Runner{
		ZonesPass(),
		GameSettingsPass(),
		NPCConfigurationPass(),
		NPCLevelsPass(),
		LeveledNPCsPass(),
		ClassesPass(),
		NPCClassesPass(),
	}
}

// Session is one patch run over a load order.
type Session struct {
	base   *loadorder.Store
	tables *config.Tables
	writer *output.Writer
	log    *slog.Logger
	opts   engine.Options
	passes []engine.Runner
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// WithProgressEvery sets the progress log interval of every pass.
func WithProgressEvery(n int) SessionOption {
	return func(s *Session) {
		s.opts.ProgressEvery = n
	}
}

// WithPasses replaces the pass list. Intended for tests.
func WithPasses(passes ...engine.Runner) SessionOption {
	return func(s *Session) {
		s.passes = passes
	}
}

// NewSession prepares a run over base that writes into w.
//
// The output layer is stacked above base between passes, so its name must
// not collide with a layer already in base.
func NewSession(base *loadorder.Store, tables *config.Tables, w *output.Writer, opts ...SessionOption) (*Session, error) {
	if base == nil {
		return nil, fmt.Errorf("new session: nil load order")
	}
	if w == nil {
		return nil, fmt.Errorf("new session: nil output writer")
	}
	if _, exists := base.Layer(w.Name()); exists {
		return nil, &loadorder.LayerError{
			Code:    loadorder.ErrCodeDuplicateLayer,
			Layer:   w.Name(),
			Message: "output layer name is already in the load order",
		}
	}
	if tables == nil {
		tables = emptyTables
	}
	s := &Session{
		base:   base,
		tables: tables,
		writer: w,
		log:    slog.Default(),
		passes: Passes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Writer returns the output writer.
func (s *Session) Writer() *output.Writer {
	return s.writer
}

// Report summarizes a completed session.
type Report struct {
	Output   record.ModKey      `json:"output"`
	Passes   []engine.PassStats `json:"passes"`
	Records  int                `json:"records"`
	Digest   string             `json:"digest"`
	Duration time.Duration      `json:"-"`
}

// Changed returns the total number of changed records over all passes.
// A key changed by several passes counts once per pass.
func (r Report) Changed() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Changed
	}
	return n
}

// Run executes every pass in order. The first fatal pass error aborts the
// session; the output writer then holds a partial layer that must not be
// persisted.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Output: s.writer.Name()}

	for _, p := range s.passes {
		stacked, err := s.base.WithTop(s.writer.Layer())
		if err != nil {
			return report, fmt.Errorf("stack output before %s: %w", p.PassName(), err)
		}
		rc := engine.NewContext(stacked, s.tables, s.log)
		stats, err := p.Run(ctx, rc, s.writer, s.opts)
		report.Passes = append(report.Passes, stats)
		if err != nil {
			return report, err
		}
	}

	digest, err := s.writer.Digest()
	if err != nil {
		return report, fmt.Errorf("digest output: %w", err)
	}
	report.Records = s.writer.Len()
	report.Digest = digest
	report.Duration = time.Since(start)
	s.log.Info("session complete",
		"output", string(report.Output),
		"records", report.Records,
		"digest", report.Digest,
	)
	return report, nil
}
