package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/unlevel/internal/record"
)

// Result is the outcome of applying a rule: Unchanged, or Changed carrying
// a full copy of the record. There is no partial result.
type Result[T record.Record] struct {
	rec     T
	changed bool
}

// Unchanged reports a no-op.
func Unchanged[T record.Record]() Result[T] {
	return Result[T]{}
}

// Changed reports a mutated copy. rec must be a copy, never the input.
func Changed[T record.Record](rec T) Result[T] {
	return Result[T]{rec: rec, changed: true}
}

// IsChanged reports whether the rule produced a copy.
func (r Result[T]) IsChanged() bool {
	return r.changed
}

// Record returns the mutated copy; zero when unchanged.
func (r Result[T]) Record() T {
	return r.rec
}

// Rule is a named, pure transformation of one record.
type Rule[T record.Record] struct {
	Name  string
	Apply func(rec T, ctx *Context) Result[T]
}

// Mutate builds a Rule from an in-place edit. fn receives a fresh copy of
// the record and reports whether it changed anything; the copy is discarded
// when it reports false.
func Mutate[T record.Record](name string, fn func(cp T, ctx *Context) bool) Rule[T] {
	return Rule[T]{
		Name: name,
		Apply: func(rec T, ctx *Context) Result[T] {
			cp, ok := rec.Clone().(T)
			if !ok {
				return Unchanged[T]()
			}
			if !fn(cp, ctx) {
				return Unchanged[T]()
			}
			return Changed(cp)
		},
	}
}

// Pipeline applies rules in declaration order. Each rule sees the latest
// copy produced by the rules before it.
//
// INVARIANTS:
//   - rules slice order NEVER changes after construction
//   - the input record is never mutated
type Pipeline[T record.Record] struct {
	rules []Rule[T]
}

// NewPipeline builds a pipeline. The rules slice is copied to preserve
// declaration order against later mutation by the caller.
func NewPipeline[T record.Record](rules ...Rule[T]) *Pipeline[T] {
	cp := make([]Rule[T], len(rules))
	copy(cp, rules)
	return &Pipeline[T]{rules: cp}
}

// Names returns the rule names in evaluation order.
func (p *Pipeline[T]) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}

// String returns the rule names joined by " -> ".
func (p *Pipeline[T]) String() string {
	return strings.Join(p.Names(), " -> ")
}

// Run applies every rule to rec. The aggregate is Changed(final copy) if any
// rule changed the record, Unchanged otherwise.
func (p *Pipeline[T]) Run(rec T, ctx *Context) Result[T] {
	if p == nil {
		return Unchanged[T]()
	}
	cur := rec
	changed := false
	for _, rule := range p.rules {
		res := p.apply(rule, cur, ctx)
		if res.changed {
			cur = res.rec
			changed = true
		}
	}
	if !changed {
		return Unchanged[T]()
	}
	return Changed(cur)
}

// apply runs one rule behind a recover boundary.
func (p *Pipeline[T]) apply(rule Rule[T], rec T, ctx *Context) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			logRuleFailure(ctx.Logger(), rule.Name, rec, fmt.Errorf("panic: %v", r))
			res = Unchanged[T]()
		}
	}()

	if rule.Apply == nil {
		return Unchanged[T]()
	}
	res = rule.Apply(rec, ctx)
	if res.changed && any(res.rec) == nil {
		logRuleFailure(ctx.Logger(), rule.Name, rec, fmt.Errorf("changed result without a record"))
		return Unchanged[T]()
	}
	if res.changed && res.rec.FormKey() != rec.FormKey() {
		logRuleFailure(ctx.Logger(), rule.Name, rec, fmt.Errorf("copy changed identity to %s", res.rec.FormKey()))
		return Unchanged[T]()
	}
	return res
}

func logRuleFailure(log *slog.Logger, rule string, rec record.Record, err error) {
	log.Warn("rule failed, record left unchanged by this rule",
		"rule", rule,
		"category", rec.Category(),
		"form_key", rec.FormKey().String(),
		"error", err,
	)
}
