// Package engine implements the rule pipeline that rewrites winning records.
//
// ARCHITECTURE:
//
// A Pass walks the winning overrides of one category, pulls each record
// through a Pipeline of Rules, and commits every changed result to the
// output writer. A pass is the unit of work: it runs to completion or
// aborts with a PassError; a partial output layer is never trusted.
//
// Rule Evaluation:
//  1. The store yields winners in stable key order (read-only snapshot)
//  2. Each Rule receives the latest record and an explicit Context
//  3. A Rule returns Unchanged or Changed(copy); it never mutates its input
//  4. If any rule changed the record, the final copy is committed once
//  5. If every rule reported Unchanged, nothing is written
//
// Failure Containment:
// Rules resolve auxiliary data through optional returns and pick their own
// fallback values. A panic escaping a rule is recovered at the rule boundary
// and treated as Unchanged for that rule, so one malformed record never
// aborts the pass. Only failures that prevent enumeration or committing are
// fatal.
//
// Evaluation is single-threaded and deterministic: rules run in declaration
// order and records in key order. The output writer serializes commits, so
// per-record parallelism would need no further coordination.
package engine
