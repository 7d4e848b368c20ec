// Package record defines the record model shared by every other package.
//
// This package contains type definitions only. All other internal packages
// import record; record imports nothing internal.
//
// Key design constraints:
//   - Records loaded from a layer are never mutated; rules mutate a Clone()
//   - Identity is the FormKey (plugin + local ID) and survives Clone()
//   - References between records are weak, typed Link values resolved by key
//   - All JSON and YAML tags use snake_case
package record
