// Package loadorder implements the layered record store.
//
// A Store is an immutable stack of Layers ordered lowest priority first.
// Resolution walks the stack in priority order (highest first) and the
// first layer that mentions a key decides: a definition wins, a tombstone
// makes the key resolve to nothing regardless of lower layers.
//
// Stores never change after construction. Stacking the output of a pass on
// top of the load order is done with WithTop, which returns a new Store and
// leaves the receiver untouched, so a pass always reads a frozen snapshot.
package loadorder
