// Package patch holds the unleveling rules and the session that runs them.
//
// A Session runs its passes in a fixed order over one load order:
//
//	zones -> game_settings -> npc_configuration -> npc_levels ->
//	leveled_npcs -> classes -> npc_classes
//
// Before each pass the output written so far is stacked on top of the load
// order, so a pass sees the edits of every pass before it. Every rule
// reports a change only when a value actually differs; running a session
// over its own output produces an empty output layer.
package patch
