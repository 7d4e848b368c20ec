// Package harness runs patch scenarios end to end and checks their output.
//
// A scenario names a load order manifest, an optional config directory and
// a list of assertions. The harness loads the layers, builds the rule
// tables, runs a full patch session, persists the run to an in-memory
// store and evaluates the assertions against the output layer.
//
// # Scenario Format
//
//	name: bandit_camp
//	description: "Dungeon zones are pinned and their NPCs follow"
//	load_order: world/loadorder.yaml
//	config: config
//	output: Unlevel.esp
//	assertions:
//	  - type: output_contains
//	    category: npc
//	    form_key: 000600:Skyrim.esm
//	    expect: { level: 30, level_mult: 1 }
//	  - type: output_absent
//	    category: npc
//	    form_key: 000601:Skyrim.esm
//	  - type: output_count
//	    count: 3
//	  - type: pass_changed
//	    pass: zones
//	    count: 1
//	  - type: stored_run
//	    count: 3
//	  - type: fixed_point
//
// Paths are relative to the scenario file. Without config the schema
// defaults apply. expect is a subset match against the JSON form of the
// output record.
//
// # Deterministic Testing
//
// Runs are stored with testutil.FixedRunIDGenerator and
// testutil.DeterministicClock, and the output is enumerated in key order,
// so the trace of a scenario is identical across runs. RunWithGolden
// compares that trace with testdata/golden/{name}.golden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/bandit_camp.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
