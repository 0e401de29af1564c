// Package harness runs filter conformance scenarios against a real store.
//
// A scenario names a board file, seeds a fresh SQLite database and then
// evaluates a list of steps through the engine. Each step states the task
// ids it expects, the triples it expects to be dropped, or the runtime
// error code it expects.
//
// # Scenario Format
//
//	name: sprint_board
//	description: "What this scenario validates"
//	board: ../boards/sprint.yaml      # relative to the scenario file
//	now: "2026-03-12"                 # fixed clock for relative dates
//	week_start: monday
//	setup:
//	  users:  [{id: 1, name: ana, role: engineer}]
//	  labels: [{id: 1, name: bug}]
//	  tasks:
//	    - id: 1
//	      fields: {title: "Fix login API", status: todo}
//	      values: {Notes: "api timeout"}   # EAV columns by reference
//	      labels: [1]
//	steps:
//	  - name: open work
//	    filter: open work                # a board filter set, or
//	    where:                           # inline triples
//	      - {column_reference: Status, operator: not_equals, value: done}
//	    expect:
//	      tasks: [1]
//	      dropped: [INVALID_VALUE]
//	      error: UNKNOWN_COLUMN
//
// # Golden Files
//
// RunWithGolden renders every step's SQL, parameters, matches and drops
// as plain text and compares it with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
