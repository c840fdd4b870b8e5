// Package harness runs declarative compilation scenarios.
//
// A scenario is a YAML file bundling a registry (tables plus optional
// join templates), one query description, compile options, and the
// expected outcome: either the exact SQL text with its parameter map, or
// a compile error code. Scenarios double as conformance tests and as
// living documentation of the compiler's output format.
//
// Golden-file comparison serializes {scenario, sql, params} through
// canonical JSON, so snapshots are byte-stable across runs and Go
// versions.
package harness
