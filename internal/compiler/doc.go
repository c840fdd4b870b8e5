// Package compiler turns CUE configuration into a populated schema
// registry.
//
// Registry config lives in CUE rather than JSON or YAML so table
// definitions can share column lists, use constraints, and be validated
// by the CUE evaluator before this package ever sees them. Compilation
// uses the CUE SDK's Go API directly, not a CLI subprocess.
package compiler
