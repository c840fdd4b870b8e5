// Package queryir defines the intermediate representation for dynamic
// catalog queries: the condition grammar (WHERE/ON trees), join clauses,
// sort keys, and the QueryDescription consumed by the SQL compiler.
//
// ARCHITECTURE:
//
// The IR is the abstraction boundary between query producers (the fluent
// builder, JSON payloads from clients, named join templates) and the SQL
// backend:
//
//	[builder / JSON payload] → [query IR] → [querysql compiler]
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only types
// in this package implement it:
//
//   - Condition:       column compared to a value (consumes parameters)
//   - ColumnCondition: column compared to another column (join ON leaves)
//   - Group:           AND/OR combination of child nodes
//
// Sealing enables exhaustive type switches in the compiler: a tree walk
// that encounters an unknown node reports a grammar violation instead of
// silently rendering wrong SQL.
//
// COMBINATOR INVARIANT:
//
// A Group carries exactly one combinator. Its rendered SQL always wraps
// the children in one parenthesis pair, and nesting groups is the only
// way to mix AND and OR in a single expression. A flat group never mixes
// combinators among its direct children.
//
// VALUES:
//
// Values never appear in identifiers and never reach the rendered SQL
// text; the compiler moves every value into the parameter map. IS NULL
// and IS NOT NULL conditions carry no value; IN and NOT IN carry a slice
// (possibly empty - an empty list compiles to a tautologically false
// predicate rather than invalid SQL).
package queryir
