// Package builder provides fluent construction of query descriptions and
// join templates.
//
// Builders enforce clause ordering (SELECT, FROM, JOINs, WHERE, ORDER BY,
// pagination) as a phase machine. A call made out of order, or a call
// that repeats a single-shot clause, records a MisuseError; the chain
// stays callable so the whole expression reads naturally, and the first
// recorded misuse is returned by Build. Misuse is a programming error in
// the calling code, never a data error.
//
// COMBINATOR SEMANTICS:
//
// Within one condition group, And appends a sibling and Or appends a
// sibling AND switches the whole group to OR. Chains therefore stay
// flat: And(a).Or(b).Or(c) produces ONE group with three children
// combined by OR, not a nested tree. Mixing AND and OR at different
// levels is done exclusively through AndGroup / OrGroup, which open an
// explicitly nested subgroup.
package builder
