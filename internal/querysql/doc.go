// Package querysql compiles validated query descriptions to parameterized
// T-SQL.
//
// Compile is a pure function: it performs no I/O, reads only the query
// description and the schema registry, and either returns complete SQL
// text with its parameter map or a CompileError - never partial SQL.
//
// SECURITY MODEL:
//
// Every identifier in the rendered SQL comes from the schema registry,
// never from the payload. The payload's alias/table pairs are checked
// against the registry, and the registry's (schema-qualified) table name
// is what gets rendered. Values never appear in the SQL text at all:
// each one is assigned a fresh @pN parameter by an explicit per-compile
// counter threaded through the recursive render calls, so compilation is
// reentrant and safe to invoke concurrently.
//
// FROM RESOLUTION:
//
// Three mutually exclusive paths, in decreasing order of trust:
//
//  1. Options.Template - a named, preregistered FROM+JOIN skeleton. The
//     payload cannot alter the table structure, only attach filters,
//     sorting, and pagination.
//  2. Options.FixedFrom - a server-pinned base table for typed endpoints
//     that still accept dynamic joins and filters.
//  3. The payload's own from clause - fully dynamic, subject to the
//     strictest checks.
package querysql
