// Package schema holds the table allow-list registry and the named join
// template registry.
//
// The registry is the single source of truth for which identifiers may
// appear in generated SQL. Every alias, table name, and column reference
// that the compiler accepts routes through a lookup here; anything the
// registry does not know is rejected before SQL is produced.
//
// Registries are populated once at startup (directly in code or from CUE
// configuration via the config compiler) and are read-only afterwards.
// Reads require no locking because no mutation happens after
// initialization.
//
// NAMED JOIN TEMPLATES:
//
// A join template is a trusted, preconfigured FROM+JOIN skeleton stored
// under a name. Endpoints that must not accept arbitrary joins from a
// request payload compile against a template: the caller can attach
// filters, sorting, and pagination, but cannot alter the table structure.
package schema
