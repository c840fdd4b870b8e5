// Package store executes compiled queries against a database/sql handle.
//
// The store is a deliberately thin collaborator: it receives finished
// SQL text plus a parameter map and binds the parameters by name. It
// never inspects, rewrites, or re-validates the SQL - all validation
// happened in the compiler, and the store trusts its output exactly as
// a hand-written prepared statement would be trusted.
//
// Every statement execution is tagged with a UUIDv7 statement ID that
// appears in debug logs and in wrapped errors, so a failing statement in
// production logs can be correlated with the query that produced it.
package store
