// Package docstore persists typed records as one YAML document per record,
// partitioned into subdirectories, plus a derived index document per tree.
//
// A Store is parameterized by the record type and two functions: one that
// yields the record's identifier (the document filename) and one that yields
// its partition (a subdirectory, typically the year of an associated date;
// empty means a flat layout). Saves are atomic temp-file renames with
// last-write-wins semantics. Loading a whole tree tolerates individual
// corrupt documents: they are logged and skipped, never fatal.
//
// Treat this package as the single source of truth for on-disk layout; the
// catalog, pipeline, and publication views all build on it.
package docstore
