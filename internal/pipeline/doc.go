// Package pipeline tracks each episode's progress through the migration
// stages: discovery, download, conversion, upload, publication.
//
// The Tracker owns one mutable record per episode, keyed by the catalog
// identifier, persisted immediately on every mutation into a year-partitioned
// document tree under <state>/processing_history. Registration is idempotent:
// re-running discovery never regresses an in-progress or completed record.
// Stage transitions only move records forward or into failed/skipped, and
// failure bookkeeping (retry count, append-only error history) never discards
// artifact paths, so retries resume from the last good stage.
//
// Treat this package as the single source of truth for stage semantics; when
// you add a stage, update the ordered stage list and the artifact mapping in
// Transition together.
package pipeline
