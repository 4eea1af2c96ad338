// Package services defines shared utilities consumed by the pipeline driver
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp episode identifiers, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures for
//     retry bookkeeping in the pipeline tracker.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
