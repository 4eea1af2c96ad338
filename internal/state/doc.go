// Package state opens the on-disk migration state as a unit: the archive
// catalog, the processing pipeline, and the publication view, guarded by a
// single-process file lock so two batch runs cannot interleave writes.
package state
