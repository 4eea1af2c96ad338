// Package publication maintains the video platform view of the migration
// state: one document per published episode under the youtube subtree,
// recording upload metadata, scheduling, and engagement counters.
package publication
