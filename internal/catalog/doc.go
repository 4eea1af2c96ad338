// Package catalog maintains the local view of episodes available on the
// archive host: one immutable-once-discovered record per source item, backed
// by a year-partitioned document tree under <state>/archive_org.
//
// Re-discovery overwrites a record in place (last write wins); records are
// never deleted. The view is the discovery side of the pipeline; processing
// progress lives in the pipeline package, joined by identifier only.
package catalog
