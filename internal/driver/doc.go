// Package driver runs the batch migration passes: discover, download,
// convert, upload. Each pass walks its pending set sequentially, records
// per-episode failures without stopping, and leaves the state documents
// consistent after every episode.
package driver
