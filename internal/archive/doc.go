// Package archive talks to the archive.org APIs: collection search, item
// metadata, catalog scanning, and verified audio downloads.
package archive
