// Package database provides SQLite-based storage for ragcrawl.
//
// A CrawlDB stores:
//   - crawl runs with their full results, for later inspection
//   - page outcomes, indexed by URL
//   - embedded chunks, when the sqlite vector store is selected
//
// Design decision: SQLite via modernc.org/sqlite. The database is a single
// file under the XDG data directory and the driver needs no cgo.
package database
