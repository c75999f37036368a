// Package model defines the data structures shared by the crawler, the
// RAG services and the reports.
//
// The main types are:
//   - Document: a fetched resource handed to a content handler
//   - FrontierEntry: a URL waiting to be crawled at a given depth
//   - PageOutcome and CrawlResult: what a crawl produced
//   - ScoredText and Answer: retrieval results and generated answers
//   - Session: state threaded through a pipeline run
//
// Design decision: the types live in their own package so that crawler,
// database, report and pipeline can share them without import cycles.
package model
