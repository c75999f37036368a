// Package pipeline runs ragcrawl's stages in sequence.
//
// A Pipeline executes Steps over a model.Session: crawl a site, record the
// crawl in the database, ingest the written text into the vector store and
// answer a question. Each command builds the pipeline it needs; `run`
// uses all four steps. BatchProcessor runs one pipeline per start URL with
// bounded concurrency.
//
// Design decision: steps depend on small interfaces (Crawler, Recorder,
// Ingester, Asker) rather than concrete packages, so each is tested with
// fakes and the pipeline package imports none of the heavy dependencies.
package pipeline
