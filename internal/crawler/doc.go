// Package crawler implements the concurrent document crawler that feeds
// the RAG pipeline.
//
// # Architecture
//
// A Spider coordinates one crawl through three states. While SEEDED the
// output directories exist, the frontier holds the start URL at depth 0
// and the seen set holds the start URL. While DRAINING the coordinator
// pops frontier entries and hands them to a fixed pool of page workers.
// DONE is reached when the frontier is empty and no worker is busy, and
// the crawl returns every URL in the seen set.
//
// # Components
//
//   - Handler / Registry: per-format text and link extraction (HTML, PDF, DOCX)
//   - Frontier: FIFO of (url, depth) entries
//   - SeenSet: atomic insert-if-absent set, in memory or in Redis
//   - Admitter: allow-list, ignore patterns, depth bound and deduplication
//   - page worker: fetch, classify, write text, admit links
//
// # Output layout
//
// Extracted text is written to {outputDir}/text/{domain}/{name}.txt where
// name is derived from the URL (see TextPath). {outputDir}/processed/ is
// created for the ingest step, which moves consumed files there.
//
// # Usage
//
//	client, _ := fetch.NewClient()
//	spider := crawler.NewSpider(client,
//	    crawler.WithMaxDepth(2),
//	    crawler.WithWorkers(4),
//	    crawler.WithAllowedPrefixes([]string{"https://docs.example.com"}),
//	    crawler.WithOutputDir("out"),
//	)
//	result, err := spider.Crawl(ctx, "https://docs.example.com")
package crawler
