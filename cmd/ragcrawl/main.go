// Package main provides the entry point for the ragcrawl CLI.
//
// ragcrawl crawls documentation sites into plain text, embeds the text
// into a vector store and answers questions about it with a chat model.
//
// Usage:
//
//	ragcrawl crawl <url>...
//	ragcrawl ingest
//	ragcrawl ask <question>
//	ragcrawl run <url> <question>
//
// See --help for all available options.
package main

// main is the entry point for ragcrawl.
func main() {
	Execute()
}
