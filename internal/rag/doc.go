// Package rag connects crawled text to answers.
//
// Ingester embeds the text files a crawl wrote and stores the vectors;
// Asker retrieves the nearest chunks for a question and has the chat model
// answer from them, optionally a second time from chunks retrieved with a
// hypothetical answer (HyDE).
package rag
