// Package embed turns crawled text into embedding vectors.
//
// Text is NFKC normalized, split into overlapping chunks by langchaingo's
// recursive character splitter and embedded in concurrent batches. The
// result maps each chunk to its vector, ready for vectorstore.Store.Upsert.
package embed
