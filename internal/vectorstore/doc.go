// Package vectorstore stores embedded chunks and finds the ones nearest
// to a query vector.
//
// Store has three implementations: QdrantStore talks to a Qdrant server
// over its REST API, MemoryStore keeps everything in process, and
// database.VectorStore persists vectors in the local SQLite database.
// All of them score by cosine similarity and return hits best first,
// merged across the searched collections.
package vectorstore
