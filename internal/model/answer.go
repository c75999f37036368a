package model

// ScoredText is a stored chunk returned by a similarity query.
type ScoredText struct {
	// Text is the chunk text.
	Text string `json:"text"`

	// Score is the cosine similarity to the query vector.
	Score float32 `json:"score"`

	// Collection is the collection the chunk was found in.
	Collection string `json:"collection"`
}

// Answer is the result of asking a question against the vector store.
//
// Direct is produced from chunks retrieved with the question's own
// embedding. HyDE is produced from chunks retrieved with the embedding
// of a hypothetical answer and is empty when HyDE is disabled.
type Answer struct {
	Question      string       `json:"question"`
	Direct        string       `json:"direct"`
	DirectContext []ScoredText `json:"direct_context,omitempty"`
	Hypothetical  string       `json:"hypothetical,omitempty"`
	HyDE          string       `json:"hyde,omitempty"`
	HyDEContext   []ScoredText `json:"hyde_context,omitempty"`
}
