package model

// IngestStats summarizes one ingest run.
type IngestStats struct {
	// Files is the number of text files consumed.
	Files int `json:"files"`

	// Chunks is the number of distinct chunks upserted.
	Chunks int `json:"chunks"`

	// Collection is the collection the chunks were stored in.
	Collection string `json:"collection"`
}

// Session carries the state of one pipeline run from step to step.
// Each step reads what earlier steps produced and fills in its own part.
type Session struct {
	// StartURL is the crawl seed. Empty when the pipeline does not crawl.
	StartURL string `json:"start_url,omitempty"`

	// Question is the question to answer. Empty when the pipeline does not ask.
	Question string `json:"question,omitempty"`

	// Crawl is set by the crawl step.
	Crawl *CrawlResult `json:"crawl,omitempty"`

	// CrawlID is the database row id assigned by the record step.
	CrawlID int64 `json:"crawl_id,omitempty"`

	// Ingest is set by the ingest step.
	Ingest *IngestStats `json:"ingest,omitempty"`

	// Answer is set by the ask step.
	Answer *Answer `json:"answer,omitempty"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// StepErrors collects errors from steps that failed while the
	// pipeline was configured to continue.
	StepErrors []string `json:"step_errors,omitempty"`

	// Cancelled is set when the pipeline stopped on context cancellation.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewSession creates a session for the given crawl seed and question.
func NewSession(startURL, question string) *Session {
	return &Session{StartURL: startURL, Question: question}
}
