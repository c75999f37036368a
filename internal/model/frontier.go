package model

// FrontierEntry is a URL waiting to be crawled together with the link
// depth at which it was discovered. The start URL has depth 0 and every
// admitted link has its parent's depth plus one.
type FrontierEntry struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}
