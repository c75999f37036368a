// Package fetch provides the HTTP client the crawler uses to download
// pages and documents.
//
// Requests carry a desktop browser User-Agent, are bounded by a timeout
// and a response size cap, and can optionally be routed through a SOCKS5
// proxy (for example a local Tor daemon or an SSH tunnel):
//
//	client, err := fetch.NewClient(
//	    fetch.WithTimeout(30*time.Second),
//	    fetch.WithProxy("127.0.0.1:9050"),
//	)
//	doc, err := client.Fetch(ctx, "https://example.com/docs")
package fetch
