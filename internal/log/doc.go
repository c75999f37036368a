// Package log provides slog loggers that never write credentials.
//
// ragcrawl talks to an embedding provider, a chat model, a vector store and
// optionally Redis, all of which are configured with secrets. The
// SecureHandler masks those secrets when they show up in log attributes:
//   - attribute keys such as api_key, openai_api_key or authorization
//   - values shaped like provider keys (sk-...) or bearer tokens
//   - the password part of connection URLs (redis://:pass@host)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("page failed", "url", pageURL, "error", err)
package log
