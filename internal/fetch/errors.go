package fetch

import "errors"

// Fetch errors.
// Callers use errors.Is to tell configuration mistakes apart from
// per-request failures, which the crawler treats as page-level errors.
var (
	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrHTTPStatus is returned when the server answers with a 4xx or 5xx
	// status. The wrapped message carries the status code.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)
