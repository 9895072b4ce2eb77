package trello

import (
	"errors"
	"fmt"
)

// Sentinel errors for API failures. Callers match them with errors.Is.
var (
	// ErrAuth indicates the API rejected the supplied key/token.
	ErrAuth = errors.New("trello: invalid credentials")

	// ErrNotFound indicates the requested board, list, or card does not exist.
	ErrNotFound = errors.New("trello: resource not found")

	// ErrNetwork indicates a transport failure, timeout, or unexpected
	// non-success response.
	ErrNetwork = errors.New("trello: network error")
)

// DownloadError wraps a failed attachment download. Download failures are
// not fatal to a migration run; the caller logs them and moves on.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("trello: download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// statusErr maps an HTTP status code to the matching sentinel.
func statusErr(statusCode int, status, url string) error {
	switch statusCode {
	case 401, 403:
		return fmt.Errorf("%w: %s (%s)", ErrAuth, status, url)
	case 404:
		return fmt.Errorf("%w: %s (%s)", ErrNotFound, status, url)
	default:
		return fmt.Errorf("%w: unexpected status %s (%s)", ErrNetwork, status, url)
	}
}
