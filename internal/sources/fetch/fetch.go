// Package fetch holds shared pieces of the candidate source fetchers.
package fetch

import "fmt"

// UserAgent is sent on outbound scraping and download requests.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Error wraps a fetch failure with the source it came from. Fetch errors
// are soft: callers log them and continue with the signals they have.
type Error struct {
	Source string
	Err    error
}

func NewError(source string, err error) *Error {
	return &Error{Source: source, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
