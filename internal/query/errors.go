package query

import "fmt"

// Error codes for query precondition failures (spec §7). These are
// never returned for internal invariant violations — those are plain
// wrapped errors, reserved for bugs rather than caller mistakes.
const (
	CodeNotFound     = "not_found"
	CodeInvalidPath  = "invalid_path"
	CodeInvalidRegex = "invalid_regex"
	CodeOutOfRange   = "out_of_range"
)

// Error is the typed result for a query precondition failure: an
// unknown symbol, a path outside the project, a malformed regex, or an
// out-of-range line slice. It is returned as a value, not panicked,
// so the MCP adapter and CLI can render a consistent response.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func notFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidPath(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidPath, Message: fmt.Sprintf(format, args...)}
}

func invalidRegex(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRegex, Message: fmt.Sprintf(format, args...)}
}

func outOfRange(format string, args ...any) *Error {
	return &Error{Code: CodeOutOfRange, Message: fmt.Sprintf(format, args...)}
}
