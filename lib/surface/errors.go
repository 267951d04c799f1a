package surface

import "fmt"

type ErrorKind string

const (
	ErrorElementNotFound ErrorKind = "element_not_found"
	ErrorTimeout         ErrorKind = "timeout"
)

// Error reports that the destination UI is unresponsive or unexpectedly
// shaped. It is fatal to the affected post's replay, not to the batch.
type Error struct {
	Kind    ErrorKind
	Locator Locator
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("interaction failed (%s)", e.Kind)
	if e.Locator != "" {
		msg = fmt.Sprintf("%s at %q", msg, e.Locator)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NotFound(locator Locator) *Error {
	return &Error{Kind: ErrorElementNotFound, Locator: locator}
}

func Timeout(locator Locator, cause error) *Error {
	return &Error{Kind: ErrorTimeout, Locator: locator, Cause: cause}
}
