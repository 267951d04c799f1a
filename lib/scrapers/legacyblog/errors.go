package legacyblog

import "fmt"

type ExtractionKind string

const (
	MissingTitle  ExtractionKind = "missing_title"
	MissingAuthor ExtractionKind = "missing_author"
	MissingBody   ExtractionKind = "missing_body"
	BadTimestamp  ExtractionKind = "bad_timestamp"
)

// ExtractionError means the source document is malformed. It is fatal
// to that post's extraction; the batch continues with the next one.
type ExtractionError struct {
	URL   string
	Kind  ExtractionKind
	Cause error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed (%s) for %s", e.Kind, e.URL)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause.Error())
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// FetchError means the source document was unreachable or did not come
// back as a parseable page.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch failed for %s: %s", e.URL, e.Cause.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
