package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that no record carries the requested Id.
var ErrNotFound = errors.New("record not found")

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(kind string, id int) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// NetworkError is a transport or top-level remote API failure. Callers may
// retry it, unlike validation failures.
type NetworkError struct {
	Op         string
	Table      string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.Table)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FieldError is a field-level message attached to a failed record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RecordFailure describes one record of a batch the remote API rejected.
type RecordFailure struct {
	Index   int          `json:"index"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// PartialBatchFailure reports a batch where some records were rejected. The
// succeeded ids were applied remotely and stay applied.
type PartialBatchFailure struct {
	Op        string
	Table     string
	Succeeded []int
	Failed    []RecordFailure
}

func (e *PartialBatchFailure) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msg := f.Message
		for _, fe := range f.Fields {
			msg = strings.TrimSpace(msg + " " + fe.Field + ": " + fe.Message)
		}
		parts = append(parts, fmt.Sprintf("#%d %s", f.Index, msg))
	}
	return fmt.Sprintf("%s %s: %d succeeded, %d failed (%s)", e.Op, e.Table, len(e.Succeeded), len(e.Failed), strings.Join(parts, "; "))
}

// IsRetryable reports whether err is a network-class failure.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
