package executor

import (
	"fmt"
	"strings"

	providererrors "github.com/digitallysavvy/go-ai-core/pkg/provider/errors"
)

// AttemptRecord is one classified failure against one target, kept so the
// final surfaced error can report why every path failed.
type AttemptRecord struct {
	Target     string
	Attempt    int
	Kind       providererrors.ErrorKind
	HTTPStatus int
	Message    string
}

// ExecutionError is what Execute/ExecuteStream return once every target and
// retry has been exhausted: the last classified error plus the full
// attempt history that produced it.
type ExecutionError struct {
	Attempts []AttemptRecord
	Last     *providererrors.ClassifiedError
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all targets exhausted, last error: %s", e.Last.Error())
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s attempt %d: %s", a.Target, a.Attempt, a.Kind)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Last }
