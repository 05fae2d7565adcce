package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a malformed agent definition. Validation
// failures are never retried.
type ValidationError struct {
	Agent  string // offending definition name, when known
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Agent == "" {
		return "invalid agent definition: " + e.Reason
	}
	return fmt.Sprintf("invalid agent definition %q: %s", e.Agent, e.Reason)
}

// CycleError reports a dependency cycle between agent definitions. A
// cycle aborts the whole batch; no partial order is produced.
type CycleError struct {
	Members []string // cycle path, first member repeated at the end
}

func (e *CycleError) Error() string {
	return "circular dependency between agents: " + strings.Join(e.Members, " -> ")
}

// transienter is implemented by errors describing retryable conditions,
// such as network failures or service overload. See foundry.APIError.
type transienter interface {
	Transient() bool
}

// IsTransient reports whether err describes a transient remote failure
// that the retry policy may attempt again. Context cancellation and
// validation failures are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}
