package notify

import (
	"fmt"
	"net/http"
)

// Outcome is the two-way result of a mark-read request.
type Outcome int

const (
	Success Outcome = iota
	Fault
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "fault"
}

// Result reports what happened to one trigger.
type Result struct {
	ID        string
	RequestID string
	Outcome   Outcome
	// Status is the HTTP status, zero when no response arrived.
	Status int
	Err    error
}

// OK reports whether the server confirmed the transition.
func (r Result) OK() bool { return r.Outcome == Success }

func succeeded(id, requestID string, status int) Result {
	return Result{ID: id, RequestID: requestID, Outcome: Success, Status: status}
}

func faulted(id, requestID string, status int, err error) Result {
	return Result{ID: id, RequestID: requestID, Outcome: Fault, Status: status, Err: err}
}

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}
