// Package report defines the audit timeline emitted by the executor and
// orchestrator, and the aggregate Report returned by Apply.
package report

import (
	"time"

	"github.com/google/uuid"
)

// EventCode is the closed set of timeline codes, per spec §4.7.
type EventCode string

const (
	EventValidationFail   EventCode = "VALIDATION_FAIL"
	EventVerificationFail EventCode = "VERIFICATION_FAIL"
	EventIdempotentSkip   EventCode = "IDEMPOTENT_SKIP"
	EventTxBegin          EventCode = "TX_BEGIN"
	EventTxCommit         EventCode = "TX_COMMIT"
	EventTxRollback       EventCode = "TX_ROLLBACK"
	EventPrecheckStart    EventCode = "PRECHECK_START"
	EventPrecheckOK       EventCode = "PRECHECK_OK"
	EventPrecheckFail     EventCode = "PRECHECK_FAIL"
	EventActionStart      EventCode = "ACTION_START"
	EventActionOK         EventCode = "ACTION_OK"
	EventActionFail       EventCode = "ACTION_FAIL"
	EventPostcheckStart   EventCode = "POSTCHECK_START"
	EventPostcheckOK      EventCode = "POSTCHECK_OK"
	EventPostcheckFail    EventCode = "POSTCHECK_FAIL"
	EventPatchSuccess     EventCode = "PATCH_SUCCESS"
	EventPatchFailure     EventCode = "PATCH_FAILURE"
)

// Clock returns the current time as epoch milliseconds. The executor and
// orchestrator take a Clock so tests can observe deterministic durations
// (spec §9, "Time source").
type Clock func() int64

// SystemClock is the wall-clock Clock used outside tests.
func SystemClock() int64 { return time.Now().UnixMilli() }

// Event is a single timestamped audit record in a Report's timeline.
type Event struct {
	Timestamp int64             `json:"ts"`
	Code      EventCode         `json:"code"`
	Message   string            `json:"message"`
	Detail    map[string]string `json:"detail"`
}

// NewEvent constructs an Event at ts with an empty detail map when detail
// is nil, so report JSON never carries a null detail field.
func NewEvent(ts int64, code EventCode, message string, detail map[string]string) Event {
	if detail == nil {
		detail = map[string]string{}
	}

	return Event{Timestamp: ts, Code: code, Message: message, Detail: detail}
}

// Report is the aggregate outcome of one Apply call, per spec §3.
type Report struct {
	RunID        string  `json:"runId"`
	PatchID      string  `json:"patchId"`
	Events       []Event `json:"events"`
	StartTime    int64   `json:"startTime"`
	EndTime      int64   `json:"endTime"`
	AffectedRows int32   `json:"affectedRows"`
}

// NewReport constructs a Report with a fresh correlation RunID. RunID is an
// additive field not present in the closed invariants of spec §3; it exists
// so callers can correlate a report with external logs.
func NewReport(patchID string, startTime int64) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		PatchID:   patchID,
		Events:    []Event{},
		StartTime: startTime,
	}
}

// Emit appends ev to the report's timeline.
func (r *Report) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}

// Finish sets EndTime and AffectedRows, closing out the report.
func (r *Report) Finish(endTime int64, affectedRows int32) {
	r.EndTime = endTime
	r.AffectedRows = affectedRows
}

// DurationMs is the derived wall-clock duration of the run.
func (r *Report) DurationMs() int64 {
	return r.EndTime - r.StartTime
}

// Success reports whether the timeline contains a PATCH_SUCCESS event, per
// spec §3's invariant. Other events emitted after it (such as a ledger
// PATCH_FAILURE) do not change the result.
func (r *Report) Success() bool {
	for _, ev := range r.Events {
		if ev.Code == EventPatchSuccess {
			return true
		}
	}

	return false
}
