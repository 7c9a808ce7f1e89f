// event.go defines the canonical error event data structure for faultline.

package faultline

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity indicates the severity level of an exception. Lower values are
// more severe, so comparisons of the form sev <= threshold read as
// "at least as severe as".
type Severity int

const (
	// SeverityCritical indicates an unrecoverable failure such as a panic.
	SeverityCritical Severity = iota

	// SeverityError indicates a recoverable error that caused an operation to fail.
	SeverityError

	// SeverityWarning indicates a non-fatal issue that may need attention.
	SeverityWarning

	// SeverityInfo indicates a purely informational event.
	SeverityInfo
)

var severityNames = map[Severity]string{
	SeverityCritical: "critical",
	SeverityError:    "error",
	SeverityWarning:  "warning",
	SeverityInfo:     "info",
}

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "error"
}

// MarshalJSON encodes the severity as its lower-case name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseSeverity maps a severity name to its ordered value.
// Unknown names parse as SeverityError.
func ParseSeverity(name string) Severity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "critical", "crash", "fatal":
		return SeverityCritical
	case "error":
		return SeverityError
	case "warning", "warn":
		return SeverityWarning
	case "info":
		return SeverityInfo
	}
	return SeverityError
}

// ExceptionKind discriminates the exception variant. Specific failure
// domains are kinds, not types; extensions go through Metadata.
type ExceptionKind string

const (
	KindGeneric    ExceptionKind = "error"
	KindAPI        ExceptionKind = "api_error"
	KindAuth       ExceptionKind = "auth_error"
	KindValidation ExceptionKind = "validation_error"
	KindStorage    ExceptionKind = "storage_error"
	KindTimeout    ExceptionKind = "timeout_error"
	KindPanic      ExceptionKind = "panic"
)

// ExceptionSnapshot is a structured view of the triggering error, captured
// once at the failure site.
type ExceptionSnapshot struct {
	// Kind discriminates the exception variant (api, auth, storage, ...).
	Kind ExceptionKind

	// UserMessage is the message suitable for end users.
	UserMessage string

	// DevMessage is the developer-facing description; it feeds the msg
	// fingerprint token.
	DevMessage string

	// Severity orders the exception for policy gating.
	Severity Severity

	// Reportable indicates whether this exception should be reported at all.
	Reportable bool

	// Cause describes the underlying error, if any.
	Cause string

	// StackTrace is the raw stack trace text, if available.
	StackTrace string

	// Metadata contains arbitrary key/value context. A "source" entry, when
	// present, contributes a fingerprint token.
	Metadata map[string]any
}

// TypeName returns the kind identifier used for grouping. Never empty.
func (e ExceptionSnapshot) TypeName() string {
	if e.Kind == "" {
		return string(KindGeneric)
	}
	return string(e.Kind)
}

// Breadcrumb is one entry on the trail of recent application activity.
type Breadcrumb struct {
	Timestamp time.Time      `json:"ts"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Attachment names a file associated with an event. The bytes themselves are
// a transport concern; only the descriptor travels with the event.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// Event is the canonical unit flowing through the pipeline. Events are
// treated as immutable after construction; transforms produce copies.
type Event struct {
	// ID is a unique, time-ordered identifier, generated once.
	ID string

	// Timestamp is the creation instant, UTC.
	Timestamp time.Time

	// Exception is the structured view of the triggering error.
	Exception ExceptionSnapshot

	// Context maps provider name to its collected data.
	Context map[string]map[string]any

	// Breadcrumbs is the bounded trail captured at event creation.
	Breadcrumbs []Breadcrumb

	// Fingerprints is the ordered list of grouping tokens; the first entry
	// is primary for dedupe purposes.
	Fingerprints []string

	// Handled reports whether the error was caught by calling code.
	Handled bool

	// Attachments are descriptors for files associated with this event.
	Attachments []Attachment

	// SanitizedPayload, once set, is authoritative for serialization and
	// outbox storage. It is never re-derived from the live fields.
	SanitizedPayload map[string]any
}

// NewEvent builds an event for the given exception. The ID is a UUIDv7, so
// lexicographic order of IDs follows creation order.
func NewEvent(ex ExceptionSnapshot, handled bool) *Event {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		id = uuid.New()
	}
	return &Event{
		ID:           id.String(),
		Timestamp:    time.Now().UTC(),
		Exception:    ex,
		Handled:      handled,
		Fingerprints: Fingerprints(ex),
	}
}

// Payload returns the serializable form of the event. When a sanitized
// payload has been attached it is returned as-is; otherwise the canonical
// shape is built from the live fields.
func (e *Event) Payload() map[string]any {
	if e.SanitizedPayload != nil {
		return e.SanitizedPayload
	}

	exception := map[string]any{
		"type":        e.Exception.TypeName(),
		"userMessage": e.Exception.UserMessage,
		"devMessage":  e.Exception.DevMessage,
		"severity":    e.Exception.Severity.String(),
		"metadata":    e.Exception.Metadata,
	}
	if e.Exception.Cause != "" {
		exception["cause"] = e.Exception.Cause
	}
	if e.Exception.StackTrace != "" {
		exception["stack"] = e.Exception.StackTrace
	}

	contextData := make(map[string]any, len(e.Context))
	for name, data := range e.Context {
		contextData[name] = data
	}

	payload := map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
		"handled":   e.Handled,
		"exception": exception,
		"context":   contextData,
	}
	if len(e.Fingerprints) > 0 {
		fps := make([]any, len(e.Fingerprints))
		for i, fp := range e.Fingerprints {
			fps[i] = fp
		}
		payload["fingerprints"] = fps
	}
	if len(e.Breadcrumbs) > 0 {
		crumbs := make([]any, len(e.Breadcrumbs))
		for i, c := range e.Breadcrumbs {
			crumb := map[string]any{
				"ts":      c.Timestamp.Format(time.RFC3339Nano),
				"message": c.Message,
			}
			if len(c.Data) > 0 {
				crumb["data"] = c.Data
			}
			crumbs[i] = crumb
		}
		payload["breadcrumbs"] = crumbs
	}
	if len(e.Attachments) > 0 {
		atts := make([]any, len(e.Attachments))
		for i, a := range e.Attachments {
			atts[i] = map[string]any{"name": a.Name, "contentType": a.ContentType}
		}
		payload["attachments"] = atts
	}
	return payload
}

// EncodeJSON serializes the event payload.
func (e *Event) EncodeJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// PrimaryFingerprint returns the first grouping token, or "" when the
// fingerprint list is empty.
func (e *Event) PrimaryFingerprint() string {
	if len(e.Fingerprints) == 0 {
		return ""
	}
	return e.Fingerprints[0]
}

// WithPayload returns a copy of the event carrying the given sanitized
// payload. The receiver is not modified.
func (e *Event) WithPayload(payload map[string]any) *Event {
	clone := *e
	clone.SanitizedPayload = payload
	return &clone
}
