package hl7v2

import (
	"fmt"
	"strings"
)

// Severity classifies a ParseError. Errors never remove data; they only
// annotate it.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText renders the severity as "warning" or "error" in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorKind is the closed taxonomy of parse problems.
type ErrorKind string

const (
	// Fatal kinds. Only these reject a message.
	KindHeaderCorrupt   ErrorKind = "HeaderCorrupt"
	KindMessageTooLarge ErrorKind = "MessageTooLarge"

	KindSegmentMalformed       ErrorKind = "SegmentMalformed"
	KindEscapeSequenceUnknown  ErrorKind = "EscapeSequenceUnknown"
	KindRequiredFieldMissing   ErrorKind = "RequiredFieldMissing"
	KindTypeCoercionFailed     ErrorKind = "TypeCoercionFailed"
	KindUnknownSegmentType     ErrorKind = "UnknownSegmentType"
	KindRequiredSegmentMissing ErrorKind = "RequiredSegmentMissing"
	KindUnexpectedSegmentOrder ErrorKind = "UnexpectedSegmentOrder"
)

// Fatal reports whether the kind aborts the parse.
func (k ErrorKind) Fatal() bool {
	return k == KindHeaderCorrupt || k == KindMessageTooLarge
}

// hl7ErrorCode maps the error to HL7 table 0357 (message error condition
// codes). 207 is left for failures outside the message itself.
func (e ParseError) hl7ErrorCode() (code, text string) {
	switch e.Kind {
	case KindHeaderCorrupt:
		if e.Field > 0 {
			return "101", "Required field missing"
		}
		return "102", "Data type error"
	case KindMessageTooLarge:
		return "102", "Data type error"
	case KindRequiredFieldMissing:
		return "101", "Required field missing"
	case KindTypeCoercionFailed, KindEscapeSequenceUnknown:
		return "102", "Data type error"
	case KindSegmentMalformed, KindRequiredSegmentMissing, KindUnexpectedSegmentOrder, KindUnknownSegmentType:
		return "100", "Segment sequence error"
	default:
		return "207", "Application internal error"
	}
}

// ParseError is a single problem found while parsing a message.
type ParseError struct {
	Segment     int       `json:"segment,omitempty"`     // 1-based position in the message; 0 for message-level problems
	SegmentType string    `json:"segmentType,omitempty"` // e.g. "PID"
	Field       int       `json:"field,omitempty"`       // 1-based HL7 field position; 0 when not field-specific
	Kind        ErrorKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`

	// Set on a fatal error raised after the delimiters were resolved, so a
	// rejection can still answer in the sender's encoding.
	delims *Delimiters
	header *GenericSegment
}

// Delimiters returns the delimiter set resolved before the error, if any.
func (e *ParseError) Delimiters() (Delimiters, bool) {
	if e.delims == nil {
		return Delimiters{}, false
	}
	return *e.delims, true
}

// Error implements error so fatal outcomes can be returned directly.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("hl7v2: ")
	if e.SegmentType != "" {
		b.WriteString(e.SegmentType)
		if e.Field > 0 {
			fmt.Fprintf(&b, "-%d", e.Field)
		}
		if e.Segment > 0 {
			fmt.Fprintf(&b, " (segment %d)", e.Segment)
		}
		b.WriteString(": ")
	} else if e.Segment > 0 {
		fmt.Fprintf(&b, "segment %d: ", e.Segment)
	}
	b.WriteString(e.Message)
	return b.String()
}

func newFatal(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Segment:     1,
		SegmentType: "MSH",
		Kind:        kind,
		Severity:    SeverityError,
		Message:     fmt.Sprintf(format, args...),
	}
}

// ParseErrors is the side-channel list threaded through the pipeline.
type ParseErrors []ParseError

// HasErrors reports whether any entry has error severity.
func (pe ParseErrors) HasErrors() bool {
	for _, e := range pe {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity entries.
func (pe ParseErrors) Errors() ParseErrors {
	return pe.filter(func(e ParseError) bool { return e.Severity == SeverityError })
}

// Warnings returns the warning-severity entries.
func (pe ParseErrors) Warnings() ParseErrors {
	return pe.filter(func(e ParseError) bool { return e.Severity == SeverityWarning })
}

// OfKind returns the entries of the given kind.
func (pe ParseErrors) OfKind(kind ErrorKind) ParseErrors {
	return pe.filter(func(e ParseError) bool { return e.Kind == kind })
}

func (pe ParseErrors) filter(keep func(ParseError) bool) ParseErrors {
	var out ParseErrors
	for _, e := range pe {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// collector accumulates errors for one parse call. Each call owns its own.
type collector struct {
	errs ParseErrors
}

func (c *collector) add(e ParseError) {
	c.errs = append(c.errs, e)
}

func (c *collector) warn(seg int, segType string, field int, kind ErrorKind, format string, args ...interface{}) {
	c.add(ParseError{
		Segment:     seg,
		SegmentType: segType,
		Field:       field,
		Kind:        kind,
		Severity:    SeverityWarning,
		Message:     fmt.Sprintf(format, args...),
	})
}

func (c *collector) error(seg int, segType string, field int, kind ErrorKind, format string, args ...interface{}) {
	c.add(ParseError{
		Segment:     seg,
		SegmentType: segType,
		Field:       field,
		Kind:        kind,
		Severity:    SeverityError,
		Message:     fmt.Sprintf(format, args...),
	})
}
