package hl7v2

import (
	"golang.org/x/text/encoding"
)

// MessageKind is the closed set of message classifications.
type MessageKind string

const (
	MessageADT          MessageKind = "ADT"
	MessageORU          MessageKind = "ORU"
	MessageORM          MessageKind = "ORM"
	MessageACK          MessageKind = "ACK"
	MessageUnrecognized MessageKind = "Unrecognized"
)

// classify maps an MSH-9.1 message code to its kind.
func classify(code string) MessageKind {
	switch MessageKind(code) {
	case MessageADT, MessageORU, MessageORM, MessageACK:
		return MessageKind(code)
	}
	return MessageUnrecognized
}

// Variant is the type-specific view of an assembled message. The set of
// implementations is closed: *ADT, *ORU, *ORM, *ACK and *Unrecognized.
type Variant interface {
	Kind() MessageKind
	isVariant()
}

// ADT is an admit/discharge/transfer message.
type ADT struct {
	Event           *EventType              `json:"event,omitempty"`
	Patient         *PatientIdentification  `json:"patient,omitempty"`
	Visit           *PatientVisit           `json:"visit,omitempty"`
	VisitAdditional *PatientVisitAdditional `json:"visitAdditional,omitempty"`
	Diagnoses       []*Diagnosis            `json:"diagnoses,omitempty"`
	Allergies       []*Allergy              `json:"allergies,omitempty"`
	Insurance       []*Insurance            `json:"insurance,omitempty"`
	Notes           []*Note                 `json:"notes,omitempty"`
}

// OrderGroup is one order/observation group: an optional ORC, the OBR that
// opened the group, and the OBX and NTE segments that followed it.
type OrderGroup struct {
	Order   *CommonOrder         `json:"order,omitempty"`
	Request *ObservationRequest  `json:"request,omitempty"`
	Results []*ObservationResult `json:"results,omitempty"`
	Notes   []*Note              `json:"notes,omitempty"`
}

// ORU is an unsolicited observation result message.
type ORU struct {
	Patient *PatientIdentification `json:"patient,omitempty"`
	Visit   *PatientVisit          `json:"visit,omitempty"`
	Notes   []*Note                `json:"notes,omitempty"`
	Groups  []*OrderGroup          `json:"groups"`
}

// ORM is a general order message.
type ORM struct {
	Patient *PatientIdentification `json:"patient,omitempty"`
	Visit   *PatientVisit          `json:"visit,omitempty"`
	Notes   []*Note                `json:"notes,omitempty"`
	Orders  []*OrderGroup          `json:"orders"`
}

// ACK is an inbound acknowledgment.
type ACK struct {
	Acknowledgment *MessageAcknowledgment `json:"acknowledgment,omitempty"`
	Errors         []*ErrorSegment        `json:"errors,omitempty"`
}

// Unrecognized carries the generic segments of a message whose type has no
// grammar.
type Unrecognized struct {
	Segments []*GenericSegment `json:"segments"`
}

func (*ADT) Kind() MessageKind          { return MessageADT }
func (*ORU) Kind() MessageKind          { return MessageORU }
func (*ORM) Kind() MessageKind          { return MessageORM }
func (*ACK) Kind() MessageKind          { return MessageACK }
func (*Unrecognized) Kind() MessageKind { return MessageUnrecognized }

func (*ADT) isVariant()          {}
func (*ORU) isVariant()          {}
func (*ORM) isVariant()          {}
func (*ACK) isVariant()          {}
func (*Unrecognized) isVariant() {}

// Message is a parsed, classified and grammar-checked HL7 message. It is
// immutable once returned; WithAnnotation derives a new value.
type Message struct {
	Delimiters Delimiters
	Header     *MessageHeader
	Segments   []Segment
	Variant    Variant
	Errors     ParseErrors

	annotations map[string]string
	state       State
	// charset is the MSH-18 encoding the text was decoded from, nil when
	// the text was used as is.
	charset encoding.Encoding
}

// State returns the terminal assembler state, always StateAssembled for a
// returned message.
func (m *Message) State() State { return m.state }

// Kind returns the message classification.
func (m *Message) Kind() MessageKind { return m.Variant.Kind() }

// Type returns MSH-9.
func (m *Message) Type() MessageType { return m.Header.MessageType }

// ControlID returns MSH-10.
func (m *Message) ControlID() string { return m.Header.MessageControlID }

// Version returns MSH-12.
func (m *Message) Version() string { return m.Header.VersionID }

// SegmentsOfType returns every segment with the given ID in document order.
func (m *Message) SegmentsOfType(segType string) []Segment {
	var out []Segment
	for _, s := range m.Segments {
		if s.SegmentType() == segType {
			out = append(out, s)
		}
	}
	return out
}

// PatientIdentification returns the first PID segment, or nil.
func (m *Message) PatientIdentification() *PatientIdentification {
	for _, s := range m.Segments {
		if pid, ok := s.(*PatientIdentification); ok {
			return pid
		}
	}
	return nil
}

// Observations returns every OBX segment in document order.
func (m *Message) Observations() []*ObservationResult {
	var out []*ObservationResult
	for _, s := range m.Segments {
		if obx, ok := s.(*ObservationResult); ok {
			out = append(out, obx)
		}
	}
	return out
}

// Unknown returns the segments that have no typed mapping.
func (m *Message) Unknown() []*GenericSegment {
	var out []*GenericSegment
	for _, s := range m.Segments {
		if g, ok := s.(*GenericSegment); ok {
			out = append(out, g)
		}
	}
	return out
}

// GenericSegments returns the generic form of every segment.
func (m *Message) GenericSegments() []*GenericSegment {
	out := make([]*GenericSegment, len(m.Segments))
	for i, s := range m.Segments {
		out[i] = s.Generic()
	}
	return out
}

// Encode serializes the message with its own delimiters, in the character
// set MSH-18 declares.
func (m *Message) Encode() []byte {
	out := encodeSegments(m.GenericSegments(), m.Delimiters)
	if m.charset != nil {
		out = encodeCharset(out, m.charset)
	}
	return out
}

// Annotation returns a value attached by a downstream step.
func (m *Message) Annotation(key string) (string, bool) {
	v, ok := m.annotations[key]
	return v, ok
}

// WithAnnotation returns a copy of the message carrying an extra
// annotation. The receiver is left unchanged.
func (m *Message) WithAnnotation(key, value string) *Message {
	cp := *m
	cp.annotations = make(map[string]string, len(m.annotations)+1)
	for k, v := range m.annotations {
		cp.annotations[k] = v
	}
	cp.annotations[key] = value
	return &cp
}
