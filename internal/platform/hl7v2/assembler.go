package hl7v2

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
)

// State is a step of the message assembler.
type State int

const (
	StateAwaitingHeader State = iota
	StateHeaderParsed
	StateClassifyingType
	StateValidatingGrammar
	StateAssembled
	StateRejected
)

var stateNames = [...]string{
	StateAwaitingHeader:    "AwaitingHeader",
	StateHeaderParsed:      "HeaderParsed",
	StateClassifyingType:   "ClassifyingType",
	StateValidatingGrammar: "ValidatingGrammar",
	StateAssembled:         "Assembled",
	StateRejected:          "Rejected",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateAssembled || s == StateRejected
}

var stateTransitions = map[State][]State{
	StateAwaitingHeader:    {StateHeaderParsed, StateRejected},
	StateHeaderParsed:      {StateClassifyingType},
	StateClassifyingType:   {StateValidatingGrammar},
	StateValidatingGrammar: {StateAssembled},
}

// CanTransition reports whether the assembler may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// assembler drives one parse call. It is never shared between calls.
type assembler struct {
	p     *Parser
	state State
	c     collector

	d         Delimiters
	charset   encoding.Encoding
	profile   *Profile
	header    *MessageHeader
	segments  []Segment
	positions []int
	kind      MessageKind
}

func newAssembler(p *Parser) *assembler {
	return &assembler{p: p, state: StateAwaitingHeader}
}

func (a *assembler) transition(next State) {
	if !a.state.CanTransition(next) {
		panic(fmt.Sprintf("hl7v2: illegal assembler transition %s -> %s", a.state, next))
	}
	a.state = next
}

func (a *assembler) reject(err *ParseError) (*Message, *ParseError) {
	a.transition(StateRejected)
	return nil, err
}

func (a *assembler) run(raw []byte) (*Message, *ParseError) {
	if len(raw) > a.p.maxSize {
		err := newFatal(KindMessageTooLarge, "message is %d bytes, limit is %d", len(raw), a.p.maxSize)
		err.Segment, err.SegmentType = 0, ""
		return a.reject(err)
	}

	lines, err := a.readHeader(raw)
	if err != nil {
		return a.reject(err)
	}
	a.transition(StateHeaderParsed)
	a.mapBody(lines[1:])

	a.transition(StateClassifyingType)
	a.kind = classify(a.header.MessageType.Code)

	a.transition(StateValidatingGrammar)
	variant := a.validate()

	a.transition(StateAssembled)
	return &Message{
		Delimiters: a.d,
		Header:     a.header,
		Segments:   a.segments,
		Variant:    variant,
		Errors:     a.c.errs,
		state:      a.state,
		charset:    a.charset,
	}, nil
}

// readHeader resolves delimiters, optionally decodes the declared character
// set, and maps MSH. It returns the segment lines of the message.
func (a *assembler) readHeader(raw []byte) ([]string, *ParseError) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	text := string(raw)

	d, err := ResolveDelimiters(text)
	if err != nil {
		return nil, asParseError(err)
	}
	a.d = d

	lines := splitSegments(text)
	if a.p.decodeCharset {
		if decoded, ok := a.decodeDeclaredCharset(raw, lines[0]); ok {
			lines = splitSegments(decoded)
		}
	}

	g, ok := tokenizeSegment(lines[0], 1, d, &a.c)
	if !ok {
		err := newFatal(KindHeaderCorrupt, "header segment could not be tokenized")
		err.delims = &d
		return nil, err
	}

	version := g.Value(12)
	if version == "" {
		version = a.p.defaultVersion
	}
	a.profile = a.p.profiles.Resolve(version)

	hdr := mapSegment(g, 1, a.profile, &a.c).(*MessageHeader)
	if hdr.MessageType.Code == "" {
		err := newFatal(KindHeaderCorrupt, "message type is missing")
		err.Field = 9
		err.delims, err.header = &d, g
		return nil, err
	}
	a.header = hdr
	a.segments = append(a.segments, hdr)
	a.positions = append(a.positions, 1)
	return lines, nil
}

// decodeDeclaredCharset re-reads the message in the MSH-18 character set
// when that set is not ASCII compatible UTF-8.
func (a *assembler) decodeDeclaredCharset(raw []byte, headerLine string) (string, bool) {
	var scratch collector
	g, ok := tokenizeSegment(headerLine, 1, a.d, &scratch)
	if !ok {
		return "", false
	}
	name := g.Field(18).First().Value(1)
	enc, err := lookupCharset(name)
	if err != nil {
		a.c.warn(1, headerSegment, 18, KindTypeCoercionFailed, "%v; text left undecoded", err)
		return "", false
	}
	if enc == nil {
		return "", false
	}
	out, err := decodeCharset(raw, enc)
	if err != nil {
		a.c.warn(1, headerSegment, 18, KindTypeCoercionFailed, "character set %q: %v; text left undecoded", name, err)
		return "", false
	}
	a.charset = enc
	return string(out), true
}

func (a *assembler) mapBody(lines []string) {
	for i, line := range lines {
		pos := i + 2
		g, ok := tokenizeSegment(line, pos, a.d, &a.c)
		if !ok {
			continue
		}
		if g.Type == headerSegment {
			a.c.error(pos, headerSegment, 0, KindUnexpectedSegmentOrder, "MSH may only appear as the first segment")
		}
		a.segments = append(a.segments, mapSegment(g, pos, a.profile, &a.c))
		a.positions = append(a.positions, pos)
	}
}

func (a *assembler) validate() Variant {
	a.checkExactlyOnce()
	switch a.kind {
	case MessageADT:
		return a.assembleADT()
	case MessageORU:
		return a.assembleORU()
	case MessageORM:
		return a.assembleORM()
	case MessageACK:
		return a.assembleACK()
	default:
		return a.assembleUnrecognized()
	}
}

// checkExactlyOnce applies the profile's cardinality table for the
// message type.
func (a *assembler) checkExactlyOnce() {
	mt := a.header.MessageType
	for _, segType := range a.profile.ExactlyOnce(mt) {
		var seen []int
		for i, s := range a.segments {
			if s.SegmentType() == segType {
				seen = append(seen, a.positions[i])
			}
		}
		switch {
		case len(seen) == 0:
			a.c.error(0, segType, 0, KindRequiredSegmentMissing, "%s message requires a %s segment", mt, segType)
		case len(seen) > 1:
			for _, pos := range seen[1:] {
				a.c.error(pos, segType, 0, KindUnexpectedSegmentOrder, "duplicate %s segment; %s allows exactly one", segType, mt)
			}
		}
	}
}

func (a *assembler) assembleADT() Variant {
	adt := &ADT{}
	pidPos := 0
	for i, s := range a.segments {
		pos := a.positions[i]
		switch s := s.(type) {
		case *EventType:
			if adt.Event == nil {
				adt.Event = s
			}
		case *PatientIdentification:
			if adt.Patient == nil {
				adt.Patient = s
				pidPos = pos
			}
		case *PatientVisit:
			if adt.Visit == nil {
				adt.Visit = s
				if pidPos == 0 && a.countOf("PID") > 0 {
					a.c.error(pos, "PV1", 0, KindUnexpectedSegmentOrder, "PV1 appears before PID")
				}
			}
		case *PatientVisitAdditional:
			if adt.VisitAdditional == nil {
				adt.VisitAdditional = s
			}
		case *Diagnosis:
			adt.Diagnoses = append(adt.Diagnoses, s)
		case *Allergy:
			adt.Allergies = append(adt.Allergies, s)
		case *Insurance:
			adt.Insurance = append(adt.Insurance, s)
		case *Note:
			adt.Notes = append(adt.Notes, s)
		}
	}
	return adt
}

// assembleORU groups results under the nearest preceding OBR. An ORC
// directly before an OBR is attached to that OBR's group.
func (a *assembler) assembleORU() Variant {
	oru := &ORU{}
	var (
		current    *OrderGroup
		pending    *CommonOrder
		pendingPos int
		starts     []int
	)
	for i, s := range a.segments {
		pos := a.positions[i]
		switch s := s.(type) {
		case *PatientIdentification:
			if oru.Patient == nil {
				oru.Patient = s
			}
		case *PatientVisit:
			if oru.Visit == nil {
				oru.Visit = s
			}
		case *CommonOrder:
			if pending != nil {
				a.c.warn(pendingPos, "ORC", 0, KindUnexpectedSegmentOrder, "ORC is not followed by an OBR; superseded by the ORC at segment %d", pos)
			}
			pending, pendingPos = s, pos
		case *ObservationRequest:
			current = &OrderGroup{Order: pending, Request: s}
			pending = nil
			oru.Groups = append(oru.Groups, current)
			starts = append(starts, pos)
		case *ObservationResult:
			if current == nil {
				a.c.error(pos, "OBX", 0, KindUnexpectedSegmentOrder, "OBX is not preceded by an OBR")
				continue
			}
			current.Results = append(current.Results, s)
		case *Note:
			if current == nil {
				oru.Notes = append(oru.Notes, s)
			} else {
				current.Notes = append(current.Notes, s)
			}
		}
	}

	if pending != nil {
		a.c.warn(pendingPos, "ORC", 0, KindUnexpectedSegmentOrder, "ORC is not followed by an OBR")
	}
	if len(oru.Groups) == 0 {
		a.c.error(0, "OBR", 0, KindRequiredSegmentMissing, "ORU message requires at least one OBR segment")
	}
	for i, g := range oru.Groups {
		if len(g.Results) == 0 {
			a.c.error(starts[i], "OBR", 0, KindRequiredSegmentMissing, "OBR has no OBX segments")
		}
	}
	return oru
}

// assembleORM opens a group at every ORC. An OBR fills the open group's
// request slot; OBX and NTE attach to the open group.
func (a *assembler) assembleORM() Variant {
	orm := &ORM{}
	var current *OrderGroup
	orders := a.countOf("ORC")
	for i, s := range a.segments {
		pos := a.positions[i]
		switch s := s.(type) {
		case *PatientIdentification:
			if orm.Patient == nil {
				orm.Patient = s
			}
		case *PatientVisit:
			if orm.Visit == nil {
				orm.Visit = s
			}
		case *CommonOrder:
			current = &OrderGroup{Order: s}
			orm.Orders = append(orm.Orders, current)
		case *ObservationRequest:
			if current == nil || current.Request != nil {
				if orders > 0 {
					a.c.error(pos, "OBR", 0, KindUnexpectedSegmentOrder, "OBR is not preceded by its own ORC")
				}
				current = &OrderGroup{Request: s}
				orm.Orders = append(orm.Orders, current)
				continue
			}
			current.Request = s
		case *ObservationResult:
			if current == nil || current.Request == nil {
				a.c.error(pos, "OBX", 0, KindUnexpectedSegmentOrder, "OBX is not preceded by an OBR")
				continue
			}
			current.Results = append(current.Results, s)
		case *Note:
			if current == nil {
				orm.Notes = append(orm.Notes, s)
			} else {
				current.Notes = append(current.Notes, s)
			}
		}
	}

	if orders == 0 {
		a.c.error(0, "ORC", 0, KindRequiredSegmentMissing, "ORM message requires at least one ORC segment")
	}
	return orm
}

func (a *assembler) assembleACK() Variant {
	ack := &ACK{}
	for _, s := range a.segments {
		switch s := s.(type) {
		case *MessageAcknowledgment:
			if ack.Acknowledgment == nil {
				ack.Acknowledgment = s
			}
		case *ErrorSegment:
			ack.Errors = append(ack.Errors, s)
		}
	}
	return ack
}

func (a *assembler) assembleUnrecognized() Variant {
	u := &Unrecognized{Segments: make([]*GenericSegment, len(a.segments))}
	for i, s := range a.segments {
		u.Segments[i] = s.Generic()
	}
	return u
}

func (a *assembler) countOf(segType string) int {
	n := 0
	for _, s := range a.segments {
		if s.SegmentType() == segType {
			n++
		}
	}
	return n
}

func asParseError(err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return newFatal(KindHeaderCorrupt, "%v", err)
}
