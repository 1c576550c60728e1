package hl7v2

import (
	"sort"
	"strconv"
	"strings"
)

// segmentMapper converts a generic segment into its typed form. Mappers are
// pure: they read fields through a fieldReader and report problems to it.
type segmentMapper func(r *fieldReader) Segment

var segmentMappers = map[string]segmentMapper{
	"MSH": mapMessageHeader,
	"EVN": mapEventType,
	"PID": mapPatientIdentification,
	"PV1": mapPatientVisit,
	"PV2": mapPatientVisitAdditional,
	"ORC": mapCommonOrder,
	"OBR": mapObservationRequest,
	"OBX": mapObservationResult,
	"NTE": mapNote,
	"DG1": mapDiagnosis,
	"AL1": mapAllergy,
	"IN1": mapInsurance,
	"MSA": mapMessageAcknowledgment,
	"ERR": mapErrorSegment,
}

// KnownSegmentTypes lists the segment IDs that have a typed mapping.
func KnownSegmentTypes() []string {
	out := make([]string, 0, len(segmentMappers))
	for k := range segmentMappers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mapSegment applies presence rules and the type's mapper. Unknown types
// are kept as the generic segment.
func mapSegment(g *GenericSegment, pos int, profile *Profile, c *collector) Segment {
	mapper, ok := segmentMappers[g.Type]
	if !ok {
		c.warn(pos, g.Type, 0, KindUnknownSegmentType, "segment type %s has no typed mapping; kept as generic", g.Type)
		return g
	}

	r := &fieldReader{seg: g, pos: pos, c: c}
	for _, n := range profile.RequiredFields(g.Type) {
		if r.field(n).Empty() {
			c.warn(pos, g.Type, n, KindRequiredFieldMissing, "required field %s-%d is missing", g.Type, n)
		}
	}
	return mapper(r)
}

// fieldReader is the only place that indexes fields by position.
type fieldReader struct {
	seg *GenericSegment
	pos int
	c   *collector
}

func (r *fieldReader) base() segmentBase {
	return segmentBase{source: r.seg}
}

func (r *fieldReader) field(n int) Field {
	return r.seg.Field(n)
}

func (r *fieldReader) first(n int) Repetition {
	return r.seg.Field(n).First()
}

func (r *fieldReader) str(n int) string {
	return r.seg.Value(n)
}

// strs returns the first component of every non-empty repetition.
func (r *fieldReader) strs(n int) []string {
	var out []string
	for _, rep := range r.field(n).Repetitions() {
		out = append(out, rep.Value(1))
	}
	return out
}

func (r *fieldReader) coercionFailed(n int, format string, args ...interface{}) {
	r.c.warn(r.pos, r.seg.Type, n, KindTypeCoercionFailed, format, args...)
}

// integer parses a numeric field; failures leave it unset.
func (r *fieldReader) integer(n int) *int {
	s := strings.TrimSpace(r.str(n))
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.coercionFailed(n, "%s-%d: %q is not an integer", r.seg.Type, n, s)
		return nil
	}
	return &v
}

// decimal parses an NM value.
func (r *fieldReader) decimal(n int, s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.coercionFailed(n, "%s-%d: %q is not a number", r.seg.Type, n, s)
		return nil
	}
	return &v
}

// dateTime parses TS.1 / DTM.
func (r *fieldReader) dateTime(n int) DateTime {
	s := r.str(n)
	if s == "" {
		return DateTime{}
	}
	dt, err := ParseDateTime(s)
	if err != nil {
		r.coercionFailed(n, "%s-%d: %v", r.seg.Type, n, err)
		return DateTime{}
	}
	return dt
}

// code reads a value restricted to an HL7 table.
func (r *fieldReader) code(n int, table codeTable) string {
	s := strings.TrimSpace(r.str(n))
	if s == "" {
		return ""
	}
	if !table.values[s] {
		r.coercionFailed(n, "%s-%d: %q is not a valid %s", r.seg.Type, n, s, table.name)
		return ""
	}
	return s
}

func (r *fieldReader) cwe(n int) CWE {
	return parseCWE(r.first(n))
}

func (r *fieldReader) cx(n int) CX {
	return parseCX(r.first(n))
}

func (r *fieldReader) pl(n int) PL {
	return parsePL(r.first(n))
}

func (r *fieldReader) ei(n int) EI {
	return parseEI(r.first(n))
}

// repeated maps every non-empty repetition of field n with fn.
func repeated[T any](r *fieldReader, n int, fn func(Repetition) T) []T {
	reps := r.field(n).Repetitions()
	if len(reps) == 0 {
		return nil
	}
	out := make([]T, len(reps))
	for i, rep := range reps {
		out[i] = fn(rep)
	}
	return out
}

type codeTable struct {
	name   string
	values map[string]bool
}

func newCodeTable(name string, values ...string) codeTable {
	t := codeTable{name: name, values: make(map[string]bool, len(values))}
	for _, v := range values {
		t.values[v] = true
	}
	return t
}

var (
	tableAdministrativeSex = newCodeTable("administrative sex (HL7 0001)",
		"A", "F", "M", "N", "O", "U", "X")
	tablePatientClass = newCodeTable("patient class (HL7 0004)",
		"B", "C", "E", "I", "N", "O", "P", "R", "U")
	tableObservationStatus = newCodeTable("observation result status (HL7 0085)",
		"A", "B", "C", "D", "F", "G", "I", "N", "O", "P", "R", "S", "U", "V", "W", "X")
	tableOrderControl = newCodeTable("order control code (HL7 0119)",
		"AF", "CA", "CH", "CN", "CR", "DC", "DE", "DF", "DR", "FU", "HD", "HR",
		"LI", "MC", "NA", "NW", "OC", "OD", "OE", "OF", "OH", "OK", "OP", "OR",
		"PA", "PR", "PY", "RA", "RE", "RF", "RL", "RO", "RP", "RQ", "RR", "RU",
		"SC", "SN", "SR", "SS", "UA", "UC", "UD", "UF", "UH", "UM", "UN", "UR",
		"UX", "XO", "XR", "XX")
	tableResultStatus = newCodeTable("result status (HL7 0123)",
		"A", "C", "F", "I", "O", "P", "R", "S", "X", "Y", "Z")
	tableAckCode = newCodeTable("acknowledgment code (HL7 0008)",
		"AA", "AE", "AR", "CA", "CE", "CR")
)
