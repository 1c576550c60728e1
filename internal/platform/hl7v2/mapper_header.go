package hl7v2

import (
	"strconv"
	"strings"
)

func mapMessageHeader(r *fieldReader) Segment {
	return &MessageHeader{
		segmentBase:               r.base(),
		FieldSeparator:            r.str(1),
		EncodingCharacters:        r.str(2),
		SendingApplication:        parseHDComponents(r.first(3)),
		SendingFacility:           parseHDComponents(r.first(4)),
		ReceivingApplication:      parseHDComponents(r.first(5)),
		ReceivingFacility:         parseHDComponents(r.first(6)),
		DateTimeOfMessage:         r.dateTime(7),
		Security:                  r.str(8),
		MessageType:               parseMessageType(r.first(9)),
		MessageControlID:          r.str(10),
		ProcessingID:              r.str(11),
		VersionID:                 r.str(12),
		SequenceNumber:            r.integer(13),
		ContinuationPointer:       r.str(14),
		AcceptAcknowledgment:      r.str(15),
		ApplicationAcknowledgment: r.str(16),
		CountryCode:               r.str(17),
		CharacterSets:             r.strs(18),
		PrincipalLanguage:         r.cwe(19),
	}
}

func mapEventType(r *fieldReader) Segment {
	return &EventType{
		segmentBase:      r.base(),
		EventTypeCode:    r.str(1),
		RecordedDateTime: r.dateTime(2),
		PlannedDateTime:  r.dateTime(3),
		EventReasonCode:  r.cwe(4),
		OperatorIDs:      repeated(r, 5, parseXCN),
		EventOccurred:    r.dateTime(6),
	}
}

func mapMessageAcknowledgment(r *fieldReader) Segment {
	return &MessageAcknowledgment{
		segmentBase:            r.base(),
		AcknowledgmentCode:     AckCode(r.code(1, tableAckCode)),
		MessageControlID:       r.str(2),
		TextMessage:            r.str(3),
		ExpectedSequenceNumber: r.integer(4),
		ErrorCondition:         r.cwe(6),
	}
}

func mapErrorSegment(r *fieldReader) Segment {
	seg := &ErrorSegment{
		segmentBase:           r.base(),
		ErrorCode:             r.cwe(3),
		Severity:              r.str(4),
		ApplicationErrorCode:  r.cwe(5),
		DiagnosticInformation: r.str(7),
		UserMessage:           r.str(8),
	}

	// v2.5+ carries ERL in ERR-2; earlier versions carry ELD in ERR-1 with
	// the error code as a CE in its fourth component.
	if locs := r.field(2).Repetitions(); len(locs) > 0 {
		for _, rep := range locs {
			seg.Location = append(seg.Location, r.errorLocation(2, rep))
		}
	} else {
		for _, rep := range r.field(1).Repetitions() {
			seg.Location = append(seg.Location, r.errorLocation(1, rep))
			if seg.ErrorCode.IsZero() {
				code := rep.Component(4)
				seg.ErrorCode = CWE{
					Identifier:   code.Sub(1),
					Text:         code.Sub(2),
					CodingSystem: code.Sub(3),
				}
			}
		}
	}
	return seg
}

func (r *fieldReader) errorLocation(n int, rep Repetition) ErrorLocation {
	return ErrorLocation{
		SegmentID:       rep.Value(1),
		SegmentSequence: r.intComponent(n, rep.Value(2)),
		FieldPosition:   r.intComponent(n, rep.Value(3)),
	}
}

func (r *fieldReader) intComponent(n int, s string) *int {
	s = strings.TrimSpace(s)
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
