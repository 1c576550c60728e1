package hl7v2

import (
	"strings"
)

// splitSegments splits message text on CR, CR+LF or LF and drops empty
// lines.
func splitSegments(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	lines := strings.Split(text, "\r")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func validSegmentID(id string) bool {
	if len(id) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// tokenizeSegment turns one segment line into its decoded field tree.
// pos is the 1-based position of the line in the message. A false return
// means the line was malformed and has been reported.
func tokenizeSegment(line string, pos int, d Delimiters, c *collector) (*GenericSegment, bool) {
	if len(line) < 3 {
		c.error(pos, "", 0, KindSegmentMalformed, "segment %q is shorter than a segment ID", line)
		return nil, false
	}
	id := line[:3]
	if !validSegmentID(id) {
		c.error(pos, "", 0, KindSegmentMalformed, "invalid segment ID %q", id)
		return nil, false
	}
	if len(line) > 3 && line[3] != d.Field {
		c.error(pos, id, 0, KindSegmentMalformed, "segment ID %q is not followed by the field delimiter", id)
		return nil, false
	}

	seg := &GenericSegment{Type: id}
	if len(line) == 3 {
		return seg, true
	}

	rest := line[4:]
	fieldOffset := 1
	if id == headerSegment {
		// MSH-1 is the field delimiter and MSH-2 the literal encoding
		// characters; neither is split nor unescaped.
		i := strings.IndexByte(rest, d.Field)
		if i < 0 {
			seg.Fields = append(seg.Fields, leafField(string(d.Field)), leafField(rest))
			return seg, true
		}
		seg.Fields = append(seg.Fields, leafField(string(d.Field)), leafField(rest[:i]))
		rest = rest[i+1:]
		fieldOffset = 3
	}

	for i, raw := range strings.Split(rest, string(d.Field)) {
		fieldPos := fieldOffset + i
		seg.Fields = append(seg.Fields, decodeField(raw, d, func(seq string) {
			c.warn(pos, id, fieldPos, KindEscapeSequenceUnknown, "unknown escape sequence %q passed through", seq)
		}))
	}
	return seg, true
}

// decodeField splits a raw field on the repetition, component and
// subcomponent delimiters and unescapes every leaf.
func decodeField(raw string, d Delimiters, unknown func(seq string)) Field {
	reps := strings.Split(raw, string(d.Repetition))
	field := make(Field, len(reps))
	for i, rep := range reps {
		comps := strings.Split(rep, string(d.Component))
		repetition := make(Repetition, len(comps))
		for j, comp := range comps {
			subs := strings.Split(comp, string(d.Subcomponent))
			component := make(Component, len(subs))
			for k, sub := range subs {
				component[k] = unescape(sub, d, unknown)
			}
			repetition[j] = component
		}
		field[i] = repetition
	}
	return field
}
