package hl7v2

import (
	"strings"
)

// segmentTerminator is written between segments on output.
const segmentTerminator = "\r"

// EncodeSegment serializes a generic segment with the given delimiters.
// Leaf values are escaped so that no data character collides with a
// delimiter. For MSH the delimiter declaration is always rebuilt from d.
func EncodeSegment(g *GenericSegment, d Delimiters) string {
	var b strings.Builder
	writeSegment(&b, g, d)
	return b.String()
}

func writeSegment(b *strings.Builder, g *GenericSegment, d Delimiters) {
	b.WriteString(g.Type)

	fields := g.Fields
	if g.Type == headerSegment {
		b.WriteByte(d.Field)
		b.WriteString(d.EncodingCharacters())
		if len(fields) <= 2 {
			return
		}
		fields = fields[2:]
	}

	for _, f := range fields {
		b.WriteByte(d.Field)
		writeField(b, f, d)
	}
}

func writeField(b *strings.Builder, f Field, d Delimiters) {
	for i, rep := range f {
		if i > 0 {
			b.WriteByte(d.Repetition)
		}
		for j, comp := range rep {
			if j > 0 {
				b.WriteByte(d.Component)
			}
			for k, sub := range comp {
				if k > 0 {
					b.WriteByte(d.Subcomponent)
				}
				b.WriteString(escape(sub, d))
			}
		}
	}
}

// encodeSegments joins the segments into wire format.
func encodeSegments(segs []*GenericSegment, d Delimiters) []byte {
	var b strings.Builder
	for i, g := range segs {
		if i > 0 {
			b.WriteString(segmentTerminator)
		}
		writeSegment(&b, g, d)
	}
	b.WriteString(segmentTerminator)
	return []byte(b.String())
}
