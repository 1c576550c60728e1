package hl7v2

import (
	"encoding/hex"
	"strings"
)

// unescape decodes HL7 escape sequences in a leaf value. Recognised forms
// are \F\ \S\ \T\ \R\ \E\ (and \P\ when a truncation character is declared)
// plus \Xhh..\ hex bytes. Anything else is copied verbatim and reported
// through unknown; the function never fails.
func unescape(s string, d Delimiters, unknown func(seq string)) string {
	esc := d.Escape
	if strings.IndexByte(s, esc) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != esc {
			b.WriteByte(c)
			continue
		}

		end := strings.IndexByte(s[i+1:], esc)
		if end < 0 {
			// Unterminated: keep the remainder as literal text.
			unknown(s[i:])
			b.WriteString(s[i:])
			break
		}
		seq := s[i+1 : i+1+end]
		if out, ok := decodeEscape(seq, d); ok {
			b.WriteString(out)
		} else {
			unknown(s[i : i+end+2])
			b.WriteString(s[i : i+end+2])
		}
		i += end + 1
	}
	return b.String()
}

func decodeEscape(seq string, d Delimiters) (string, bool) {
	switch seq {
	case "F":
		return string(d.Field), true
	case "S":
		return string(d.Component), true
	case "T":
		return string(d.Subcomponent), true
	case "R":
		return string(d.Repetition), true
	case "E":
		return string(d.Escape), true
	case "P":
		if d.Truncation != 0 {
			return string(d.Truncation), true
		}
		return "", false
	}
	if len(seq) > 1 && (seq[0] == 'X' || seq[0] == 'x') {
		raw, err := hex.DecodeString(seq[1:])
		if err != nil || len(raw) == 0 {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

// escape is the inverse of unescape: every character that collides with a
// delimiter, and any segment terminator, is replaced by its escape form.
func escape(s string, d Delimiters) string {
	if !needsEscape(s, d) {
		return s
	}

	esc := string(d.Escape)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == d.Escape:
			b.WriteString(esc + "E" + esc)
		case c == d.Field:
			b.WriteString(esc + "F" + esc)
		case c == d.Component:
			b.WriteString(esc + "S" + esc)
		case c == d.Subcomponent:
			b.WriteString(esc + "T" + esc)
		case c == d.Repetition:
			b.WriteString(esc + "R" + esc)
		case d.Truncation != 0 && c == d.Truncation:
			b.WriteString(esc + "P" + esc)
		case c == '\r':
			b.WriteString(esc + "X0D" + esc)
		case c == '\n':
			b.WriteString(esc + "X0A" + esc)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscape(s string, d Delimiters) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if d.isDelimiter(c) || isSegmentTerminator(c) || (d.Truncation != 0 && c == d.Truncation) {
			return true
		}
	}
	return false
}
