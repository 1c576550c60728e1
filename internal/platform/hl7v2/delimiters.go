package hl7v2

import (
	"fmt"
	"strings"
)

const headerSegment = "MSH"

// Delimiters is the message-local delimiter set declared in MSH-1 and MSH-2.
// It is resolved once per message and passed by value to every tokenizing
// call.
type Delimiters struct {
	Field        byte
	Component    byte
	Repetition   byte
	Escape       byte
	Subcomponent byte
	// Truncation is the v2.7+ fifth encoding character. Zero when absent.
	Truncation byte
}

// DefaultDelimiters are the conventional |^~\& separators.
var DefaultDelimiters = Delimiters{
	Field:        '|',
	Component:    '^',
	Repetition:   '~',
	Escape:       '\\',
	Subcomponent: '&',
}

// EncodingCharacters returns the MSH-2 value for this set.
func (d Delimiters) EncodingCharacters() string {
	enc := []byte{d.Component, d.Repetition, d.Escape, d.Subcomponent}
	if d.Truncation != 0 {
		enc = append(enc, d.Truncation)
	}
	return string(enc)
}

// Validate checks that all delimiters are distinct printable characters.
func (d Delimiters) Validate() error {
	set := []byte{d.Field, d.Component, d.Repetition, d.Escape, d.Subcomponent}
	if d.Truncation != 0 {
		set = append(set, d.Truncation)
	}
	for i, c := range set {
		if c < 0x21 || c > 0x7e {
			return fmt.Errorf("delimiter %q is not a printable character", c)
		}
		for _, other := range set[i+1:] {
			if c == other {
				return fmt.Errorf("delimiter %q is declared more than once", c)
			}
		}
	}
	return nil
}

// isDelimiter reports whether c is one of the structural separators.
func (d Delimiters) isDelimiter(c byte) bool {
	return c == d.Field || c == d.Component || c == d.Repetition ||
		c == d.Escape || c == d.Subcomponent
}

// ResolveDelimiters reads the delimiter declaration at the start of a
// message. It is the only tokenizing step that can fail.
func ResolveDelimiters(text string) (Delimiters, error) {
	if !strings.HasPrefix(text, headerSegment) {
		found := text
		if len(found) > 3 {
			found = found[:3]
		}
		return Delimiters{}, newFatal(KindHeaderCorrupt, "message must begin with MSH, found %q", found)
	}
	if len(text) < 4 {
		return Delimiters{}, newFatal(KindHeaderCorrupt, "header has no field delimiter")
	}

	d := Delimiters{Field: text[3]}
	if isSegmentTerminator(d.Field) {
		return Delimiters{}, newFatal(KindHeaderCorrupt, "header has no field delimiter")
	}

	enc := text[4:]
	if i := strings.IndexFunc(enc, func(r rune) bool {
		return r == rune(d.Field) || r == '\r' || r == '\n'
	}); i >= 0 {
		enc = enc[:i]
	}
	switch len(enc) {
	case 4, 5:
	default:
		return Delimiters{}, newFatal(KindHeaderCorrupt, "expected 4 or 5 encoding characters, found %d (%q)", len(enc), enc)
	}

	d.Component = enc[0]
	d.Repetition = enc[1]
	d.Escape = enc[2]
	d.Subcomponent = enc[3]
	if len(enc) == 5 {
		d.Truncation = enc[4]
	}

	if err := d.Validate(); err != nil {
		return Delimiters{}, newFatal(KindHeaderCorrupt, "invalid encoding characters: %v", err)
	}
	return d, nil
}

func isSegmentTerminator(c byte) bool {
	return c == '\r' || c == '\n'
}
