package hl7v2

import (
	"testing"
)

// =========== Delimiter Tests ===========

func TestResolveDelimiters_Standard(t *testing.T) {
	d, err := ResolveDelimiters("MSH|^~\\&|A|B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DefaultDelimiters {
		t.Errorf("expected default delimiters, got %+v", d)
	}
	if d.EncodingCharacters() != "^~\\&" {
		t.Errorf("expected encoding characters '^~\\&', got %q", d.EncodingCharacters())
	}
}

func TestResolveDelimiters_HeaderOnly(t *testing.T) {
	d, err := ResolveDelimiters("MSH|^~\\&\r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Subcomponent != '&' {
		t.Errorf("expected subcomponent '&', got %q", d.Subcomponent)
	}
}

func TestResolveDelimiters_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"lowercase header", "msh|^~\\&|A"},
		{"no field delimiter", "MSH"},
		{"terminator as field delimiter", "MSH\r^~\\&"},
		{"three encoding characters", "MSH|^~\\|A"},
		{"six encoding characters", "MSH|^~\\&#!|A"},
		{"space delimiter", "MSH|^ \\&|A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveDelimiters(tt.text)
			pe, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Kind != KindHeaderCorrupt {
				t.Errorf("expected HeaderCorrupt, got %s", pe.Kind)
			}
		})
	}
}

// =========== Escape Tests ===========

func TestUnescape_Delimiters(t *testing.T) {
	d := DefaultDelimiters
	d.Truncation = '#'

	tests := map[string]string{
		"a\\F\\b":   "a|b",
		"a\\S\\b":   "a^b",
		"a\\T\\b":   "a&b",
		"a\\R\\b":   "a~b",
		"a\\E\\b":   "a\\b",
		"a\\P\\b":   "a#b",
		"\\X4142\\": "AB",
		"plain":     "plain",
	}
	for in, want := range tests {
		got := unescape(in, d, func(seq string) {
			t.Errorf("unexpected unknown escape %q in %q", seq, in)
		})
		if got != want {
			t.Errorf("unescape(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestUnescape_UnknownPassesThrough(t *testing.T) {
	var unknown []string
	report := func(seq string) { unknown = append(unknown, seq) }

	got := unescape("bold \\H\\text\\N\\", DefaultDelimiters, report)
	if got != "bold \\H\\text\\N\\" {
		t.Errorf("expected value unchanged, got %q", got)
	}
	if len(unknown) != 2 || unknown[0] != "\\H\\" || unknown[1] != "\\N\\" {
		t.Errorf("expected \\H\\ and \\N\\ reported, got %v", unknown)
	}

	unknown = nil
	if got := unescape("a\\P\\b", DefaultDelimiters, report); got != "a\\P\\b" {
		t.Errorf("expected \\P\\ kept without a truncation character, got %q", got)
	}
	if len(unknown) != 1 {
		t.Errorf("expected \\P\\ reported, got %v", unknown)
	}

	unknown = nil
	if got := unescape("tail\\F", DefaultDelimiters, report); got != "tail\\F" {
		t.Errorf("expected unterminated escape kept, got %q", got)
	}
	if len(unknown) != 1 {
		t.Errorf("expected unterminated escape reported, got %v", unknown)
	}

	unknown = nil
	if got := unescape("\\XZZ\\", DefaultDelimiters, report); got != "\\XZZ\\" {
		t.Errorf("expected bad hex kept, got %q", got)
	}
	if len(unknown) != 1 {
		t.Errorf("expected bad hex reported, got %v", unknown)
	}
}

func TestEscape_Inverse(t *testing.T) {
	d := DefaultDelimiters
	values := []string{
		"plain",
		"a|b^c&d~e\\f",
		"line one\rline two\n",
		"",
	}
	for _, v := range values {
		enc := escape(v, d)
		for i := 0; i < len(enc); i++ {
			c := enc[i]
			if c == d.Field || c == d.Component || c == d.Repetition || c == d.Subcomponent || c == '\r' || c == '\n' {
				t.Errorf("escape(%q) left delimiter %q in %q", v, c, enc)
			}
		}
		got := unescape(enc, d, func(seq string) {
			t.Errorf("escape(%q) produced unknown sequence %q", v, seq)
		})
		if got != v {
			t.Errorf("expected %q after round trip, got %q", v, got)
		}
	}
}

func TestEscape_Truncation(t *testing.T) {
	d := DefaultDelimiters
	if got := escape("a#b", d); got != "a#b" {
		t.Errorf("expected '#' untouched without truncation character, got %q", got)
	}
	d.Truncation = '#'
	if got := escape("a#b", d); got != "a\\P\\b" {
		t.Errorf("expected '#' escaped as \\P\\, got %q", got)
	}
}

// =========== Tokenizer Tests ===========

func TestSplitSegments(t *testing.T) {
	got := splitSegments("MSH|a\r\nPID|b\n\rPV1|c\r  \r")
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(got), got)
	}
	if got[2] != "PV1|c" {
		t.Errorf("expected 'PV1|c', got %q", got[2])
	}
}

func TestTokenizeSegment_Tree(t *testing.T) {
	var c collector
	seg, ok := tokenizeSegment("PID|1||a~b^c&d||x\\F\\y", 2, DefaultDelimiters, &c)
	if !ok {
		t.Fatal("expected segment to tokenize")
	}
	if seg.Type != "PID" {
		t.Errorf("expected PID, got %q", seg.Type)
	}
	if len(seg.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(seg.Fields))
	}

	f3 := seg.Field(3)
	if len(f3) != 2 {
		t.Fatalf("expected 2 repetitions, got %d", len(f3))
	}
	if f3[0].Value(1) != "a" {
		t.Errorf("expected 'a', got %q", f3[0].Value(1))
	}
	if f3[1].Value(1) != "b" {
		t.Errorf("expected 'b', got %q", f3[1].Value(1))
	}
	comp := f3[1].Component(2)
	if comp.Sub(1) != "c" || comp.Sub(2) != "d" {
		t.Errorf("expected subcomponents c&d, got %q", comp)
	}
	if seg.Value(5) != "x|y" {
		t.Errorf("expected decoded 'x|y', got %q", seg.Value(5))
	}
	if seg.Field(2) == nil || !seg.Field(2).Empty() {
		t.Error("expected field 2 to be present and empty")
	}
	if seg.Field(9) != nil {
		t.Error("expected nil for a field beyond the segment")
	}
	if len(c.errs) != 0 {
		t.Errorf("expected no errors, got %+v", c.errs)
	}
}

func TestTokenizeSegment_Header(t *testing.T) {
	var c collector
	seg, ok := tokenizeSegment("MSH|^~\\&|App|Fac", 1, DefaultDelimiters, &c)
	if !ok {
		t.Fatal("expected header to tokenize")
	}
	if seg.Value(1) != "|" {
		t.Errorf("expected MSH-1 '|', got %q", seg.Value(1))
	}
	if seg.Value(2) != "^~\\&" {
		t.Errorf("expected MSH-2 literal encoding characters, got %q", seg.Value(2))
	}
	if seg.Value(3) != "App" || seg.Value(4) != "Fac" {
		t.Errorf("expected MSH-3/4 App/Fac, got %q/%q", seg.Value(3), seg.Value(4))
	}
}

func TestTokenizeSegment_Malformed(t *testing.T) {
	lines := []string{"PI", "pid|1", "PIDX|1", "P-D|1"}
	for _, line := range lines {
		var c collector
		if _, ok := tokenizeSegment(line, 3, DefaultDelimiters, &c); ok {
			t.Errorf("expected %q to be malformed", line)
		}
		if len(c.errs) != 1 || c.errs[0].Kind != KindSegmentMalformed || c.errs[0].Segment != 3 {
			t.Errorf("expected one SegmentMalformed at 3 for %q, got %+v", line, c.errs)
		}
	}
}

func TestTokenizeSegment_UnknownEscapeLocated(t *testing.T) {
	var c collector
	_, ok := tokenizeSegment("NTE|1||see \\Q\\ here", 4, DefaultDelimiters, &c)
	if !ok {
		t.Fatal("expected segment to tokenize")
	}
	if len(c.errs) != 1 {
		t.Fatalf("expected 1 warning, got %+v", c.errs)
	}
	e := c.errs[0]
	if e.Kind != KindEscapeSequenceUnknown || e.Severity != SeverityWarning {
		t.Errorf("expected EscapeSequenceUnknown warning, got %+v", e)
	}
	if e.Segment != 4 || e.SegmentType != "NTE" || e.Field != 3 {
		t.Errorf("expected location NTE-3 at segment 4, got %+v", e)
	}
}

func TestEncodeSegment_RebuildsHeader(t *testing.T) {
	seg := &GenericSegment{
		Type: "MSH",
		Fields: []Field{
			leafField("|"),
			leafField("stale"),
			leafField("App"),
		},
	}
	if got := EncodeSegment(seg, DefaultDelimiters); got != "MSH|^~\\&|App" {
		t.Errorf("expected 'MSH|^~\\&|App', got %q", got)
	}
}
