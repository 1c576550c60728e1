package hl7v2

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// characterSets maps HL7 table 0211 values to encoding labels.
var characterSets = map[string]string{
	"8859/1":        "iso-8859-1",
	"8859/2":        "iso-8859-2",
	"8859/3":        "iso-8859-3",
	"8859/4":        "iso-8859-4",
	"8859/5":        "iso-8859-5",
	"8859/6":        "iso-8859-6",
	"8859/7":        "iso-8859-7",
	"8859/8":        "iso-8859-8",
	"8859/9":        "iso-8859-9",
	"8859/15":       "iso-8859-15",
	"ISO IR87":      "iso-2022-jp",
	"ISO IR159":     "iso-2022-jp",
	"GB 18030-2000": "gb18030",
	"KS X 1001":     "euc-kr",
	"BIG-5":         "big5",
}

// lookupCharset returns the decoder for an MSH-18 value. A nil encoding
// means the text needs no decoding.
func lookupCharset(name string) (encoding.Encoding, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	switch key {
	case "", "ASCII", "UNICODE UTF-8":
		return nil, nil
	}
	label, ok := characterSets[key]
	if !ok {
		return nil, fmt.Errorf("unsupported character set %q", name)
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("no decoder for character set %q", name)
	}
	return enc, nil
}

// SupportedCharacterSets lists the MSH-18 values the parser can decode.
func SupportedCharacterSets() []string {
	out := []string{"ASCII", "UNICODE UTF-8"}
	for k := range characterSets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// encodeCharset converts UTF-8 text back to enc. Runes the set cannot
// represent become its replacement character.
func encodeCharset(text []byte, enc encoding.Encoding) []byte {
	out, _, err := transform.Bytes(encoding.ReplaceUnsupported(enc.NewEncoder()), text)
	if err != nil {
		return text
	}
	return out
}

func decodeCharset(raw []byte, enc encoding.Encoding) ([]byte, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}
