package hl7v2

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HD is a hierarchic designator (application, facility, assigning authority).
type HD struct {
	NamespaceID     string `json:"namespaceId,omitempty"`
	UniversalID     string `json:"universalId,omitempty"`
	UniversalIDType string `json:"universalIdType,omitempty"`
}

// IsZero reports whether no component is valued.
func (h HD) IsZero() bool { return h == HD{} }

// MessageType is MSH-9: message code, trigger event and structure.
type MessageType struct {
	Code      string `json:"code"`
	Event     string `json:"event,omitempty"`
	Structure string `json:"structure,omitempty"`
}

func (m MessageType) String() string {
	if m.Event == "" {
		return m.Code
	}
	return m.Code + "^" + m.Event
}

// CX is an extended composite identifier.
type CX struct {
	ID                 string `json:"id"`
	CheckDigit         string `json:"checkDigit,omitempty"`
	CheckDigitScheme   string `json:"checkDigitScheme,omitempty"`
	AssigningAuthority HD     `json:"assigningAuthority"`
	IdentifierTypeCode string `json:"identifierTypeCode,omitempty"`
	AssigningFacility  HD     `json:"assigningFacility"`
}

// XPN is an extended person name.
type XPN struct {
	FamilyName   string `json:"familyName,omitempty"`
	GivenName    string `json:"givenName,omitempty"`
	MiddleName   string `json:"middleName,omitempty"`
	Suffix       string `json:"suffix,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Degree       string `json:"degree,omitempty"`
	NameTypeCode string `json:"nameTypeCode,omitempty"`
}

// XAD is an extended address.
type XAD struct {
	Street           string `json:"street,omitempty"`
	OtherDesignation string `json:"otherDesignation,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	PostalCode       string `json:"postalCode,omitempty"`
	Country          string `json:"country,omitempty"`
	AddressType      string `json:"addressType,omitempty"`
	CountyCode       string `json:"countyCode,omitempty"`
}

// XTN is an extended telecommunication number.
type XTN struct {
	Number        string `json:"number,omitempty"`
	UseCode       string `json:"useCode,omitempty"`
	EquipmentType string `json:"equipmentType,omitempty"`
	Email         string `json:"email,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"`
	AreaCode      string `json:"areaCode,omitempty"`
	LocalNumber   string `json:"localNumber,omitempty"`
	Extension     string `json:"extension,omitempty"`
	AnyText       string `json:"anyText,omitempty"`
}

// CWE is a coded element (also used for the older CE type).
type CWE struct {
	Identifier            string `json:"identifier,omitempty"`
	Text                  string `json:"text,omitempty"`
	CodingSystem          string `json:"codingSystem,omitempty"`
	AlternateIdentifier   string `json:"alternateIdentifier,omitempty"`
	AlternateText         string `json:"alternateText,omitempty"`
	AlternateCodingSystem string `json:"alternateCodingSystem,omitempty"`
	OriginalText          string `json:"originalText,omitempty"`
}

// IsZero reports whether no component is valued.
func (c CWE) IsZero() bool { return c == CWE{} }

// XCN is an extended composite ID number and name for persons.
type XCN struct {
	ID                 string `json:"id,omitempty"`
	FamilyName         string `json:"familyName,omitempty"`
	GivenName          string `json:"givenName,omitempty"`
	MiddleName         string `json:"middleName,omitempty"`
	Suffix             string `json:"suffix,omitempty"`
	Prefix             string `json:"prefix,omitempty"`
	Degree             string `json:"degree,omitempty"`
	AssigningAuthority HD     `json:"assigningAuthority"`
}

// PL is a person location.
type PL struct {
	PointOfCare string `json:"pointOfCare,omitempty"`
	Room        string `json:"room,omitempty"`
	Bed         string `json:"bed,omitempty"`
	Facility    HD     `json:"facility"`
	Status      string `json:"status,omitempty"`
	Type        string `json:"type,omitempty"`
	Building    string `json:"building,omitempty"`
	Floor       string `json:"floor,omitempty"`
	Description string `json:"description,omitempty"`
}

// EI is an entity identifier.
type EI struct {
	EntityIdentifier string `json:"entityIdentifier,omitempty"`
	NamespaceID      string `json:"namespaceId,omitempty"`
	UniversalID      string `json:"universalId,omitempty"`
	UniversalIDType  string `json:"universalIdType,omitempty"`
}

// XON is an extended organization name.
type XON struct {
	OrganizationName string `json:"organizationName,omitempty"`
	NameTypeCode     string `json:"nameTypeCode,omitempty"`
	IDNumber         string `json:"idNumber,omitempty"`
}

func parseHD(c Component) HD {
	return HD{
		NamespaceID:     c.Sub(1),
		UniversalID:     c.Sub(2),
		UniversalIDType: c.Sub(3),
	}
}

// parseHDComponents reads an HD occupying a whole field (MSH-3..6).
func parseHDComponents(r Repetition) HD {
	return HD{
		NamespaceID:     r.Value(1),
		UniversalID:     r.Value(2),
		UniversalIDType: r.Value(3),
	}
}

func parseMessageType(r Repetition) MessageType {
	return MessageType{
		Code:      r.Value(1),
		Event:     r.Value(2),
		Structure: r.Value(3),
	}
}

func parseCX(r Repetition) CX {
	return CX{
		ID:                 r.Value(1),
		CheckDigit:         r.Value(2),
		CheckDigitScheme:   r.Value(3),
		AssigningAuthority: parseHD(r.Component(4)),
		IdentifierTypeCode: r.Value(5),
		AssigningFacility:  parseHD(r.Component(6)),
	}
}

func parseXPN(r Repetition) XPN {
	return XPN{
		FamilyName:   r.Value(1), // FN.1 surname
		GivenName:    r.Value(2),
		MiddleName:   r.Value(3),
		Suffix:       r.Value(4),
		Prefix:       r.Value(5),
		Degree:       r.Value(6),
		NameTypeCode: r.Value(7),
	}
}

func parseXAD(r Repetition) XAD {
	return XAD{
		Street:           r.Value(1), // SAD.1
		OtherDesignation: r.Value(2),
		City:             r.Value(3),
		State:            r.Value(4),
		PostalCode:       r.Value(5),
		Country:          r.Value(6),
		AddressType:      r.Value(7),
		CountyCode:       r.Value(9),
	}
}

func parseXTN(r Repetition) XTN {
	return XTN{
		Number:        r.Value(1),
		UseCode:       r.Value(2),
		EquipmentType: r.Value(3),
		Email:         r.Value(4),
		CountryCode:   r.Value(5),
		AreaCode:      r.Value(6),
		LocalNumber:   r.Value(7),
		Extension:     r.Value(8),
		AnyText:       r.Value(9),
	}
}

func parseCWE(r Repetition) CWE {
	return CWE{
		Identifier:            r.Value(1),
		Text:                  r.Value(2),
		CodingSystem:          r.Value(3),
		AlternateIdentifier:   r.Value(4),
		AlternateText:         r.Value(5),
		AlternateCodingSystem: r.Value(6),
		OriginalText:          r.Value(9),
	}
}

func parseXCN(r Repetition) XCN {
	return XCN{
		ID:                 r.Value(1),
		FamilyName:         r.Value(2),
		GivenName:          r.Value(3),
		MiddleName:         r.Value(4),
		Suffix:             r.Value(5),
		Prefix:             r.Value(6),
		Degree:             r.Value(7),
		AssigningAuthority: parseHD(r.Component(9)),
	}
}

func parsePL(r Repetition) PL {
	return PL{
		PointOfCare: r.Value(1),
		Room:        r.Value(2),
		Bed:         r.Value(3),
		Facility:    parseHD(r.Component(4)),
		Status:      r.Value(5),
		Type:        r.Value(6),
		Building:    r.Value(7),
		Floor:       r.Value(8),
		Description: r.Value(9),
	}
}

func parseEI(r Repetition) EI {
	return EI{
		EntityIdentifier: r.Value(1),
		NamespaceID:      r.Value(2),
		UniversalID:      r.Value(3),
		UniversalIDType:  r.Value(4),
	}
}

func parseXON(r Repetition) XON {
	return XON{
		OrganizationName: r.Value(1),
		NameTypeCode:     r.Value(2),
		IDNumber:         r.Value(3),
	}
}

// Precision records how much of a DTM value was present on the wire.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
	PrecisionFraction
)

// DateTime is an HL7 DTM/TS value with its declared precision. Values
// without an offset are interpreted in UTC.
type DateTime struct {
	Time      time.Time `json:"time"`
	Precision Precision `json:"precision"`
}

// IsZero reports whether the value is unset.
func (d DateTime) IsZero() bool { return d.Precision == PrecisionNone }

// Format renders the value back to DTM form at its original precision.
func (d DateTime) Format() string {
	layouts := map[Precision]string{
		PrecisionYear:     "2006",
		PrecisionMonth:    "200601",
		PrecisionDay:      "20060102",
		PrecisionHour:     "2006010215",
		PrecisionMinute:   "200601021504",
		PrecisionSecond:   "20060102150405",
		PrecisionFraction: "20060102150405.0000",
	}
	layout, ok := layouts[d.Precision]
	if !ok {
		return ""
	}
	return d.Time.Format(layout)
}

// ParseDateTime parses YYYY[MM[DD[HH[MM[SS[.S[S[S[S]]]]]]]]][+/-ZZZZ].
// Older TS values may carry a trailing ^precision component; callers pass
// only the first component.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateTime{}, nil
	}

	loc := time.UTC
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		offset := s[i:]
		s = s[:i]
		if len(offset) != 5 {
			return DateTime{}, fmt.Errorf("invalid time zone offset %q", offset)
		}
		hh, err1 := strconv.Atoi(offset[1:3])
		mm, err2 := strconv.Atoi(offset[3:5])
		if err1 != nil || err2 != nil || hh > 14 || mm > 59 {
			return DateTime{}, fmt.Errorf("invalid time zone offset %q", offset)
		}
		secs := hh*3600 + mm*60
		if offset[0] == '-' {
			secs = -secs
		}
		loc = time.FixedZone(offset, secs)
	}

	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac = s[i+1:]
		s = s[:i]
		if len(frac) == 0 || len(frac) > 4 || len(s) != 14 {
			return DateTime{}, fmt.Errorf("invalid fractional seconds in %q", s+"."+frac)
		}
	}

	var layout string
	var p Precision
	switch len(s) {
	case 4:
		layout, p = "2006", PrecisionYear
	case 6:
		layout, p = "200601", PrecisionMonth
	case 8:
		layout, p = "20060102", PrecisionDay
	case 10:
		layout, p = "2006010215", PrecisionHour
	case 12:
		layout, p = "200601021504", PrecisionMinute
	case 14:
		layout, p = "20060102150405", PrecisionSecond
	default:
		return DateTime{}, fmt.Errorf("unrecognized date/time %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return DateTime{}, fmt.Errorf("unrecognized date/time %q", s)
		}
	}

	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return DateTime{}, fmt.Errorf("unrecognized date/time %q: %w", s, err)
	}
	if frac != "" {
		n, err := strconv.Atoi(frac)
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid fractional seconds %q", frac)
		}
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		t = t.Add(time.Duration(n))
		p = PrecisionFraction
	}
	return DateTime{Time: t, Precision: p}, nil
}
