package hl7v2

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AckCode is an MSA-1 acknowledgment code (HL7 table 0008).
type AckCode string

const (
	AckAccept       AckCode = "AA"
	AckError        AckCode = "AE"
	AckReject       AckCode = "AR"
	AckCommitAccept AckCode = "CA"
	AckCommitError  AckCode = "CE"
	AckCommitReject AckCode = "CR"
)

// Valid reports whether c is one of the six defined codes.
func (c AckCode) Valid() bool {
	switch c {
	case AckAccept, AckError, AckReject, AckCommitAccept, AckCommitError, AckCommitReject:
		return true
	}
	return false
}

// Commit reports whether c is an enhanced-mode commit acknowledgment.
func (c AckCode) Commit() bool {
	return c == AckCommitAccept || c == AckCommitError || c == AckCommitReject
}

// ParseAckCode validates a textual acknowledgment code.
func ParseAckCode(s string) (AckCode, error) {
	c := AckCode(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("hl7v2: invalid acknowledgment code %q", s)
	}
	return c, nil
}

// ResponseCode picks the acknowledgment for a parse outcome. Messages that
// value MSH-15 are answered in enhanced mode with commit codes.
func ResponseCode(msg *Message, err error) AckCode {
	if err != nil || msg == nil {
		return AckReject
	}
	enhanced := msg.Header.AcceptAcknowledgment != ""
	switch {
	case msg.Errors.HasErrors() && enhanced:
		return AckCommitError
	case msg.Errors.HasErrors():
		return AckError
	case enhanced:
		return AckCommitAccept
	default:
		return AckAccept
	}
}

const (
	ackTimestampLayout = "20060102150405"
	maxControlIDLength = 20
	errorCodeTable     = "HL70357"
)

type ackConfig struct {
	now         func() time.Time
	newID       func() string
	textMessage string
}

// AckOption configures acknowledgment construction.
type AckOption func(*ackConfig)

// WithClock sets the source of the MSH-7 timestamp.
func WithClock(now func() time.Time) AckOption {
	return func(c *ackConfig) { c.now = now }
}

// WithControlIDGenerator sets the source of the MSH-10 control ID.
func WithControlIDGenerator(gen func() string) AckOption {
	return func(c *ackConfig) { c.newID = gen }
}

// WithTextMessage sets MSA-3.
func WithTextMessage(text string) AckOption {
	return func(c *ackConfig) { c.textMessage = text }
}

func newAckConfig(opts []AckOption) *ackConfig {
	cfg := &ackConfig{
		now:   func() time.Time { return time.Now().UTC() },
		newID: newControlID,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// newControlID returns a random control ID that fits MSH-10.
func newControlID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:maxControlIDLength])
}

// Acknowledgment is an outbound ACK built for a parsed or rejected message.
type Acknowledgment struct {
	Code                AckCode
	ControlID           string
	ReferencedControlID string
	Delimiters          Delimiters

	Header *GenericSegment
	MSA    *GenericSegment
	Errors []*GenericSegment
}

// NewAcknowledgment builds the response to msg. When msg carries
// error-severity problems, every ParseError is reported in its own ERR.
func NewAcknowledgment(msg *Message, code AckCode, opts ...AckOption) (*Acknowledgment, error) {
	if msg == nil || msg.Header == nil {
		return nil, errors.New("hl7v2: acknowledgment requires a parsed message")
	}
	if !code.Valid() {
		return nil, fmt.Errorf("hl7v2: invalid acknowledgment code %q", code)
	}
	cfg := newAckConfig(opts)

	src := msg.Header.Generic()
	version := msg.Header.VersionID
	if version == "" {
		version = DefaultVersion
	}
	processingID := src.Field(11)
	if processingID.Empty() {
		processingID = leafField("P")
	}

	ack := &Acknowledgment{
		Code:                code,
		ControlID:           cfg.newID(),
		ReferencedControlID: msg.Header.MessageControlID,
		Delimiters:          msg.Delimiters,
	}
	ack.Header = ackHeader(ack.Delimiters, ackHeaderFields{
		sendingApp:   src.Field(5),
		sendingFac:   src.Field(6),
		receivingApp: src.Field(3),
		receivingFac: src.Field(4),
		timestamp:    cfg.now().Format(ackTimestampLayout),
		event:        msg.Header.MessageType.Event,
		controlID:    ack.ControlID,
		processingID: processingID,
		version:      version,
	})
	ack.MSA = ackMSA(code, ack.ReferencedControlID, cfg.textMessage)

	if msg.Errors.HasErrors() {
		legacy := legacyErrorLayout(version)
		for _, e := range msg.Errors {
			ack.Errors = append(ack.Errors, errSegment(e, legacy))
		}
	}
	return ack, nil
}

// NewRejectionAcknowledgment builds the response to a message that could
// not be parsed. When the delimiters and MSH were readable before the
// failure, the ACK uses them: the sender's delimiters, swapped
// applications and facilities, and MSA-2 set to the original MSH-10.
// Otherwise default delimiters are used and MSA-2 is empty.
func NewRejectionAcknowledgment(err error, code AckCode, opts ...AckOption) (*Acknowledgment, error) {
	if !code.Valid() {
		return nil, fmt.Errorf("hl7v2: invalid acknowledgment code %q", code)
	}
	cfg := newAckConfig(opts)

	var pe *ParseError
	if err != nil && !errors.As(err, &pe) {
		pe = &ParseError{Kind: ErrorKind("ApplicationError"), Severity: SeverityError, Message: err.Error()}
	}

	ack := &Acknowledgment{
		Code:       code,
		ControlID:  cfg.newID(),
		Delimiters: DefaultDelimiters,
	}
	fields := ackHeaderFields{
		timestamp:    cfg.now().Format(ackTimestampLayout),
		controlID:    ack.ControlID,
		processingID: leafField("P"),
		version:      DefaultVersion,
	}
	if pe != nil {
		if d, ok := pe.Delimiters(); ok {
			ack.Delimiters = d
		}
		if src := pe.header; src != nil {
			fields.sendingApp, fields.sendingFac = src.Field(5), src.Field(6)
			fields.receivingApp, fields.receivingFac = src.Field(3), src.Field(4)
			fields.event = src.Field(9).First().Value(2)
			if pid := src.Field(11); !pid.Empty() {
				fields.processingID = pid
			}
			if v := src.Value(12); v != "" {
				fields.version = v
			}
			ack.ReferencedControlID = src.Value(10)
		}
	}
	ack.Header = ackHeader(ack.Delimiters, fields)
	ack.MSA = ackMSA(code, ack.ReferencedControlID, cfg.textMessage)

	if pe != nil {
		ack.Errors = append(ack.Errors, errSegment(*pe, legacyErrorLayout(fields.version)))
	}
	return ack, nil
}

// Segments returns the ACK segments in wire order.
func (a *Acknowledgment) Segments() []*GenericSegment {
	segs := make([]*GenericSegment, 0, 2+len(a.Errors))
	segs = append(segs, a.Header, a.MSA)
	return append(segs, a.Errors...)
}

// Encode serializes the acknowledgment with its delimiters. Leaf values
// that collide with a delimiter are escaped.
func (a *Acknowledgment) Encode() []byte {
	return encodeSegments(a.Segments(), a.Delimiters)
}

func (a *Acknowledgment) String() string {
	return string(a.Encode())
}

type ackHeaderFields struct {
	sendingApp, sendingFac     Field
	receivingApp, receivingFac Field
	timestamp                  string
	event                      string
	controlID                  string
	processingID               Field
	version                    string
}

func ackHeader(d Delimiters, f ackHeaderFields) *GenericSegment {
	msgType := componentsField("ACK")
	if f.event != "" {
		msgType = componentsField("ACK", f.event, "ACK")
	}
	return &GenericSegment{
		Type: headerSegment,
		Fields: []Field{
			leafField(string(d.Field)),
			leafField(d.EncodingCharacters()),
			f.sendingApp,
			f.sendingFac,
			f.receivingApp,
			f.receivingFac,
			leafField(f.timestamp),
			nil,
			msgType,
			leafField(f.controlID),
			f.processingID,
			leafField(f.version),
		},
	}
}

func ackMSA(code AckCode, controlID, text string) *GenericSegment {
	fields := []Field{leafField(string(code)), leafField(controlID)}
	if text != "" {
		fields = append(fields, leafField(text))
	}
	return &GenericSegment{Type: "MSA", Fields: fields}
}

// errSegment renders one ParseError as ERR. The v2.5+ layout carries the
// location in ERR-2 and the code in ERR-3; older versions use ERR-1 ELD.
func errSegment(e ParseError, legacy bool) *GenericSegment {
	code, text := e.hl7ErrorCode()
	segID, seq, field := errorLocationValues(e)

	if legacy {
		return &GenericSegment{
			Type: "ERR",
			Fields: []Field{{Repetition{
				Component{segID},
				Component{seq},
				Component{field},
				Component{code, text, errorCodeTable},
			}}},
		}
	}

	var location Field
	if segID != "" {
		location = componentsField(segID, seq, field)
	}
	return &GenericSegment{
		Type: "ERR",
		Fields: []Field{
			nil,
			location,
			componentsField(code, text, errorCodeTable),
			leafField(severityCode(e.Severity)),
			nil,
			nil,
			nil,
			leafField(e.Message),
		},
	}
}

func errorLocationValues(e ParseError) (segID, seq, field string) {
	segID = e.SegmentType
	if e.Segment > 0 {
		seq = strconv.Itoa(e.Segment)
	}
	if e.Field > 0 {
		field = strconv.Itoa(e.Field)
	}
	return segID, seq, field
}

// severityCode maps to HL7 table 0516.
func severityCode(s Severity) string {
	if s == SeverityError {
		return "E"
	}
	return "I"
}

// legacyErrorLayout reports whether version predates the v2.5 ERR layout.
func legacyErrorLayout(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return false
	}
	return major == 2 && minor < 5
}
