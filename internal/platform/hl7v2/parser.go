package hl7v2

// DefaultMaxMessageSize is the input ceiling applied before tokenizing.
const DefaultMaxMessageSize = 1 << 20

// DefaultVersion is assumed for strictness rules when MSH-12 is empty.
const DefaultVersion = "2.5.1"

// Parser holds parse configuration. It has no mutable state and is safe
// for concurrent use.
type Parser struct {
	maxSize        int
	profiles       *ProfileTable
	defaultVersion string
	decodeCharset  bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxMessageSize sets the input ceiling in bytes.
func WithMaxMessageSize(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxSize = n
		}
	}
}

// WithProfiles replaces the per-version strictness table.
func WithProfiles(t *ProfileTable) Option {
	return func(p *Parser) {
		if t != nil {
			p.profiles = t
		}
	}
}

// WithDefaultVersion sets the version assumed when MSH-12 is empty.
func WithDefaultVersion(v string) Option {
	return func(p *Parser) {
		if v != "" {
			p.defaultVersion = v
		}
	}
}

// WithCharsetDecoding toggles decoding of text declared in a non-UTF-8
// MSH-18 character set.
func WithCharsetDecoding(enabled bool) Option {
	return func(p *Parser) {
		p.decodeCharset = enabled
	}
}

// NewParser returns a Parser with the given options applied.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		maxSize:        DefaultMaxMessageSize,
		profiles:       DefaultProfileTable(),
		defaultVersion: DefaultVersion,
		decodeCharset:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxMessageSize returns the configured input ceiling.
func (p *Parser) MaxMessageSize() int { return p.maxSize }

// Profiles returns the strictness table in use.
func (p *Parser) Profiles() *ProfileTable { return p.profiles }

// Parse runs the full pipeline on raw message text. A non-nil error is
// always a *ParseError of a fatal kind and no message is returned with it.
// Otherwise the message is assembled, possibly with accumulated errors.
func (p *Parser) Parse(raw []byte) (*Message, error) {
	a := newAssembler(p)
	msg, fatal := a.run(raw)
	if fatal != nil {
		return nil, fatal
	}
	return msg, nil
}

var defaultParser = NewParser()

// Parse parses raw HL7v2 message bytes with the default configuration.
func Parse(raw []byte) (*Message, error) {
	return defaultParser.Parse(raw)
}
