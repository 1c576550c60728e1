package hl7v2

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// Result is the outcome of processing one inbound message: either a parsed
// message or the fatal error, plus the acknowledgment to send back.
type Result struct {
	Message *Message
	Err     error
	Ack     *Acknowledgment
	// Duplicate is set when the message repeats a control ID already
	// acknowledged inside the duplicate window. Ack is the original one.
	Duplicate bool
}

// Processor parses messages, logs what it found and builds the matching
// acknowledgment.
type Processor struct {
	parser  *Parser
	logger  zerolog.Logger
	ackOpts []AckOption
	seen    *cache.Cache
}

// NewProcessor creates a processor. A nil parser uses the defaults.
func NewProcessor(parser *Parser, logger zerolog.Logger, opts ...AckOption) *Processor {
	if parser == nil {
		parser = NewParser()
	}
	return &Processor{parser: parser, logger: logger, ackOpts: opts}
}

// DetectDuplicates makes the processor answer a retransmitted message
// (same sending application, facility and control ID) with the
// acknowledgment it already sent, for ttl after the first delivery. A zero
// ttl turns detection off.
func (p *Processor) DetectDuplicates(ttl time.Duration) {
	if ttl <= 0 {
		p.seen = nil
		return
	}
	p.seen = cache.New(ttl, 2*ttl)
}

func duplicateKey(msg *Message) string {
	h := msg.Header
	return h.SendingApplication.NamespaceID + "|" + h.SendingFacility.NamespaceID + "|" + msg.ControlID()
}

// Parser returns the parser used by the processor.
func (p *Processor) Parser() *Parser { return p.parser }

// Process parses raw and acknowledges it with the code chosen by
// ResponseCode.
func (p *Processor) Process(raw []byte) (*Result, error) {
	msg, perr := p.parser.Parse(raw)
	return p.acknowledge(msg, perr, ResponseCode(msg, perr), len(raw))
}

// ProcessWithCode parses raw and acknowledges it with an explicit code.
func (p *Processor) ProcessWithCode(raw []byte, code AckCode) (*Result, error) {
	msg, perr := p.parser.Parse(raw)
	return p.acknowledge(msg, perr, code, len(raw))
}

func (p *Processor) acknowledge(msg *Message, perr error, code AckCode, size int) (*Result, error) {
	if perr != nil {
		p.logger.Warn().Err(perr).Int("bytes", size).Str("ack_code", string(code)).Msg("hl7v2 message rejected")
		ack, err := NewRejectionAcknowledgment(perr, code, p.ackOpts...)
		if err != nil {
			return nil, fmt.Errorf("build rejection ack: %w", err)
		}
		return &Result{Err: perr, Ack: ack}, nil
	}

	var key string
	if p.seen != nil && msg.ControlID() != "" {
		key = duplicateKey(msg)
		if prev, found := p.seen.Get(key); found {
			p.logger.Info().
				Str("control_id", msg.ControlID()).
				Str("sending_app", msg.Header.SendingApplication.NamespaceID).
				Msg("hl7v2 duplicate message")
			return &Result{Message: msg, Ack: prev.(*Acknowledgment), Duplicate: true}, nil
		}
	}

	p.logErrors(msg)
	ack, err := NewAcknowledgment(msg, code, p.ackOpts...)
	if err != nil {
		return nil, fmt.Errorf("build ack for %s: %w", msg.ControlID(), err)
	}
	if key != "" {
		p.seen.SetDefault(key, ack)
	}

	p.logger.Info().
		Str("type", msg.Type().String()).
		Str("kind", string(msg.Kind())).
		Str("control_id", msg.ControlID()).
		Str("version", msg.Version()).
		Int("segments", len(msg.Segments)).
		Int("errors", len(msg.Errors.Errors())).
		Int("warnings", len(msg.Errors.Warnings())).
		Str("ack_code", string(code)).
		Msg("hl7v2 message processed")

	return &Result{Message: msg, Ack: ack}, nil
}

func (p *Processor) logErrors(msg *Message) {
	for _, e := range msg.Errors {
		ev := p.logger.Debug()
		if e.Severity == SeverityError {
			ev = p.logger.Warn()
		}
		ev.Str("control_id", msg.ControlID()).
			Str("kind", string(e.Kind)).
			Str("segment_type", e.SegmentType).
			Int("segment", e.Segment).
			Int("field", e.Field).
			Msg(e.Message)
	}
}

// ProcessBatch splits a capture with SplitBatch and processes the messages
// on at most workers goroutines. Results are in capture order.
func (p *Processor) ProcessBatch(ctx context.Context, data []byte, workers int) ([]*Result, error) {
	msgs := SplitBatch(data)
	results := make([]*Result, len(msgs))
	err := forEachConcurrent(ctx, len(msgs), workers, func(i int) error {
		res, err := p.Process(msgs[i])
		if err != nil {
			return fmt.Errorf("message %d: %w", i+1, err)
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info().Int("messages", len(msgs)).Int("workers", workers).Msg("hl7v2 batch processed")
	return results, nil
}
