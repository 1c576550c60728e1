package hl7v2

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// MLLPStartBlock is the MLLP start-of-message byte (VT / vertical tab).
	MLLPStartBlock = 0x0B

	// MLLPEndBlock is the MLLP end-of-message byte (FS / file separator).
	MLLPEndBlock = 0x1C

	// MLLPCarriageReturn is the trailing CR after the end block.
	MLLPCarriageReturn = 0x0D
)

// batchEnvelopeSegments wrap batches of messages and carry no message data.
var batchEnvelopeSegments = map[string]bool{
	"FHS": true,
	"BHS": true,
	"BTS": true,
	"FTS": true,
}

// FrameMessage wraps raw HL7v2 bytes in MLLP framing:
//
//	<0x0B> + message + <0x1C><0x0D>
func FrameMessage(data []byte) []byte {
	frame := make([]byte, 0, len(data)+3)
	frame = append(frame, MLLPStartBlock)
	frame = append(frame, data...)
	frame = append(frame, MLLPEndBlock, MLLPCarriageReturn)
	return frame
}

// UnframeMessage extracts HL7v2 bytes from an MLLP frame. It looks for the
// first start block byte, then reads until end block + CR. It returns the
// extracted message, any remaining bytes after the frame, and whether a
// complete frame was found.
func UnframeMessage(data []byte) (message []byte, rest []byte, found bool) {
	startIdx := bytes.IndexByte(data, MLLPStartBlock)
	if startIdx == -1 {
		return nil, data, false
	}

	endSeq := []byte{MLLPEndBlock, MLLPCarriageReturn}
	endIdx := bytes.Index(data[startIdx+1:], endSeq)
	if endIdx == -1 {
		return nil, data, false
	}
	endIdx = startIdx + 1 + endIdx

	return data[startIdx+1 : endIdx], data[endIdx+2:], true
}

// SplitBatch splits a capture holding many messages. MLLP-framed captures
// are unframed; otherwise every MSH line starts a new message. FHS, BHS,
// BTS and FTS envelope lines are dropped.
func SplitBatch(data []byte) [][]byte {
	if bytes.IndexByte(data, MLLPStartBlock) >= 0 {
		var out [][]byte
		for {
			msg, rest, found := UnframeMessage(data)
			if !found {
				break
			}
			out = append(out, splitBatchText(string(msg))...)
			data = rest
		}
		return out
	}
	return splitBatchText(string(data))
}

func splitBatchText(text string) [][]byte {
	var (
		out     [][]byte
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, []byte(strings.Join(current, segmentTerminator)+segmentTerminator))
			current = nil
		}
	}

	for _, line := range splitSegments(text) {
		id := line
		if len(id) > 3 {
			id = id[:3]
		}
		switch {
		case batchEnvelopeSegments[id]:
			continue
		case id == headerSegment:
			flush()
		}
		current = append(current, line)
	}
	flush()
	return out
}

// BatchResult is the parse outcome of one message in a batch.
type BatchResult struct {
	Index   int
	Message *Message
	Err     error
}

// ParseAll parses msgs with at most workers concurrent parses. Results are
// in input order. The returned error is only ever the context's.
func (p *Parser) ParseAll(ctx context.Context, msgs [][]byte, workers int) ([]BatchResult, error) {
	results := make([]BatchResult, len(msgs))
	err := forEachConcurrent(ctx, len(msgs), workers, func(i int) error {
		msg, err := p.Parse(msgs[i])
		results[i] = BatchResult{Index: i, Message: msg, Err: err}
		return nil
	})
	return results, err
}

// forEachConcurrent runs fn for 0..n-1 on an errgroup bounded by workers.
func forEachConcurrent(ctx context.Context, n, workers int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
