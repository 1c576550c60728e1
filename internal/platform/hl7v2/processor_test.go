package hl7v2

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestProcessor(buf *bytes.Buffer, opts ...AckOption) *Processor {
	logger := zerolog.New(buf)
	return NewProcessor(nil, logger, opts...)
}

func TestProcessor_Process(t *testing.T) {
	var buf bytes.Buffer
	proc := newTestProcessor(&buf, WithControlIDGenerator(fixedID))

	res, err := proc.Process([]byte(sampleADTNoVisit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err != nil {
		t.Fatalf("unexpected parse error: %v", res.Err)
	}
	if res.Ack.Code != AckError {
		t.Errorf("expected AE, got %q", res.Ack.Code)
	}
	if res.Ack.ControlID != "ACK0001" {
		t.Errorf("expected ACK options to be applied, got %q", res.Ack.ControlID)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"message":"hl7v2 message processed"`) {
		t.Errorf("expected processed log line, got %s", logs)
	}
	if !strings.Contains(logs, `"ack_code":"AE"`) {
		t.Errorf("expected ack_code in log, got %s", logs)
	}
	if !strings.Contains(logs, `"kind":"RequiredSegmentMissing"`) {
		t.Errorf("expected the parse error to be logged, got %s", logs)
	}
}

func TestProcessor_Rejected(t *testing.T) {
	var buf bytes.Buffer
	proc := newTestProcessor(&buf)

	res, err := proc.Process([]byte("PID|1||123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err == nil {
		t.Fatal("expected parse error")
	}
	if res.Message != nil {
		t.Error("expected no message")
	}
	if res.Ack.Code != AckReject {
		t.Errorf("expected AR, got %q", res.Ack.Code)
	}
	if !strings.Contains(buf.String(), "hl7v2 message rejected") {
		t.Errorf("expected rejection log line, got %s", buf.String())
	}
}

func TestProcessor_ProcessWithCode(t *testing.T) {
	proc := NewProcessor(nil, zerolog.Nop())

	res, err := proc.ProcessWithCode([]byte(sampleADT), AckCommitAccept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ack.MSA.Value(1) != "CA" {
		t.Errorf("expected MSA-1 CA, got %q", res.Ack.MSA.Value(1))
	}

	if _, err := proc.ProcessWithCode([]byte(sampleADT), AckCode("XX")); err == nil {
		t.Error("expected error for an invalid code")
	}
}

func TestProcessor_DetectDuplicates(t *testing.T) {
	var buf bytes.Buffer
	proc := newTestProcessor(&buf)
	proc.DetectDuplicates(time.Minute)

	first, err := proc.Process([]byte(sampleADT))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Duplicate {
		t.Fatal("expected first delivery not to be a duplicate")
	}

	second, err := proc.Process([]byte(sampleADT))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("expected retransmission to be flagged")
	}
	if second.Ack != first.Ack {
		t.Error("expected the original acknowledgment to be returned")
	}
	if !strings.Contains(buf.String(), "hl7v2 duplicate message") {
		t.Errorf("expected duplicate log line, got %s", buf.String())
	}

	other, err := proc.Process([]byte(sampleORM))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Duplicate {
		t.Error("expected a different control ID not to be a duplicate")
	}
}

func TestProcessor_DuplicatesOffByDefault(t *testing.T) {
	proc := NewProcessor(nil, zerolog.Nop())
	for i := 0; i < 2; i++ {
		res, err := proc.Process([]byte(sampleADT))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Duplicate {
			t.Fatal("expected duplicate detection to be off")
		}
	}

	proc.DetectDuplicates(time.Minute)
	proc.DetectDuplicates(0)
	proc.Process([]byte(sampleADT))
	if res, _ := proc.Process([]byte(sampleADT)); res.Duplicate {
		t.Error("expected a zero window to turn detection off")
	}
}

func TestProcessor_ProcessBatch(t *testing.T) {
	var buf bytes.Buffer
	proc := newTestProcessor(&buf)

	data := append(FrameMessage([]byte(sampleADT)), FrameMessage([]byte("garbage\r"))...)
	data = append(data, FrameMessage([]byte(sampleORU))...)

	results, err := proc.ProcessBatch(context.Background(), data, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestProcessor_ProcessBatchPlain(t *testing.T) {
	proc := NewProcessor(nil, zerolog.Nop())

	results, err := proc.ProcessBatch(context.Background(), []byte(sampleADT+sampleORM+sampleADTNoVisit), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []AckCode{AckAccept, AckAccept, AckError}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, res := range results {
		if res.Ack.Code != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], res.Ack.Code)
		}
	}
}
