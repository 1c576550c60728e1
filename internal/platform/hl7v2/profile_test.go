package hl7v2

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestProfile_ResolveOverlay(t *testing.T) {
	table := DefaultProfileTable()

	tests := []struct {
		version string
		segment string
		want    []int
	}{
		{"2.5.1", "PID", []int{3, 5}},
		{"2.5.1", "DG1", []int{1, 3}},
		{"2.5", "DG1", []int{1, 3}},
		{"2.3", "OBX", []int{3}},
		{"2.3.1", "OBX", []int{3}},
		{"2.7", "DG1", []int{1, 3, 6}},
		{"2.7.1", "ERR", []int{3, 4}},
		{"2.9", "DG1", []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.version+"/"+tt.segment, func(t *testing.T) {
			got := table.Resolve(tt.version).RequiredFields(tt.segment)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := table.Resolve("2.7").RequiredFields("EVN"); len(got) != 0 {
		t.Errorf("expected 2.7 to relax EVN, got %v", got)
	}
}

func TestProfile_ExactlyOncePrecedence(t *testing.T) {
	p := DefaultProfileTable().Resolve("2.5.1")

	if got := p.ExactlyOnce(MessageType{Code: "ADT", Event: "A01"}); !reflect.DeepEqual(got, []string{"PID", "PV1"}) {
		t.Errorf("expected [PID PV1] for ADT^A01, got %v", got)
	}
	if got := p.ExactlyOnce(MessageType{Code: "ADT", Event: "A31"}); !reflect.DeepEqual(got, []string{"PID"}) {
		t.Errorf("expected [PID] for ADT^A31, got %v", got)
	}
	if got := p.ExactlyOnce(MessageType{Code: "ACK"}); !reflect.DeepEqual(got, []string{"MSA"}) {
		t.Errorf("expected [MSA] for ACK, got %v", got)
	}
	if got := p.ExactlyOnce(MessageType{Code: "ORU", Event: "R01"}); got != nil {
		t.Errorf("expected no rule for ORU, got %v", got)
	}
}

func TestProfile_RulesIsCopy(t *testing.T) {
	p := DefaultProfileTable().Resolve("2.5.1")
	rules := p.Rules()
	rules.RequiredFields["PID"][0] = 99
	rules.ExactlyOnce["ADT"] = nil

	if p.RequiredFields("PID")[0] != 3 {
		t.Error("expected profile to be unaffected by changes to Rules()")
	}
	if len(p.ExactlyOnce(MessageType{Code: "ADT"})) != 2 {
		t.Error("expected exactly-once rules to be unaffected")
	}
}

func TestLoadProfileTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"lowercase segment", "default:\n  required_fields:\n    pid: [3]\n"},
		{"zero field", "default:\n  required_fields:\n    PID: [0]\n"},
		{"bad exactly-once segment", "default:\n  exactly_once:\n    ADT: [PIDX]\n"},
		{"empty message key", "default:\n  exactly_once:\n    \"^A01\": [PID]\n"},
		{"bad overlay", "versions:\n  \"2.5\":\n    required_fields:\n      P1: [1]\n"},
		{"not yaml", "default: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProfileTable([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadProfileFile_AppliesToParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	yaml := "default:\n  required_fields:\n    PID: [3, 5, 7]\n  exactly_once:\n    ADT: [PID]\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	table, err := LoadProfileFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewParser(WithProfiles(table))
	msg, err := p.Parse([]byte(sampleADTNoVisit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Errors.HasErrors() {
		t.Errorf("expected PV1 not to be required, got %+v", msg.Errors.Errors())
	}
	missing := msg.Errors.OfKind(KindRequiredFieldMissing)
	if len(missing) != 1 || missing[0].Field != 7 {
		t.Errorf("expected PID-7 reported missing, got %+v", missing)
	}

	if _, err := LoadProfileFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
