package pipeline

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"resound/internal/services"
)

func TestParseStage(t *testing.T) {
	for _, stage := range AllStages() {
		parsed, err := ParseStage(string(stage))
		if err != nil {
			t.Fatalf("ParseStage(%q) failed: %v", stage, err)
		}
		if parsed != stage {
			t.Fatalf("ParseStage(%q) = %q", stage, parsed)
		}
	}

	if _, err := ParseStage("transcoding"); !errors.Is(err, services.ErrParse) {
		t.Fatalf("unknown stage should yield ErrParse, got %v", err)
	}
}

func TestStageUnmarshalRejectsUnknownTag(t *testing.T) {
	var status StatusInfo
	err := yaml.Unmarshal([]byte("stage: exploded\n"), &status)
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("unknown stage tag should yield ErrParse, got %v", err)
	}

	if err := yaml.Unmarshal([]byte("stage: converting\n"), &status); err != nil {
		t.Fatalf("valid in-flight stage rejected: %v", err)
	}
	if status.Stage != StageConverting {
		t.Fatalf("stage = %q, want converting", status.Stage)
	}
}

func TestTerminalStages(t *testing.T) {
	terminal := map[Stage]bool{StagePublished: true, StageSkipped: true}
	for _, stage := range AllStages() {
		if stage.IsTerminal() != terminal[stage] {
			t.Fatalf("IsTerminal(%q) = %v", stage, stage.IsTerminal())
		}
	}
}
