package pipeline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage represents an episode's position in the processing pipeline.
type Stage string

const (
	StageDiscovered  Stage = "discovered"
	StageDownloading Stage = "downloading"
	StageDownloaded  Stage = "downloaded"
	StageConverting  Stage = "converting"
	StageConverted   Stage = "converted"
	StageUploading   Stage = "uploading"
	StageUploaded    Stage = "uploaded"
	StageScheduled   Stage = "scheduled"
	StagePublished   Stage = "published"
	StageFailed      Stage = "failed"
	StageSkipped     Stage = "skipped"
)

// The batch driver only ever persists the collapsed subset (discovered,
// downloaded, converted, published); the in-flight stages are reserved for a
// future streaming mode and accepted on load for forward compatibility.
var allStages = []Stage{
	StageDiscovered,
	StageDownloading,
	StageDownloaded,
	StageConverting,
	StageConverted,
	StageUploading,
	StageUploaded,
	StageScheduled,
	StagePublished,
	StageFailed,
	StageSkipped,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the stage ends processing. Failed is not
// terminal: failed records stay eligible for external retry.
func (s Stage) IsTerminal() bool {
	return s == StagePublished || s == StageSkipped
}

// UnmarshalYAML validates the persisted tag against the closed stage set so
// schema drift surfaces as a parse failure instead of a silent default.
func (s *Stage) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	stage, ok := ParseStage(raw)
	if !ok {
		return fmt.Errorf("unknown stage tag %q", raw)
	}
	*s = stage
	return nil
}
