package models

import "fmt"

// Stage is one step in the fixed review sequence. The integer value is the
// position in the sequence and is what gets persisted.
type Stage int

const (
	// StageToday holds freshly solved problems
	StageToday Stage = iota
	// StageTomorrow is the first timed revisit
	StageTomorrow
	// StageDay3 is the third-day revisit
	StageDay3
	// StageWeek1 is the one-week revisit
	StageWeek1
	// StageWeek2 is the two-week revisit
	StageWeek2
	// StageMonth1 is the one-month revisit
	StageMonth1
	// StageCompleted is terminal; items here are done with review
	StageCompleted
)

var stageNames = map[Stage]string{
	StageToday:     "today",
	StageTomorrow:  "tomorrow",
	StageDay3:      "day3",
	StageWeek1:     "week1",
	StageWeek2:     "week2",
	StageMonth1:    "month1",
	StageCompleted: "completed",
}

// String returns the wire name of the stage
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage converts a wire name back to a Stage
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage name: %q", name)
}

// MarshalText encodes the stage as its wire name. Text marshaling also
// covers map keys, which plain JSON marshaling does not.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage from its wire name
func (s *Stage) UnmarshalText(data []byte) error {
	parsed, err := ParseStage(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
