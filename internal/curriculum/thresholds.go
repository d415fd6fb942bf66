package curriculum

// Threshold maps every total at or above MinScore to GradePoint.
type Threshold struct {
	MinScore   float64 `json:"minScore"`
	GradePoint int     `json:"gradePoint"`
}

// ThresholdTable is ordered by MinScore, highest first.
type ThresholdTable []Threshold

// GradePoint returns the grade point of the first threshold whose MinScore
// is at or below total, or 0 when total is below every threshold.
func (t ThresholdTable) GradePoint(total float64) int {
	for _, th := range t {
		if total >= th.MinScore {
			return th.GradePoint
		}
	}
	return 0
}

var (
	ma101Thresholds = ThresholdTable{
		{75, 10}, {70, 9}, {65, 8}, {59, 7}, {54, 6}, {49, 5}, {44, 4},
	}
	ph101Thresholds = ThresholdTable{
		{85, 10}, {75, 9}, {65, 8}, {60, 7}, {55, 6}, {50, 5}, {45, 4},
	}
	ge104Thresholds = ThresholdTable{
		{120, 10}, {115, 9}, {100, 8}, {80, 7}, {70, 6}, {60, 5}, {50, 4},
	}
	hs102Thresholds = ThresholdTable{
		{80, 10}, {75, 9}, {70, 8}, {60, 7}, {55, 6}, {50, 5}, {45, 4},
	}
	hs103Thresholds = ThresholdTable{
		{82, 10}, {70, 9}, {65, 8}, {60, 7}, {55, 6}, {50, 5}, {45, 4},
	}
	hs101Thresholds = ThresholdTable{
		{80, 10}, {70, 9}, {60, 8}, {55, 7}, {50, 6}, {45, 5}, {40, 4},
	}
)
