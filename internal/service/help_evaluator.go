package service

import "fmt"

// Threshold values below which a student is flagged as needing help, and
// the recovery conditions that resolve an open record.
const (
	MinCompletionRate = 50.0
	MinAverageScore   = 50.0
)

// MetricsSnapshot carries the inputs for one threshold evaluation.
type MetricsSnapshot struct {
	TotalAssignments   int
	CompletionRate     float64
	AverageScore       float64
	OverdueAssignments int
}

// Evaluation is the outcome of a threshold evaluation.
type Evaluation struct {
	NeedsHelp bool
	Reasons   []string
}

// EvaluateThresholds decides whether a student needs help. Students with no
// assigned work are never flagged. The reason order is fixed: completion
// rate, average score, overdue count.
func EvaluateThresholds(snapshot MetricsSnapshot) Evaluation {
	if snapshot.TotalAssignments == 0 {
		return Evaluation{Reasons: []string{}}
	}

	reasons := make([]string, 0, 3)
	if snapshot.CompletionRate < MinCompletionRate {
		reasons = append(reasons, "Low overall completion rate")
	}
	if snapshot.AverageScore < MinAverageScore {
		reasons = append(reasons, "Low average score")
	}
	if snapshot.OverdueAssignments > 0 {
		reasons = append(reasons, overdueReason(snapshot.OverdueAssignments))
	}

	return Evaluation{
		NeedsHelp: len(reasons) > 0,
		Reasons:   reasons,
	}
}

func overdueReason(count int) string {
	if count == 1 {
		return "1 overdue assignment"
	}
	return fmt.Sprintf("%d overdue assignments", count)
}
