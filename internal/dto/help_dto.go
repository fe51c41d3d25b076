package dto

import "time"

// HelpScanSummary reports the outcome of one reconciliation batch.
type HelpScanSummary struct {
	StudentsProcessed    int       `json:"students_processed"`
	CurrentlyNeedingHelp int64     `json:"currently_needing_help"`
	TotalStudents        int       `json:"total_students"`
	Errors               []string  `json:"errors"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
}

// HelpClassInfo identifies a class linked to a help record.
type HelpClassInfo struct {
	ClassID   uint   `json:"class_id"`
	Name      string `json:"name"`
	TeacherID uint   `json:"teacher_id"`
}

// HelpTeacherInfo identifies a teacher linked to a help record.
type HelpTeacherInfo struct {
	TeacherID uint   `json:"teacher_id"`
	Name      string `json:"name"`
}

// HelpRecordResponse decorates an unresolved help record for display.
type HelpRecordResponse struct {
	ID                 uint              `json:"id"`
	StudentID          uint              `json:"student_id"`
	StudentName        string            `json:"student_name"`
	Reasons            []string          `json:"reasons"`
	NeedsHelpSince     time.Time         `json:"needs_help_since"`
	DaysNeedingHelp    int               `json:"days_needing_help"`
	OverdueAssignments int               `json:"overdue_assignments"`
	AverageScore       float64           `json:"average_score"`
	CompletionRate     float64           `json:"completion_rate"`
	Severity           string            `json:"severity"`
	Classes            []HelpClassInfo   `json:"classes"`
	Teachers           []HelpTeacherInfo `json:"teachers"`
}

// HelpFeedResponse is the needing-help listing returned to teachers and admins.
type HelpFeedResponse struct {
	Items       []HelpRecordResponse `json:"items"`
	GeneratedAt time.Time            `json:"generated_at"`
	CacheHit    bool                 `json:"cache_hit"`
}
