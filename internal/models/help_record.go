package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Help record severities, derived from how long the student has
// continuously needed help.
const (
	HelpSeverityRecent   = "RECENT"
	HelpSeverityWarning  = "WARNING"
	HelpSeverityCritical = "CRITICAL"
)

// SeverityForDays maps a continuous needing-help duration to a severity bucket.
func SeverityForDays(days int) string {
	switch {
	case days > 14:
		return HelpSeverityCritical
	case days > 7:
		return HelpSeverityWarning
	default:
		return HelpSeverityRecent
	}
}

// StudentHelpRecord flags a student as needing academic intervention.
// At most one unresolved record exists per student at any time; resolved
// records are kept for history.
type StudentHelpRecord struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	StudentID          uint               `gorm:"not null;index" json:"student_id"`
	Student            Student            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	ReasonsRaw         string             `gorm:"column:reasons;type:text" json:"-"`
	Reasons            []string           `gorm:"-" json:"reasons"`
	NeedsHelpSince     time.Time          `gorm:"not null" json:"needs_help_since"`
	DaysNeedingHelp    int                `gorm:"not null;default:1" json:"days_needing_help"`
	OverdueAssignments int                `gorm:"not null;default:0" json:"overdue_assignments"`
	AverageScore       float64            `gorm:"not null;default:0" json:"average_score"`
	CompletionRate     float64            `gorm:"not null;default:0" json:"completion_rate"`
	Severity           string             `gorm:"size:16;not null;default:RECENT" json:"severity"`
	IsResolved         bool               `gorm:"not null;default:false;index" json:"is_resolved"`
	ResolvedAt         *time.Time         `json:"resolved_at"`
	Classes            []HelpRecordClass  `gorm:"foreignKey:HelpRecordID" json:"classes,omitempty"`
	Teachers           []HelpRecordTeacher `gorm:"foreignKey:HelpRecordID" json:"teachers,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// BeforeSave serialises the reason list before persisting.
func (r *StudentHelpRecord) BeforeSave(tx *gorm.DB) error {
	r.ReasonsRaw = encodeReasons(r.Reasons)
	return nil
}

// AfterFind hydrates the reason list after retrieval.
func (r *StudentHelpRecord) AfterFind(tx *gorm.DB) error {
	r.Reasons = decodeReasons(r.ReasonsRaw)
	return nil
}

func encodeReasons(reasons []string) string {
	cleaned := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		trimmed := strings.TrimSpace(reason)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, "\n")
}

func decodeReasons(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "\n")
	reasons := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		reasons = append(reasons, trimmed)
	}
	return reasons
}

// HelpRecordClass links a help record to one of the student's classes at
// the time the record was created.
type HelpRecordClass struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HelpRecordID uint      `gorm:"not null;index" json:"help_record_id"`
	ClassID      uint      `gorm:"not null" json:"class_id"`
	Class        Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
	CreatedAt    time.Time `json:"created_at"`
}

// HelpRecordTeacher links a help record to the teacher in whose context
// the record was created. Only populated when the evaluation ran inside
// an assignment-grading flow, where the teacher is known.
type HelpRecordTeacher struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HelpRecordID uint      `gorm:"not null;index" json:"help_record_id"`
	TeacherID    uint      `gorm:"not null" json:"teacher_id"`
	Teacher      Teacher   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	CreatedAt    time.Time `json:"created_at"`
}
