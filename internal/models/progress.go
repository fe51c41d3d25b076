package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionProgress records a student's state on a single question.
type QuestionProgress struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	QuestionID   uint              `gorm:"not null;uniqueIndex:idx_progress_question_student" json:"question_id"`
	AssignmentID uint              `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint              `gorm:"not null;uniqueIndex:idx_progress_question_student" json:"student_id"`
	Completed    bool              `gorm:"not null;default:false;index" json:"completed"`
	Score        *float64          `json:"score"`
	Answer       datatypes.JSONMap `gorm:"type:json" json:"answer"`
	CompletedAt  *time.Time        `json:"completed_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// StudentStatistic holds the aggregated performance snapshot for one student.
type StudentStatistic struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	StudentID            uint      `gorm:"not null;uniqueIndex" json:"student_id"`
	TotalAssignments     int       `gorm:"not null;default:0" json:"total_assignments"`
	CompletedAssignments int       `gorm:"not null;default:0" json:"completed_assignments"`
	CompletionRate       float64   `gorm:"not null;default:0" json:"completion_rate"`
	AverageScore         float64   `gorm:"not null;default:0" json:"average_score"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
