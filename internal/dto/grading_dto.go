package dto

import "time"

// GradeRequest marks a question as graded for a student.
type GradeRequest struct {
	QuestionID uint                   `json:"question_id" validate:"required"`
	StudentID  uint                   `json:"student_id" validate:"required"`
	Score      *float64               `json:"score" validate:"omitempty,gte=0,lte=100"`
	Completed  bool                   `json:"completed"`
	Answer     map[string]interface{} `json:"answer"`
}

// ProgressResponse reflects the stored state of a question progress entry.
type ProgressResponse struct {
	ID           uint       `json:"id"`
	QuestionID   uint       `json:"question_id"`
	AssignmentID uint       `json:"assignment_id"`
	StudentID    uint       `json:"student_id"`
	Completed    bool       `json:"completed"`
	Score        *float64   `json:"score"`
	CompletedAt  *time.Time `json:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
