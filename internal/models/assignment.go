package models

import "time"

// Assignment represents a piece of work given to a class or to individual students.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ClassID     *uint      `gorm:"index" json:"class_id"`
	TeacherID   uint       `gorm:"not null;index" json:"teacher_id"`
	DueDate     time.Time  `gorm:"not null;index" json:"due_date"`
	Active      bool       `gorm:"not null;default:true" json:"active"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// AssignmentTarget assigns an assignment directly to a single student,
// outside any class enrollment.
type AssignmentTarget struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_target_assignment_student" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_target_assignment_student" json:"student_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Question is a single item inside an assignment.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	Prompt       string    `gorm:"type:text;not null" json:"prompt"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
