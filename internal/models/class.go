package models

import "time"

// Class represents a group of students taught by one teacher.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	Teacher   Teacher   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassEnrollment links a student to a class.
type ClassEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
