package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments and
// per-student question progress.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	// ListAssignedDueBefore returns active assignments with a due date
	// before the cutoff that reach the student either through a class
	// enrollment or through a direct assignment target.
	ListAssignedDueBefore(ctx context.Context, studentID uint, cutoff time.Time) ([]models.Assignment, error)
	CountQuestions(ctx context.Context, assignmentID uint) (int64, error)
	CountCompletedQuestions(ctx context.Context, assignmentID, studentID uint) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListAssignedDueBefore(ctx context.Context, studentID uint, cutoff time.Time) ([]models.Assignment, error) {
	enrolled := r.db.Model(&models.ClassEnrollment{}).
		Select("class_id").
		Where("student_id = ?", studentID)

	targeted := r.db.Model(&models.AssignmentTarget{}).
		Select("assignment_id").
		Where("student_id = ?", studentID)

	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("due_date < ?", cutoff).
		Where("class_id IN (?) OR id IN (?)", enrolled, targeted).
		Order("due_date ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) CountQuestions(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	return count, err
}

func (r *assignmentRepository) CountCompletedQuestions(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuestionProgress{}).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Where("completed = ?", true).
		Count(&count).Error
	return count, err
}
