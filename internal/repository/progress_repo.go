package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

// ProgressRepository persists per-question progress entries.
type ProgressRepository interface {
	GetQuestion(ctx context.Context, id uint) (models.Question, error)
	GetByQuestionAndStudent(ctx context.Context, questionID, studentID uint) (models.QuestionProgress, error)
	Save(ctx context.Context, progress *models.QuestionProgress) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *progressRepository) GetByQuestionAndStudent(ctx context.Context, questionID, studentID uint) (models.QuestionProgress, error) {
	var progress models.QuestionProgress
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Where("student_id = ?", studentID).
		First(&progress).Error
	if err != nil {
		return models.QuestionProgress{}, err
	}

	return progress, nil
}

func (r *progressRepository) Save(ctx context.Context, progress *models.QuestionProgress) error {
	if progress.ID != 0 {
		return r.db.WithContext(ctx).Save(progress).Error
	}

	var existing models.QuestionProgress
	err := r.db.WithContext(ctx).
		Where("question_id = ?", progress.QuestionID).
		Where("student_id = ?", progress.StudentID).
		First(&existing).Error
	switch {
	case err == nil:
		progress.ID = existing.ID
		progress.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(progress).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(progress).Error
	default:
		return err
	}
}
