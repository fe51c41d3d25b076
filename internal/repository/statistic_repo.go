package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

// StatisticRepository maintains the per-student aggregate performance row.
type StatisticRepository interface {
	GetByStudent(ctx context.Context, studentID uint) (models.StudentStatistic, error)
	// Recompute rebuilds the aggregate from assignments and question
	// progress and upserts the stored row.
	Recompute(ctx context.Context, studentID uint) (models.StudentStatistic, error)
}

type statisticRepository struct {
	db *gorm.DB
}

// NewStatisticRepository constructs a statistic repository.
func NewStatisticRepository(db *gorm.DB) StatisticRepository {
	return &statisticRepository{db: db}
}

func (r *statisticRepository) GetByStudent(ctx context.Context, studentID uint) (models.StudentStatistic, error) {
	var statistic models.StudentStatistic
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&statistic).Error
	if err != nil {
		return models.StudentStatistic{}, err
	}

	return statistic, nil
}

func (r *statisticRepository) Recompute(ctx context.Context, studentID uint) (models.StudentStatistic, error) {
	db := r.db.WithContext(ctx)

	enrolled := db.Model(&models.ClassEnrollment{}).
		Select("class_id").
		Where("student_id = ?", studentID)

	targeted := db.Model(&models.AssignmentTarget{}).
		Select("assignment_id").
		Where("student_id = ?", studentID)

	var assignments []models.Assignment
	err := db.
		Where("active = ?", true).
		Where("class_id IN (?) OR id IN (?)", enrolled, targeted).
		Find(&assignments).Error
	if err != nil {
		return models.StudentStatistic{}, err
	}

	completed := 0
	for _, assignment := range assignments {
		var questionCount int64
		if err := db.Model(&models.Question{}).
			Where("assignment_id = ?", assignment.ID).
			Count(&questionCount).Error; err != nil {
			return models.StudentStatistic{}, err
		}
		if questionCount == 0 {
			continue
		}

		var completedCount int64
		if err := db.Model(&models.QuestionProgress{}).
			Where("assignment_id = ?", assignment.ID).
			Where("student_id = ?", studentID).
			Where("completed = ?", true).
			Count(&completedCount).Error; err != nil {
			return models.StudentStatistic{}, err
		}
		if completedCount >= questionCount {
			completed++
		}
	}

	var average struct {
		Value *float64
	}
	err = db.Model(&models.QuestionProgress{}).
		Select("AVG(score) AS value").
		Where("student_id = ?", studentID).
		Where("score IS NOT NULL").
		Scan(&average).Error
	if err != nil {
		return models.StudentStatistic{}, err
	}

	statistic := models.StudentStatistic{
		StudentID:            studentID,
		TotalAssignments:     len(assignments),
		CompletedAssignments: completed,
	}
	if statistic.TotalAssignments > 0 {
		statistic.CompletionRate = float64(completed) / float64(statistic.TotalAssignments) * 100
	}
	if average.Value != nil {
		statistic.AverageScore = *average.Value
	}

	var existing models.StudentStatistic
	err = db.Where("student_id = ?", studentID).First(&existing).Error
	switch {
	case err == nil:
		statistic.ID = existing.ID
		statistic.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return models.StudentStatistic{}, err
	}

	if err := db.Save(&statistic).Error; err != nil {
		return models.StudentStatistic{}, err
	}

	return statistic, nil
}
