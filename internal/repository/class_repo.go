package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

// ClassRepository provides access to classes and enrollments.
type ClassRepository interface {
	ListForStudent(ctx context.Context, studentID uint) ([]models.Class, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).
		Joins("JOIN class_enrollments ON class_enrollments.class_id = classes.id").
		Where("class_enrollments.student_id = ?", studentID).
		Order("classes.id ASC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}

	return classes, nil
}
