package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

// HelpRecordFilter narrows the unresolved-record listing.
type HelpRecordFilter struct {
	// TeacherID restricts results to records linked to classes owned by
	// this teacher. Nil returns all unresolved records.
	TeacherID *uint
}

// HelpRecordRepository persists the help-record lifecycle. Writes that span
// the record and its join rows run inside one transaction.
type HelpRecordRepository interface {
	GetUnresolvedByStudent(ctx context.Context, studentID uint) (models.StudentHelpRecord, error)
	CreateWithLinks(ctx context.Context, record *models.StudentHelpRecord, classIDs []uint, teacherID *uint) error
	Update(ctx context.Context, record *models.StudentHelpRecord) error
	Resolve(ctx context.Context, recordID uint, at time.Time) error
	ListUnresolved(ctx context.Context, filter HelpRecordFilter) ([]models.StudentHelpRecord, error)
	CountUnresolved(ctx context.Context) (int64, error)
}

type helpRecordRepository struct {
	db *gorm.DB
}

// NewHelpRecordRepository constructs a help-record repository.
func NewHelpRecordRepository(db *gorm.DB) HelpRecordRepository {
	return &helpRecordRepository{db: db}
}

func (r *helpRecordRepository) GetUnresolvedByStudent(ctx context.Context, studentID uint) (models.StudentHelpRecord, error) {
	var record models.StudentHelpRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("is_resolved = ?", false).
		First(&record).Error
	if err != nil {
		return models.StudentHelpRecord{}, err
	}

	return record, nil
}

func (r *helpRecordRepository) CreateWithLinks(ctx context.Context, record *models.StudentHelpRecord, classIDs []uint, teacherID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		for _, classID := range classIDs {
			link := models.HelpRecordClass{HelpRecordID: record.ID, ClassID: classID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		if teacherID != nil {
			link := models.HelpRecordTeacher{HelpRecordID: record.ID, TeacherID: *teacherID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *helpRecordRepository) Update(ctx context.Context, record *models.StudentHelpRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *helpRecordRepository) Resolve(ctx context.Context, recordID uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.StudentHelpRecord{}).
		Where("id = ?", recordID).
		Where("is_resolved = ?", false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *helpRecordRepository) ListUnresolved(ctx context.Context, filter HelpRecordFilter) ([]models.StudentHelpRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StudentHelpRecord{}).
		Preload("Student").
		Preload("Classes.Class").
		Preload("Teachers.Teacher").
		Where("student_help_records.is_resolved = ?", false)

	if filter.TeacherID != nil {
		query = query.
			Joins("JOIN help_record_classes ON help_record_classes.help_record_id = student_help_records.id").
			Joins("JOIN classes ON classes.id = help_record_classes.class_id").
			Where("classes.teacher_id = ?", *filter.TeacherID).
			Distinct("student_help_records.*")
	}

	var records []models.StudentHelpRecord
	err := query.
		Order("student_help_records.days_needing_help DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *helpRecordRepository) CountUnresolved(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudentHelpRecord{}).
		Where("is_resolved = ?", false).
		Count(&count).Error
	return count, err
}
