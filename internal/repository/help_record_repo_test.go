package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.Class{},
		&models.ClassEnrollment{},
		&models.Assignment{},
		&models.AssignmentTarget{},
		&models.Question{},
		&models.QuestionProgress{},
		&models.StudentStatistic{},
		&models.StudentHelpRecord{},
		&models.HelpRecordClass{},
		&models.HelpRecordTeacher{},
	))

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: name + "@school.test", Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedTeacher(t *testing.T, db *gorm.DB, name string) models.Teacher {
	t.Helper()
	teacher := models.Teacher{Name: name, Email: name + "@school.test"}
	require.NoError(t, db.Create(&teacher).Error)
	return teacher
}

func seedClass(t *testing.T, db *gorm.DB, name string, teacherID uint) models.Class {
	t.Helper()
	class := models.Class{Name: name, TeacherID: teacherID}
	require.NoError(t, db.Create(&class).Error)
	return class
}

func enroll(t *testing.T, db *gorm.DB, classID, studentID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.ClassEnrollment{ClassID: classID, StudentID: studentID}).Error)
}

func TestHelpRecordCreateWithLinks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHelpRecordRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "ana")
	teacher := seedTeacher(t, db, "pat")
	class := seedClass(t, db, "Algebra", teacher.ID)

	since := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	record := models.StudentHelpRecord{
		StudentID:       student.ID,
		Reasons:         []string{"Low overall completion rate", "Low average score"},
		NeedsHelpSince:  since,
		DaysNeedingHelp: 1,
		Severity:        models.HelpSeverityRecent,
	}
	require.NoError(t, repo.CreateWithLinks(ctx, &record, []uint{class.ID}, &teacher.ID))
	require.NotZero(t, record.ID)

	found, err := repo.GetUnresolvedByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, record.ID, found.ID)
	require.Equal(t, []string{"Low overall completion rate", "Low average score"}, found.Reasons)
	require.False(t, found.IsResolved)

	var classLinks []models.HelpRecordClass
	require.NoError(t, db.Where("help_record_id = ?", record.ID).Find(&classLinks).Error)
	require.Len(t, classLinks, 1)
	require.Equal(t, class.ID, classLinks[0].ClassID)

	var teacherLinks []models.HelpRecordTeacher
	require.NoError(t, db.Where("help_record_id = ?", record.ID).Find(&teacherLinks).Error)
	require.Len(t, teacherLinks, 1)
	require.Equal(t, teacher.ID, teacherLinks[0].TeacherID)
}

func TestHelpRecordResolve(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHelpRecordRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "ben")
	record := models.StudentHelpRecord{
		StudentID:      student.ID,
		Reasons:        []string{"Low average score"},
		NeedsHelpSince: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateWithLinks(ctx, &record, nil, nil))

	resolvedAt := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Resolve(ctx, record.ID, resolvedAt))

	_, err := repo.GetUnresolvedByStudent(ctx, student.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var stored models.StudentHelpRecord
	require.NoError(t, db.First(&stored, record.ID).Error)
	require.True(t, stored.IsResolved)
	require.NotNil(t, stored.ResolvedAt)

	// Resolving twice is an error, the record is no longer open.
	require.ErrorIs(t, repo.Resolve(ctx, record.ID, resolvedAt), gorm.ErrRecordNotFound)
}

func TestHelpRecordListUnresolvedOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHelpRecordRepository(db)
	ctx := context.Background()

	shortTerm := seedStudent(t, db, "cleo")
	longTerm := seedStudent(t, db, "dara")

	recent := models.StudentHelpRecord{StudentID: shortTerm.ID, NeedsHelpSince: time.Now().UTC(), DaysNeedingHelp: 3}
	require.NoError(t, repo.CreateWithLinks(ctx, &recent, nil, nil))
	chronic := models.StudentHelpRecord{StudentID: longTerm.ID, NeedsHelpSince: time.Now().UTC(), DaysNeedingHelp: 16}
	require.NoError(t, repo.CreateWithLinks(ctx, &chronic, nil, nil))

	records, err := repo.ListUnresolved(ctx, HelpRecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, longTerm.ID, records[0].StudentID, "longest-needing students come first")
	require.Equal(t, shortTerm.ID, records[1].StudentID)
	require.Equal(t, "dara", records[0].Student.Name)
}

func TestHelpRecordListUnresolvedTeacherFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHelpRecordRepository(db)
	ctx := context.Background()

	mine := seedTeacher(t, db, "pat")
	other := seedTeacher(t, db, "kim")
	myClass := seedClass(t, db, "Algebra", mine.ID)
	otherClass := seedClass(t, db, "Biology", other.ID)

	visible := seedStudent(t, db, "evan")
	hidden := seedStudent(t, db, "fay")

	visibleRecord := models.StudentHelpRecord{StudentID: visible.ID, NeedsHelpSince: time.Now().UTC()}
	require.NoError(t, repo.CreateWithLinks(ctx, &visibleRecord, []uint{myClass.ID}, nil))
	hiddenRecord := models.StudentHelpRecord{StudentID: hidden.ID, NeedsHelpSince: time.Now().UTC()}
	require.NoError(t, repo.CreateWithLinks(ctx, &hiddenRecord, []uint{otherClass.ID}, nil))

	records, err := repo.ListUnresolved(ctx, HelpRecordFilter{TeacherID: &mine.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, visible.ID, records[0].StudentID)
	require.Len(t, records[0].Classes, 1)
	require.Equal(t, "Algebra", records[0].Classes[0].Class.Name)
}

func TestHelpRecordCountUnresolved(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHelpRecordRepository(db)
	ctx := context.Background()

	open := seedStudent(t, db, "gus")
	closed := seedStudent(t, db, "hana")

	openRecord := models.StudentHelpRecord{StudentID: open.ID, NeedsHelpSince: time.Now().UTC()}
	require.NoError(t, repo.CreateWithLinks(ctx, &openRecord, nil, nil))
	closedRecord := models.StudentHelpRecord{StudentID: closed.ID, NeedsHelpSince: time.Now().UTC()}
	require.NoError(t, repo.CreateWithLinks(ctx, &closedRecord, nil, nil))
	require.NoError(t, repo.Resolve(ctx, closedRecord.ID, time.Now().UTC()))

	count, err := repo.CountUnresolved(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
