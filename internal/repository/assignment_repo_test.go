package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-go-api/internal/models"
)

func TestListAssignedDueBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	teacher := seedTeacher(t, db, "pat")
	class := seedClass(t, db, "Algebra", teacher.ID)
	otherClass := seedClass(t, db, "Biology", teacher.ID)

	student := seedStudent(t, db, "ana")
	enroll(t, db, class.ID, student.ID)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	overdue := models.Assignment{Title: "Fractions", ClassID: &class.ID, TeacherID: teacher.ID, DueDate: now.Add(-48 * time.Hour), Active: true}
	require.NoError(t, db.Create(&overdue).Error)

	upcoming := models.Assignment{Title: "Decimals", ClassID: &class.ID, TeacherID: teacher.ID, DueDate: now.Add(48 * time.Hour), Active: true}
	require.NoError(t, db.Create(&upcoming).Error)

	inactive := models.Assignment{Title: "Draft", ClassID: &class.ID, TeacherID: teacher.ID, DueDate: now.Add(-24 * time.Hour), Active: false}
	require.NoError(t, db.Create(&inactive).Error)

	unreachable := models.Assignment{Title: "Cells", ClassID: &otherClass.ID, TeacherID: teacher.ID, DueDate: now.Add(-24 * time.Hour), Active: true}
	require.NoError(t, db.Create(&unreachable).Error)

	direct := models.Assignment{Title: "Makeup quiz", TeacherID: teacher.ID, DueDate: now.Add(-12 * time.Hour), Active: true}
	require.NoError(t, db.Create(&direct).Error)
	require.NoError(t, db.Create(&models.AssignmentTarget{AssignmentID: direct.ID, StudentID: student.ID}).Error)

	assignments, err := repo.ListAssignedDueBefore(ctx, student.ID, now)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, "Fractions", assignments[0].Title, "ordered by due date ascending")
	require.Equal(t, "Makeup quiz", assignments[1].Title)
}

func TestCountCompletedQuestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	teacher := seedTeacher(t, db, "pat")
	class := seedClass(t, db, "Algebra", teacher.ID)
	student := seedStudent(t, db, "ben")
	other := seedStudent(t, db, "cleo")
	enroll(t, db, class.ID, student.ID)

	assignment := models.Assignment{Title: "Fractions", ClassID: &class.ID, TeacherID: teacher.ID, DueDate: time.Now(), Active: true}
	require.NoError(t, db.Create(&assignment).Error)

	first := models.Question{AssignmentID: assignment.ID, Prompt: "1/2 + 1/4", Position: 1}
	second := models.Question{AssignmentID: assignment.ID, Prompt: "3/4 - 1/8", Position: 2}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	require.NoError(t, db.Create(&models.QuestionProgress{QuestionID: first.ID, AssignmentID: assignment.ID, StudentID: student.ID, Completed: true}).Error)
	require.NoError(t, db.Create(&models.QuestionProgress{QuestionID: second.ID, AssignmentID: assignment.ID, StudentID: student.ID, Completed: false}).Error)
	require.NoError(t, db.Create(&models.QuestionProgress{QuestionID: first.ID, AssignmentID: assignment.ID, StudentID: other.ID, Completed: true}).Error)

	questions, err := repo.CountQuestions(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), questions)

	completed, err := repo.CountCompletedQuestions(ctx, assignment.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), completed)
}
