package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/dto"
	"github.com/noah-isme/kelas-go-api/internal/models"
	"github.com/noah-isme/kelas-go-api/internal/repository"
)

// ErrQuestionNotFound indicates the graded question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// GradingService records grading outcomes and re-evaluates the graded
// student's help status with the assignment's teacher in context.
type GradingService interface {
	GradeQuestion(ctx context.Context, req dto.GradeRequest) (dto.ProgressResponse, error)
}

type gradingService struct {
	progress    repository.ProgressRepository
	assignments repository.AssignmentRepository
	statistics  repository.StatisticRepository
	reconciler  HelpReconciler
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(
	progress repository.ProgressRepository,
	assignments repository.AssignmentRepository,
	statistics repository.StatisticRepository,
	reconciler HelpReconciler,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		progress:    progress,
		assignments: assignments,
		statistics:  statistics,
		reconciler:  reconciler,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) GradeQuestion(ctx context.Context, req dto.GradeRequest) (dto.ProgressResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgressResponse{}, err
	}

	question, err := s.progress.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrQuestionNotFound
		}
		return dto.ProgressResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, question.AssignmentID)
	if err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("load assignment: %w", err)
	}

	now := s.now()
	progress := models.QuestionProgress{
		QuestionID:   question.ID,
		AssignmentID: question.AssignmentID,
		StudentID:    req.StudentID,
		Completed:    req.Completed,
		Score:        req.Score,
		Answer:       req.Answer,
	}
	if req.Completed {
		progress.CompletedAt = &now
	}

	if err := s.progress.Save(ctx, &progress); err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("save progress: %w", err)
	}

	if _, err := s.statistics.Recompute(ctx, req.StudentID); err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("recompute statistics: %w", err)
	}

	// The grading flow is the one place where the responsible teacher is
	// known, so the reconciler can link them to a newly created record.
	teacherID := assignment.TeacherID
	if err := s.reconciler.ReconcileStudent(ctx, req.StudentID, &teacherID); err != nil {
		s.logger.Warn().Err(err).
			Uint("student_id", req.StudentID).
			Msg("post-grade help reconciliation failed")
	}

	return dto.ProgressResponse{
		ID:           progress.ID,
		QuestionID:   progress.QuestionID,
		AssignmentID: progress.AssignmentID,
		StudentID:    progress.StudentID,
		Completed:    progress.Completed,
		Score:        progress.Score,
		CompletedAt:  progress.CompletedAt,
		UpdatedAt:    progress.UpdatedAt,
	}, nil
}
