package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/kelas-go-api/internal/dto"
	"github.com/noah-isme/kelas-go-api/internal/models"
	"github.com/noah-isme/kelas-go-api/internal/observability"
	"github.com/noah-isme/kelas-go-api/internal/repository"
)

// ErrScanInProgress is returned when a batch run is requested while a
// previous run has not finished.
var ErrScanInProgress = errors.New("help scan already in progress")

// NATS subjects for help lifecycle events.
const (
	SubjectHelpFlagged  = "kelas.help.flagged"
	SubjectHelpResolved = "kelas.help.resolved"
)

// HelpFeedCacheKey is the cache entry invalidated after every batch run.
const HelpFeedCacheKey = "help:feed:all"

// HelpReconciler evaluates student metrics against the help thresholds and
// reconciles the persisted help records.
type HelpReconciler interface {
	// RunBatch evaluates every active student. Per-student failures are
	// collected into the summary; only a roster-level failure returns an
	// error.
	RunBatch(ctx context.Context) (dto.HelpScanSummary, error)
	// ReconcileStudent evaluates a single student. teacherID, when known
	// (grading context), is linked to a newly created record.
	ReconcileStudent(ctx context.Context, studentID uint, teacherID *uint) error
}

type helpReconciler struct {
	students    repository.StudentRepository
	classes     repository.ClassRepository
	assignments repository.AssignmentRepository
	statistics  repository.StatisticRepository
	records     repository.HelpRecordRepository
	events      *nats.Conn
	cache       *redis.Client
	logger      zerolog.Logger
	now         func() time.Time
	running     atomic.Bool
}

// NewHelpReconciler constructs the reconciler. The NATS connection and the
// cache client may be nil; events and invalidation are then skipped.
func NewHelpReconciler(
	students repository.StudentRepository,
	classes repository.ClassRepository,
	assignments repository.AssignmentRepository,
	statistics repository.StatisticRepository,
	records repository.HelpRecordRepository,
	events *nats.Conn,
	cache *redis.Client,
	logger zerolog.Logger,
) HelpReconciler {
	return &helpReconciler{
		students:    students,
		classes:     classes,
		assignments: assignments,
		statistics:  statistics,
		records:     records,
		events:      events,
		cache:       cache,
		logger:      logger.With().Str("component", "help_reconciler").Logger(),
		now:         time.Now,
	}
}

func (s *helpReconciler) RunBatch(ctx context.Context) (dto.HelpScanSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return dto.HelpScanSummary{}, ErrScanInProgress
	}
	defer s.running.Store(false)

	tracer := otel.Tracer("github.com/noah-isme/kelas-go-api/internal/service/help_reconciler")
	ctx, span := tracer.Start(ctx, "help.scan")
	defer span.End()

	started := s.now()
	summary := dto.HelpScanSummary{Errors: []string{}, StartedAt: started}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_students_failed")
		observability.HelpScanRuns().WithLabelValues("error").Inc()
		return dto.HelpScanSummary{}, fmt.Errorf("list students: %w", err)
	}
	summary.TotalStudents = len(students)

	for _, student := range students {
		if err := s.reconcile(ctx, student, nil); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("student reconciliation failed")
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", student.Name, err))
			continue
		}
		summary.StudentsProcessed++
	}

	needingHelp, err := s.records.CountUnresolved(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count unresolved help records")
		summary.Errors = append(summary.Errors, fmt.Sprintf("count unresolved: %v", err))
	} else {
		summary.CurrentlyNeedingHelp = needingHelp
	}

	s.invalidateFeed(ctx)

	summary.FinishedAt = s.now()
	duration := summary.FinishedAt.Sub(started)
	observability.HelpScanRuns().WithLabelValues("ok").Inc()
	observability.HelpScanDuration().Observe(duration.Seconds())

	span.SetAttributes(
		attribute.Int("help.students_total", summary.TotalStudents),
		attribute.Int("help.students_processed", summary.StudentsProcessed),
		attribute.Int64("help.currently_needing_help", summary.CurrentlyNeedingHelp),
		attribute.Int("help.errors", len(summary.Errors)),
	)

	s.logger.Info().
		Int("students_total", summary.TotalStudents).
		Int("students_processed", summary.StudentsProcessed).
		Int64("currently_needing_help", summary.CurrentlyNeedingHelp).
		Int("errors", len(summary.Errors)).
		Dur("duration", duration).
		Msg("help scan completed")

	return summary, nil
}

func (s *helpReconciler) ReconcileStudent(ctx context.Context, studentID uint, teacherID *uint) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load student %d: %w", studentID, err)
	}

	if err := s.reconcile(ctx, student, teacherID); err != nil {
		return err
	}

	s.invalidateFeed(ctx)
	return nil
}

// reconcile applies the lifecycle state machine for one student. No record
// is touched for a student with zero assigned work.
func (s *helpReconciler) reconcile(ctx context.Context, student models.Student, teacherID *uint) error {
	statistic, err := s.statistics.GetByStudent(ctx, student.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		statistic, err = s.statistics.Recompute(ctx, student.ID)
	}
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}

	if statistic.TotalAssignments == 0 {
		return nil
	}

	now := s.now()
	overdue, err := s.countOverdue(ctx, student.ID, now)
	if err != nil {
		return fmt.Errorf("count overdue: %w", err)
	}

	snapshot := MetricsSnapshot{
		TotalAssignments:   statistic.TotalAssignments,
		CompletionRate:     statistic.CompletionRate,
		AverageScore:       statistic.AverageScore,
		OverdueAssignments: overdue,
	}
	evaluation := EvaluateThresholds(snapshot)

	existing, err := s.records.GetUnresolvedByStudent(ctx, student.ID)
	hasRecord := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load help record: %w", err)
	}

	switch {
	case evaluation.NeedsHelp && !hasRecord:
		return s.createRecord(ctx, student, snapshot, evaluation, now, teacherID)
	case evaluation.NeedsHelp && hasRecord:
		return s.updateRecord(ctx, &existing, snapshot, evaluation, now)
	case !evaluation.NeedsHelp && hasRecord:
		recovered := snapshot.CompletionRate >= MinCompletionRate &&
			snapshot.AverageScore >= MinAverageScore &&
			snapshot.OverdueAssignments == 0
		if !recovered {
			return nil
		}
		return s.resolveRecord(ctx, student, existing, now)
	default:
		return nil
	}
}

func (s *helpReconciler) createRecord(ctx context.Context, student models.Student, snapshot MetricsSnapshot, evaluation Evaluation, now time.Time, teacherID *uint) error {
	classes, err := s.classes.ListForStudent(ctx, student.ID)
	if err != nil {
		return fmt.Errorf("list classes: %w", err)
	}
	classIDs := make([]uint, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}

	record := models.StudentHelpRecord{
		StudentID:          student.ID,
		Reasons:            evaluation.Reasons,
		NeedsHelpSince:     now,
		DaysNeedingHelp:    1,
		OverdueAssignments: snapshot.OverdueAssignments,
		AverageScore:       snapshot.AverageScore,
		CompletionRate:     snapshot.CompletionRate,
		Severity:           models.SeverityForDays(1),
	}

	if err := s.records.CreateWithLinks(ctx, &record, classIDs, teacherID); err != nil {
		return fmt.Errorf("create help record: %w", err)
	}

	observability.StudentsFlagged().Inc()
	s.publish(SubjectHelpFlagged, helpEvent{
		Event:       "flagged",
		StudentID:   student.ID,
		StudentName: student.Name,
		Reasons:     evaluation.Reasons,
		Severity:    record.Severity,
		At:          now,
	})

	s.logger.Info().
		Uint("student_id", student.ID).
		Strs("reasons", evaluation.Reasons).
		Msg("student flagged as needing help")

	return nil
}

func (s *helpReconciler) updateRecord(ctx context.Context, record *models.StudentHelpRecord, snapshot MetricsSnapshot, evaluation Evaluation, now time.Time) error {
	record.DaysNeedingHelp = daysNeedingHelp(record.NeedsHelpSince, now)
	record.Reasons = evaluation.Reasons
	record.OverdueAssignments = snapshot.OverdueAssignments
	record.AverageScore = snapshot.AverageScore
	record.CompletionRate = snapshot.CompletionRate
	record.Severity = models.SeverityForDays(record.DaysNeedingHelp)
	record.IsResolved = false
	record.ResolvedAt = nil

	if err := s.records.Update(ctx, record); err != nil {
		return fmt.Errorf("update help record: %w", err)
	}

	return nil
}

func (s *helpReconciler) resolveRecord(ctx context.Context, student models.Student, record models.StudentHelpRecord, now time.Time) error {
	if err := s.records.Resolve(ctx, record.ID, now); err != nil {
		return fmt.Errorf("resolve help record: %w", err)
	}

	observability.StudentsResolved().Inc()
	s.publish(SubjectHelpResolved, helpEvent{
		Event:       "resolved",
		StudentID:   student.ID,
		StudentName: student.Name,
		At:          now,
	})

	s.logger.Info().Uint("student_id", student.ID).Msg("help record resolved")
	return nil
}

// countOverdue counts active assignments past their due date that the
// student has not fully completed. Assignments without questions are
// vacuously complete and never count.
func (s *helpReconciler) countOverdue(ctx context.Context, studentID uint, now time.Time) (int, error) {
	assignments, err := s.assignments.ListAssignedDueBefore(ctx, studentID, now)
	if err != nil {
		return 0, err
	}

	overdue := 0
	for _, assignment := range assignments {
		questions, err := s.assignments.CountQuestions(ctx, assignment.ID)
		if err != nil {
			return 0, err
		}
		if questions == 0 {
			continue
		}

		completed, err := s.assignments.CountCompletedQuestions(ctx, assignment.ID, studentID)
		if err != nil {
			return 0, err
		}
		if completed < questions {
			overdue++
		}
	}

	return overdue, nil
}

// daysNeedingHelp reports elapsed whole days since the episode started,
// rounded up, never below one. The since timestamp is set once at record
// creation and preserved across updates.
func daysNeedingHelp(since, now time.Time) int {
	days := int(math.Ceil(now.Sub(since).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

type helpEvent struct {
	Event       string    `json:"event"`
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	Reasons     []string  `json:"reasons,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	At          time.Time `json:"at"`
}

func (s *helpReconciler) publish(subject string, event helpEvent) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode help event")
		return
	}
	if err := s.events.Publish(subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish help event")
	}
}

func (s *helpReconciler) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, HelpFeedCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate help feed cache")
	}
}
