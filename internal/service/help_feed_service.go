package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kelas-go-api/internal/dto"
	"github.com/noah-isme/kelas-go-api/internal/models"
	"github.com/noah-isme/kelas-go-api/internal/repository"
)

// Viewer scopes the needing-help feed to the requesting user.
type Viewer struct {
	Role      string
	TeacherID uint
}

// Viewer roles understood by the feed.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// HelpFeedService serves the needing-help listing for teachers and admins.
type HelpFeedService interface {
	ListNeedingHelp(ctx context.Context, viewer Viewer) (dto.HelpFeedResponse, error)
}

type helpFeedService struct {
	records  repository.HelpRecordRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewHelpFeedService constructs the feed service.
func NewHelpFeedService(records repository.HelpRecordRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) HelpFeedService {
	return &helpFeedService{
		records:  records,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "help_feed_service").Logger(),
		now:      time.Now,
	}
}

func (s *helpFeedService) ListNeedingHelp(ctx context.Context, viewer Viewer) (dto.HelpFeedResponse, error) {
	filter := repository.HelpRecordFilter{}
	if viewer.Role == RoleTeacher {
		teacherID := viewer.TeacherID
		filter.TeacherID = &teacherID
	}

	// Only the admin-wide listing is cached; the teacher-scoped query is
	// narrow and its cardinality makes per-teacher entries not worth it.
	cacheable := filter.TeacherID == nil

	if cacheable && s.cache != nil {
		if cached, err := s.cache.Get(ctx, HelpFeedCacheKey).Result(); err == nil {
			var response dto.HelpFeedResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read help feed cache")
		}
	}

	records, err := s.records.ListUnresolved(ctx, filter)
	if err != nil {
		return dto.HelpFeedResponse{}, err
	}

	response := dto.HelpFeedResponse{
		Items:       make([]dto.HelpRecordResponse, 0, len(records)),
		GeneratedAt: s.now(),
	}
	for _, record := range records {
		response.Items = append(response.Items, newHelpRecordResponse(record))
	}

	if cacheable && s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, HelpFeedCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store help feed cache")
			}
		}
	}

	return response, nil
}

func newHelpRecordResponse(record models.StudentHelpRecord) dto.HelpRecordResponse {
	classes := make([]dto.HelpClassInfo, 0, len(record.Classes))
	for _, link := range record.Classes {
		classes = append(classes, dto.HelpClassInfo{
			ClassID:   link.ClassID,
			Name:      link.Class.Name,
			TeacherID: link.Class.TeacherID,
		})
	}

	teachers := make([]dto.HelpTeacherInfo, 0, len(record.Teachers))
	for _, link := range record.Teachers {
		teachers = append(teachers, dto.HelpTeacherInfo{
			TeacherID: link.TeacherID,
			Name:      link.Teacher.Name,
		})
	}

	return dto.HelpRecordResponse{
		ID:                 record.ID,
		StudentID:          record.StudentID,
		StudentName:        record.Student.Name,
		Reasons:            record.Reasons,
		NeedsHelpSince:     record.NeedsHelpSince,
		DaysNeedingHelp:    record.DaysNeedingHelp,
		OverdueAssignments: record.OverdueAssignments,
		AverageScore:       record.AverageScore,
		CompletionRate:     record.CompletionRate,
		Severity:           record.Severity,
		Classes:            classes,
		Teachers:           teachers,
	}
}
