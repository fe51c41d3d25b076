package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kelas-go-api/internal/dto"
	"github.com/noah-isme/kelas-go-api/internal/service"
	"github.com/noah-isme/kelas-go-api/internal/utils"
)

// GradingHandler exposes the question grading endpoint.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler creates a new handler instance.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the grading endpoint.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/", h.grade)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var req dto.GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	progress, err := h.service.GradeQuestion(c.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "question not found")
		}
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Uint("question_id", req.QuestionID).Msg("failed to grade question")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade question")
	}

	return utils.SendSuccess(c, "question graded", progress)
}
