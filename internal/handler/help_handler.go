package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kelas-go-api/internal/service"
	"github.com/noah-isme/kelas-go-api/internal/utils"
)

// HelpHandler exposes the needing-help feed and the manual scan trigger.
type HelpHandler struct {
	reconciler service.HelpReconciler
	feed       service.HelpFeedService
	logger     zerolog.Logger
}

// NewHelpHandler creates a new handler instance.
func NewHelpHandler(reconciler service.HelpReconciler, feed service.HelpFeedService, logger zerolog.Logger) *HelpHandler {
	return &HelpHandler{
		reconciler: reconciler,
		feed:       feed,
		logger:     logger.With().Str("component", "help_handler").Logger(),
	}
}

// Register attaches the help endpoints.
func (h *HelpHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/needing-help", h.listNeedingHelp)
	router.Post("/scan", adminOnly, h.triggerScan)
}

func (h *HelpHandler) listNeedingHelp(c *fiber.Ctx) error {
	viewer := service.Viewer{Role: userRoleFromContext(c)}
	if viewer.Role == service.RoleTeacher {
		viewer.TeacherID = userIDFromContext(c)
		if viewer.TeacherID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
		}
	}

	feed, err := h.feed.ListNeedingHelp(c.Context(), viewer)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load needing-help feed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load needing-help feed")
	}

	return utils.SendSuccess(c, "needing-help feed retrieved", feed)
}

func (h *HelpHandler) triggerScan(c *fiber.Ctx) error {
	summary, err := h.reconciler.RunBatch(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrScanInProgress) {
			return utils.SendError(c, fiber.StatusConflict, "scan already in progress")
		}
		h.logger.Error().Err(err).Msg("help scan failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "help scan failed")
	}

	return utils.SendSuccess(c, "help scan completed", summary)
}
