package status

import (
	"context"
	"fmt"

	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Engine is the part of the sync engine the handler reads and triggers.
type Engine interface {
	State() syncer.State
	Trigger() bool
}

type History interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
}

type Handler struct {
	engine  Engine
	history History

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(engine Engine, history History, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		engine:  engine,
		history: history,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/status", h.status)
	r.Get("/history", h.list)
	r.Post("/sync", h.trigger)
}

func (h *Handler) status(c *fiber.Ctx) error {
	return c.JSON(newStatusResponse(h.engine.State()))
}

func (h *Handler) list(c *fiber.Ctx) error {
	query := ListQuery{}
	if err := c.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.validator.Struct(query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	records, err := h.history.List(c.Context(), query.Limit)
	if err != nil {
		return fmt.Errorf("failed to list sync history: %w", err)
	}

	return c.JSON(lo.Map(records, func(record history.Record, _ int) RecordResponse {
		return newRecordResponse(record)
	}))
}

func (h *Handler) trigger(c *fiber.Ctx) error {
	accepted := h.engine.Trigger()

	h.logger.Info("sync requested over http", zap.Bool("accepted", accepted))

	return c.Status(fiber.StatusAccepted).JSON(TriggerResponse{Accepted: accepted})
}
