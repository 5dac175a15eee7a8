package api

import (
	"context"
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/connectivity"
	"github.com/bobby-s-dev/weather-history/internal/models"
	"github.com/bobby-s-dev/weather-history/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

type TemperatureService interface {
	Query(ctx context.Context, dateString string, today time.Time) (models.TemperatureResult, error)
	GetStats() services.QueryStats
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ConnectivityScheduler is the background refresher of the connectivity
// probe. It is only present when connectivity is probed.
type ConnectivityScheduler interface {
	GetStatus() map[string]interface{}
	ForceRun()
}

type HandlerOptions struct {
	Location    Location
	StoreDriver string
	// Connectivity is nil unless the probe scheduler runs.
	Connectivity ConnectivityScheduler
	// Now defaults to time.Now.
	Now func() time.Time
}

type Handler struct {
	service     TemperatureService
	checker     connectivity.Checker
	location    Location
	storeDriver string
	scheduler   ConnectivityScheduler
	now         func() time.Time
	startTime   time.Time
	logger      *zap.Logger
}

func NewHandler(service TemperatureService, checker connectivity.Checker, opts HandlerOptions, logger *zap.Logger) *Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		service:     service,
		checker:     checker,
		location:    opts.Location,
		storeDriver: opts.StoreDriver,
		scheduler:   opts.Connectivity,
		now:         now,
		startTime:   now(),
		logger:      logger,
	}
}

type temperatureQuery struct {
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

// GetTemperature handles GET /api/v1/temperature
func (h *Handler) GetTemperature(c *fiber.Ctx) error {
	var req temperatureQuery
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date parameter is required in YYYY-MM-DD format",
		})
	}

	result, err := h.service.Query(c.UserContext(), req.Date, h.now())
	if err != nil {
		if errors.Is(err, models.ErrInvalidDateFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return err
	}

	if !result.Found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"date":  result.Date,
			"found": false,
		})
	}

	return c.JSON(result)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	now := h.now()

	health := fiber.Map{
		"status":    "healthy",
		"timestamp": now,
		"uptime":    now.Sub(h.startTime).String(),
		"online":    h.checker.IsOnline(c.UserContext()),
		"store":     h.storeDriver,
		"stats":     h.service.GetStats(),
	}
	if h.scheduler != nil {
		health["connectivity"] = h.scheduler.GetStatus()
	}

	return c.JSON(health)
}

// RefreshConnectivity handles POST /api/v1/connectivity/refresh
func (h *Handler) RefreshConnectivity(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "connectivity is not probed in this mode",
		})
	}

	h.scheduler.ForceRun()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "refresh scheduled",
	})
}

// GetLocation handles GET /api/v1/location
func (h *Handler) GetLocation(c *fiber.Ctx) error {
	return c.JSON(h.location)
}
