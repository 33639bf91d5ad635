// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	businessflow "github.com/ebfarnell/podcastflow-pro-sub003/business_flow"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ScheduleHandlerInterface defines the contract for schedule handlers
type ScheduleHandlerInterface interface {
	BindSchedule(c fiber.Ctx) error
}

// ScheduleHandler handles schedule binding HTTP requests
type ScheduleHandler struct {
	scheduleFlow businessflow.ScheduleFlow
	validator    *validator.Validate
}

func (h *ScheduleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ScheduleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleFlow businessflow.ScheduleFlow) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleFlow: scheduleFlow,
		validator:    validator.New(),
	}
}

// BindSchedule handles reserving inventory for a whole schedule. The response
// is 200 even when some items fail; callers inspect the errors list.
func (h *ScheduleHandler) BindSchedule(c fiber.Ctx) error {
	var req dto.BindScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	metadata, ok := extractActorMetadata(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Actor not found in context", "MISSING_ACTOR", nil)
	}

	result, err := h.scheduleFlow.BindSchedule(h.createRequestContext(c, "/api/v1/schedules/bind"), &req, metadata)
	if err != nil {
		if businessErr, ok := err.(*businessflow.BusinessError); ok && businessErr.Code == "SCHEDULE_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule validation failed", businessErr.Code, businessErr.Error())
		}

		log.Println("Schedule binding failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Schedule binding failed", "SCHEDULE_BINDING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *ScheduleHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
