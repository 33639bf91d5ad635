// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/app/middleware"
	businessflow "github.com/ebfarnell/podcastflow-pro-sub003/business_flow"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ReservationHandlerInterface defines the contract for reservation handlers
type ReservationHandlerInterface interface {
	CreateHold(c fiber.Ctx) error
	ApproveHold(c fiber.Ctx) error
	RejectHold(c fiber.Ctx) error
	ListHolds(c fiber.Ctx) error
	GetLedger(c fiber.Ctx) error
}

// ReservationHandler handles reservation-related HTTP requests
type ReservationHandler struct {
	reservationFlow businessflow.ReservationFlow
	validator       *validator.Validate
}

func (h *ReservationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ReservationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationFlow businessflow.ReservationFlow) *ReservationHandler {
	return &ReservationHandler{
		reservationFlow: reservationFlow,
		validator:       validator.New(),
	}
}

// CreateHold handles placing a hold on episode inventory
func (h *ReservationHandler) CreateHold(c fiber.Ctx) error {
	var req dto.CreateHoldRequest
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

	result, err := h.reservationFlow.CreateHold(h.createRequestContext(c, "/api/v1/reservations"), &req, metadata)
	if err != nil {
		if businessflow.IsEpisodeNotFound(err) || businessflow.IsShowNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Episode not found", "EPISODE_NOT_FOUND", nil)
		}
		if businessflow.IsInsufficientCapacity(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Insufficient slot capacity", "INSUFFICIENT_CAPACITY", nil)
		}
		if businessflow.IsExclusivityConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Category exclusivity conflict", "EXCLUSIVITY_CONFLICT", nil)
		}
		if businessErr, ok := err.(*businessflow.BusinessError); ok && businessErr.Code == "HOLD_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Hold validation failed", businessErr.Code, businessErr.Error())
		}

		log.Println("Hold creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Hold creation failed", "HOLD_CREATION_FAILED", nil)
	}

	middleware.HoldsCreatedTotal.WithLabelValues(req.PlacementType).Inc()

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ApproveHold handles approving a pending hold
func (h *ReservationHandler) ApproveHold(c fiber.Ctx) error {
	var req dto.ApproveHoldRequest
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

	result, err := h.reservationFlow.ApproveHold(h.createRequestContext(c, "/api/v1/reservations/approve"), &req, metadata)
	if err != nil {
		if businessflow.IsReservationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Reservation not found", "RESERVATION_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Reservation cannot be approved", "INVALID_TRANSITION", nil)
		}

		log.Println("Hold approval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Hold approval failed", "HOLD_APPROVAL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// RejectHold handles rejecting a pending hold
func (h *ReservationHandler) RejectHold(c fiber.Ctx) error {
	var req dto.RejectHoldRequest
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

	result, err := h.reservationFlow.RejectHold(h.createRequestContext(c, "/api/v1/reservations/reject"), &req, metadata)
	if err != nil {
		if businessflow.IsReservationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Reservation not found", "RESERVATION_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Reservation cannot be rejected", "INVALID_TRANSITION", nil)
		}

		log.Println("Hold rejection failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Hold rejection failed", "HOLD_REJECTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ListHolds handles listing reservations with filters
func (h *ReservationHandler) ListHolds(c fiber.Ctx) error {
	var req dto.ListHoldsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.reservationFlow.ListHolds(h.createRequestContext(c, "/api/v1/reservations"), &req)
	if err != nil {
		if businessflow.IsEpisodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Episode not found", "EPISODE_NOT_FOUND", nil)
		}

		log.Println("Hold listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list reservations", "HOLD_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetLedger handles reading an episode's slot counters
func (h *ReservationHandler) GetLedger(c fiber.Ctx) error {
	episodeUUID := c.Params("uuid")
	if episodeUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Episode UUID is required", "MISSING_EPISODE_UUID", nil)
	}

	req := dto.GetLedgerRequest{EpisodeUUID: episodeUUID}

	result, err := h.reservationFlow.GetLedger(h.createRequestContext(c, "/api/v1/episodes/"+episodeUUID+"/ledger"), &req)
	if err != nil {
		if businessflow.IsEpisodeNotFound(err) || businessflow.IsShowNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Episode not found", "EPISODE_NOT_FOUND", nil)
		}

		log.Println("Ledger read failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read ledger", "LEDGER_READ_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *ReservationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
