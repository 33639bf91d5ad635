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

// ExclusivityHandlerInterface defines the contract for exclusivity rule handlers
type ExclusivityHandlerInterface interface {
	CreateRule(c fiber.Ctx) error
	ListRules(c fiber.Ctx) error
	DeactivateRule(c fiber.Ctx) error
}

// ExclusivityHandler handles exclusivity rule HTTP requests
type ExclusivityHandler struct {
	exclusivityFlow businessflow.ExclusivityFlow
	validator       *validator.Validate
}

func (h *ExclusivityHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ExclusivityHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewExclusivityHandler creates a new exclusivity handler
func NewExclusivityHandler(exclusivityFlow businessflow.ExclusivityFlow) *ExclusivityHandler {
	return &ExclusivityHandler{
		exclusivityFlow: exclusivityFlow,
		validator:       validator.New(),
	}
}

// CreateRule handles creating a category exclusivity rule
func (h *ExclusivityHandler) CreateRule(c fiber.Ctx) error {
	var req dto.CreateExclusivityRuleRequest
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

	result, err := h.exclusivityFlow.CreateRule(h.createRequestContext(c, "/api/v1/exclusivity-rules"), &req, metadata)
	if err != nil {
		if businessflow.IsShowNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Show not found", "SHOW_NOT_FOUND", nil)
		}
		if businessflow.IsExclusivityConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Rule overlaps an existing rule", "EXCLUSIVITY_CONFLICT", err.Error())
		}
		if businessErr, ok := err.(*businessflow.BusinessError); ok && businessErr.Code == "RULE_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rule validation failed", businessErr.Code, businessErr.Error())
		}

		log.Println("Rule creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rule creation failed", "RULE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// ListRules handles listing exclusivity rules with filters
func (h *ExclusivityHandler) ListRules(c fiber.Ctx) error {
	var req dto.ListExclusivityRulesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.exclusivityFlow.ListRules(h.createRequestContext(c, "/api/v1/exclusivity-rules"), &req)
	if err != nil {
		if businessflow.IsShowNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Show not found", "SHOW_NOT_FOUND", nil)
		}

		log.Println("Rule listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list rules", "RULE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DeactivateRule handles turning off an exclusivity rule
func (h *ExclusivityHandler) DeactivateRule(c fiber.Ctx) error {
	ruleUUID := c.Params("uuid")
	if ruleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Rule UUID is required", "MISSING_RULE_UUID", nil)
	}

	metadata, ok := extractActorMetadata(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Actor not found in context", "MISSING_ACTOR", nil)
	}

	req := dto.DeactivateExclusivityRuleRequest{RuleUUID: ruleUUID}

	result, err := h.exclusivityFlow.DeactivateRule(h.createRequestContext(c, "/api/v1/exclusivity-rules/"+ruleUUID), &req, metadata)
	if err != nil {
		if businessflow.IsExclusivityRuleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Rule not found", "RULE_NOT_FOUND", nil)
		}

		log.Println("Rule deactivation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rule deactivation failed", "RULE_DEACTIVATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *ExclusivityHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
