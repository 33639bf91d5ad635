// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	businessflow "github.com/ebfarnell/podcastflow-pro-sub003/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "datetime":
		return err.Field() + " must be a date in format " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func validationErrorMessages(err error) []string {
	var messages []string
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			messages = append(messages, getValidationErrorMessage(fieldErr))
		}
	} else {
		messages = append(messages, err.Error())
	}
	return messages
}

// extractActorMetadata builds actor metadata from the authenticated request.
// The auth middleware stores actor and organization identifiers in Locals.
func extractActorMetadata(c fiber.Ctx) (*businessflow.ActorMetadata, bool) {
	actorID, ok := c.Locals("actor_id").(string)
	if !ok || actorID == "" {
		return nil, false
	}

	metadata := businessflow.NewActorMetadata(actorID, c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	if orgID, ok := c.Locals("organization_id").(string); ok {
		metadata.SetOrganizationID(orgID)
	}

	return metadata, true
}
