package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/velora/messaging-services/msggateway/internal/constants"
	"github.com/velora/messaging-services/msggateway/internal/service"
)

func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr)
		}

		var validationErr service.ValidationError
		if errors.As(err, &validationErr) {
			return handleValidationError(c, validationErr)
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    constants.ErrCodeInternalError,
			"message": constants.GetErrorMessage(constants.ErrCodeInternalError),
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error) error {
	errorCode := err.Code

	status := constants.GetHTTPStatus(errorCode)
	if status == 500 && err.Code != constants.ErrCodeInternalError {
		errorCode = constants.ErrCodeInternalError
	}

	return c.Status(status).JSON(fiber.Map{
		"code":    errorCode,
		"message": constants.GetErrorMessage(errorCode),
	})
}

func handleValidationError(c *fiber.Ctx, err service.ValidationError) error {
	issues := make([]fiber.Map, 0, len(err.Issues))
	for _, issue := range err.Issues {
		issues = append(issues, fiber.Map{
			"field":   issue.Field,
			"message": issue.Message,
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    constants.ErrCodeValidationFailed,
		"message": constants.GetErrorMessage(constants.ErrCodeValidationFailed),
		"issues":  issues,
	})
}
