package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/observability"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// RegisterMiddlewares installs the request deadline, the JSON error envelope
// and request logging, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// requestTimeoutMiddleware bounds the context handed to case and catalog
// services, so store and holiday lookups give up when a request overruns.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware turns handler failures and panics into the JSON
// error envelope. A panic becomes INTERNAL_ERROR.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				writeCaseError(c, logger, metrics, err)
				err = nil
			}
		}()
		return c.Next()
	}
}

// writeCaseError renders {"error":{"code","message","details"}}. Router errors
// such as an unknown route or a bad method use the same codes as the services.
func writeCaseError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		err = apperrors.NewDomainError(fiberErrorCode(fe.Code), fe.Message, fe.Code, nil)
	}
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("case api request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(domainErr))
	}
	_ = c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

// fiberErrorCode picks the envelope code for a status raised by fiber itself.
func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusForbidden:
		return apperrors.CodeForbidden
	}
	if status >= 500 {
		return apperrors.CodeInternal
	}
	return apperrors.CodeValidation
}
