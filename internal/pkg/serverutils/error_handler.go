package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// HTTPError is implemented by domain errors that know their HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

// CodedError additionally exposes a machine-readable code for clients.
type CodedError interface {
	ErrorCode() string
}

// ErrorHandlerMiddleware converts errors returned by downstream handlers into
// the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp := ErrorResponse(fiber.StatusBadRequest, verr.Error())
		resp.Fields = verr.Fields
		return ctx.Status(fiber.StatusBadRequest).JSON(resp)
	}

	var herr HTTPError
	if errors.As(err, &herr) {
		status := herr.StatusCode()
		var coded CodedError
		if errors.As(err, &coded) {
			return ctx.Status(status).JSON(CodedErrorResponse(status, coded.ErrorCode(), herr.Error()))
		}
		return ctx.Status(status).JSON(ErrorResponse(status, herr.Error()))
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
}
