package serverutils

import "github.com/gofiber/fiber/v2"

// BaseResponse is the JSON envelope for every non-streaming endpoint. Error
// responses also fill Error so API clients can read a single field.
type BaseResponse[T any] struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    T                 `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
		Error:   message,
	}
}

// CodedErrorResponse carries a machine-readable error code (e.g.
// API_KEY_REQUIRED) in Error and a human message in Message.
func CodedErrorResponse(code int, errorCode, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
		Error:   errorCode,
	}
}
