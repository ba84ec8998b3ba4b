package handler

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"docvault/internal/http/middleware"
)

// Machine-readable error codes.
const (
	codeBadRequest         = "BAD_REQUEST"
	codeMissingFile        = "MISSING_FILE"
	codeUnexpectedFile     = "UNEXPECTED_FILE"
	codeInvalidType        = "INVALID_TYPE"
	codeSizeExceeded       = "SIZE_EXCEEDED"
	codeNotFound           = "NOT_FOUND"
	codeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeInternal           = "INTERNAL_ERROR"
)

const (
	msgMissingFile    = "No file was uploaded."
	msgUnexpectedFile = "Unexpected field"
	msgInvalidType    = "Invalid file type. Only PDF, JPEG, PNG, and Word documents are allowed."
	msgFileNotFound   = "File not found"
	msgInternal       = "internal server error"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_TYPE", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Error:     message,
		Code:      code,
		RequestID: middleware.RequestIDFromCtx(c),
	})
}

// writeInternal logs err against the request and answers with a generic 500.
func writeInternal(c *fiber.Ctx, log zerolog.Logger, err error, msg string) error {
	log.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromCtx(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg(msg)
	return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
}

func sizeExceededMessage(limit int64) string {
	return fmt.Sprintf("File size too large. Maximum size is %s.", humanize.IBytes(uint64(limit)))
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// It covers unmatched routes, body-limit overruns, recovered panics and any
// error a handler returns instead of writing a response itself.
func ErrorHandler(log zerolog.Logger, maxUpload int64) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeInternal(c, log, err, "unhandled_error")
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, codeBadRequest, "bad request")
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, codeNotFound, "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, codeMethodNotAllowed, "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			// Bodies past the transport limit are reported like any other oversize upload.
			return writeError(c, fiber.StatusBadRequest, codeSizeExceeded, sizeExceededMessage(maxUpload))
		default:
			if fe.Code >= fiber.StatusInternalServerError {
				return writeInternal(c, log, err, "unhandled_error")
			}
			return writeError(c, fe.Code, codeBadRequest, fe.Message)
		}
	}
}
