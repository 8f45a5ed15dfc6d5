package shared

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the wire shape of an accepted submission.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the wire shape of every non-2xx answer. RetryAfter is
// only present on 429 and carries the end of the block as ISO-8601.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter string `json:"retryAfter,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

var internalErrorBody = mustMarshal(ErrorResponse{Error: MsgInternalError})

func mustMarshal(v interface{}) []byte {
	b, _ := jsonAPI.Marshal(v)
	return b
}

func writeJSON(c *fiber.Ctx, httpCode int, v interface{}) error {
	body, err := jsonAPI.Marshal(v)
	if err != nil {
		httpCode = fiber.StatusInternalServerError
		body = internalErrorBody
	}
	c.Set(fiber.HeaderContentType, "application/json; charset=utf-8")
	return c.Status(httpCode).Send(body)
}

func ResponseSuccess(c *fiber.Ctx, message string) error {
	return writeJSON(c, fiber.StatusOK, SuccessResponse{Success: true, Message: message})
}

func ResponseError(c *fiber.Ctx, httpCode int, message string) error {
	return writeJSON(c, httpCode, ErrorResponse{Error: message})
}

func ResponseRateLimited(c *fiber.Ctx, message string, retryAfter time.Time) error {
	return writeJSON(c, fiber.StatusTooManyRequests, ErrorResponse{
		Error:      message,
		RetryAfter: retryAfter.UTC().Format(time.RFC3339),
	})
}
