package shared

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrDuplicateSubmission is returned by the store when a submission carries a
// requestId that was already persisted. The earlier submission won; callers
// report the original success instead of failing the retry.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// AppError carries an HTTP status alongside the caller-facing message. The
// wrapped error keeps the infrastructure detail for server-side logs only.
type AppError struct {
	StatusCode int
	Message    string
	RetryAfter *time.Time
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

// NewSpamRejectionError deliberately carries a generic message: the matched
// heuristic is logged server-side and never surfaced.
func NewSpamRejectionError(err error) *AppError {
	return NewAppError(http.StatusBadRequest, err, MsgSpamRejected)
}

func NewRateLimitError(retryAfter time.Time) *AppError {
	return &AppError{
		StatusCode: http.StatusTooManyRequests,
		Message:    MsgRateLimited,
		RetryAfter: &retryAfter,
	}
}

func NewInternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, err, MsgInternalError)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorHandler is the fiber error handler for every API surface. Caller
// mistakes and policy decisions keep their precise message; anything else is
// reported generically and logged in detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := GetAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.WithError(appErr.Err).WithFields(log.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Error("Request failed")
			return ResponseError(c, appErr.StatusCode, appErr.Message)
		}

		if appErr.RetryAfter != nil {
			return ResponseRateLimited(c, appErr.Message, *appErr.RetryAfter)
		}
		return ResponseError(c, appErr.StatusCode, appErr.Message)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ResponseError(c, fiberErr.Code, fiberErr.Message)
	}

	log.WithError(err).WithFields(log.Fields{
		"path":   c.Path(),
		"method": c.Method(),
	}).Error("Unhandled error")
	return ResponseError(c, http.StatusInternalServerError, MsgInternalError)
}
