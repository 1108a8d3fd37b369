package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/pkg/logger"
)

// Sentinel kinds for request decoding errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadParam   = errors.New("bad parameter")
)

// HTTP status code constants.
const (
	statusBadRequest     = http.StatusBadRequest
	statusUnauthorized   = http.StatusUnauthorized
	statusForbidden      = http.StatusForbidden
	statusNotFound       = http.StatusNotFound
	statusConflict       = http.StatusConflict
	statusInternalError  = http.StatusInternalServerError
	statusGatewayTimeout = http.StatusGatewayTimeout
)

// envelope wraps every response body.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// statusOf maps an error kind to its HTTP status and code.
func statusOf(err error) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return statusBadRequest, "VALIDATION_ERROR"
	case apperr.ErrUnauthorized:
		return statusUnauthorized, "UNAUTHORIZED"
	case apperr.ErrForbidden:
		return statusForbidden, "FORBIDDEN"
	case apperr.ErrNotFound:
		return statusNotFound, "NOT_FOUND"
	case apperr.ErrConflict:
		return statusConflict, "CONFLICT"
	case apperr.ErrTimeout:
		return statusGatewayTimeout, "TIMEOUT"
	default:
		return statusInternalError, "INTERNAL_ERROR"
	}
}

// fail writes err as an error envelope. Internal failures are logged here
// and reach the client only as a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusOf(err)
	if status == statusInternalError {
		s.log.Error(c.Request.Context(), "request failed",
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
	}
	c.JSON(status, envelope{Error: &errorInfo{
		Code:    code,
		Message: apperr.Public(err),
		Fields:  apperr.FieldsOf(err),
	}})
}

// badRequest reports a malformed body or parameter as a validation failure.
func badRequest(op, field string, err error) error {
	return apperr.Validation(op, map[string]string{field: err.Error()})
}
