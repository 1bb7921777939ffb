package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/logger"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes.
const (
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeUnsupportedFormat = "unsupported_format"
	CodeTooLarge          = "too_large"
	CodeDimensionMismatch = "dimension_mismatch"
	CodeTimeout           = "timeout"
	CodeProviderError     = "provider_error"
	CodeInternal          = "internal"
)

// errorStatus maps domain errors to a status and code, most specific first.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
	{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat},
	{domain.ErrDimensionMismatch, http.StatusConflict, CodeDimensionMismatch},
	{domain.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout},
	{domain.ErrProviderError, http.StatusBadGateway, CodeProviderError},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeProviderError},
	{domain.ErrGenerationUnavailable, http.StatusServiceUnavailable, CodeProviderError},
}

// RespondError writes err with the status matching its domain error.
// Unclassified errors are logged and reported as 500.
func RespondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respond(c, e.status, e.code, err)
			return
		}
	}
	logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	respond(c, http.StatusInternalServerError, CodeInternal, err)
}

func respond(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: msg, Code: CodeInvalidInput}})
}
