package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
)

// Response is the error envelope. Successful calls return their payload as-is.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Success sends a 200 with data as the body
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 with data as the body
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response. err is logged; its text is only returned to
// the caller for 4xx codes.
func Error(c *gin.Context, code int, message string, err error) {
	resp := Response{Code: code, Message: message}

	if err != nil {
		_ = c.Error(err)
		logger := logging.FromContext(c.Request.Context(), nil)
		if code >= http.StatusInternalServerError {
			logger.Error(message, "status", code, "error", err)
		} else {
			resp.Detail = err.Error()
			logger.Warn(message, "status", code, "error", err)
		}
	}

	c.AbortWithStatusJSON(code, resp)
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string, err error) {
	Error(c, http.StatusInternalServerError, message, err)
}
