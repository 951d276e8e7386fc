package handlers

import (
	"errors"
	"net/http"
	"strings"

	"promptdir/internal/logger"
	"promptdir/internal/services"

	"github.com/gin-gonic/gin"
)

// RespondError writes the JSON error envelope for err. Service sentinels map to their
// status; anything else is logged and reported as a 500 without details.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	}

	message := msg(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": message, "code": code},
	})
}

// RespondBindError reports a request body or query that failed gin's binding.
func RespondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"message": msg(err), "code": "invalid_argument"},
	})
}

func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
