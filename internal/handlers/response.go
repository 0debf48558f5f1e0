package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/logging"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": status < http.StatusBadRequest, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError translates a workflow failure into the response envelope. Internal
// failures are logged and answered with the per-operation fallback only.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := apperror.Status(err)
	message := apperror.UserMessage(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, append(logging.ErrorFields(err), zap.String("path", c.FullPath()))...)
		message = fallback
	}
	respond(c, status, message, nil)
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// respondBindError shapes request binding failures. Validation failures list the
// offending fields; anything else is a malformed body.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()})
		}
		respond(c, http.StatusBadRequest, "request validation failed", gin.H{"errors": fields})
		return
	}
	respond(c, http.StatusBadRequest, "malformed request body", nil)
}
