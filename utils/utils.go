package utils

import (
	"errors"
	"strings"
	"time"

	"storefront/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type clientError struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Details   []string `json:"details,omitempty"`
}

type errorResponse struct {
	Message string      `json:"message"`
	Error   clientError `json:"error"`
}

// RespondJSON writes body with status.
func RespondJSON(c *gin.Context, statusCode int, body interface{}) {
	c.JSON(statusCode, body)
}

// RespondError writes err using its kind for the status code. fallback is
// used as the message when err carries none.
func RespondError(c *gin.Context, err error, fallback string) {
	kind := model.KindOf(err)
	message := fallback
	var details []string
	var typed *model.Error
	if errors.As(err, &typed) {
		if typed.Message != "" {
			message = typed.Message
		}
		details = typed.Details
	}
	if kind == model.KindInternal {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("%s err = %v", message, err)
		if cause := errors.Unwrap(err); cause != nil {
			details = append(details, cause.Error())
		} else if typed == nil && err != nil {
			details = append(details, err.Error())
		}
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), errorResponse{
		Message: message,
		Error: clientError{
			Message:   message,
			ErrorCode: kind.Code(),
			Details:   details,
		},
	})
}

// ParseBody binds the JSON body into out, reporting malformed input as a validation error.
func ParseBody(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return model.Validation("Failed to parse request body", err.Error())
	}
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps or plain dates. An empty value yields nil.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, model.Validation("Invalid date format", value)
}

func RespondMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, model.MessageResponse{Message: message})
}
