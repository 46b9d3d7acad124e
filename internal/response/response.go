// Package response writes the JSON envelope shared by every endpoint and maps
// service errors to HTTP status codes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/apperrors"
)

const msgInternal = "An unexpected error occurred. Please try again later"

// Envelope wraps every payload
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  []string    `json:"errors"`
}

// OK writes a 200 envelope
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Errors: []string{}})
}

// Created writes a 201 envelope
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data, Errors: []string{}})
}

// Fail aborts the request with a failed envelope
func Fail(c *gin.Context, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Errors: errs})
}

// StatusOf maps an error kind to its HTTP status
func StatusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err. Unexpected errors are logged in full and answered generically.
func Error(c *gin.Context, logger logrus.FieldLogger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindInternal {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		Fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	errs := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		errs = append(errs, f.String())
	}
	if len(errs) == 0 {
		errs = append(errs, appErr.Message)
	}
	Fail(c, StatusOf(appErr.Kind), appErr.Message, errs...)
}
