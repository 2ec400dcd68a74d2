package middleware

import (
	"errors"
	"net/http"

	"captionSelector/domain"
	"captionSelector/internal/rest"
	"captionSelector/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler maps engine errors to status codes. Conflicts carry the
// conflicting caption ids so the caller can retry with them excluded.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status = http.StatusInternalServerError
		body   any
	)

	var httpErr *echo.HTTPError
	var conflict *domain.AssignmentConflictError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body = rest.ResponseError{Message: http.StatusText(status)}
		if msg, ok := httpErr.Message.(string); ok {
			body = rest.ResponseError{Message: msg}
		}
	case errors.As(err, &conflict):
		status = http.StatusConflict
		body = ConflictResponse{Message: err.Error(), CaptionIDs: conflict.CaptionIDs()}
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		body = rest.ResponseError{Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		body = rest.ResponseError{Message: err.Error()}
	case errors.Is(err, domain.ErrUpstreamData):
		status = http.StatusBadGateway
		body = rest.ResponseError{Message: err.Error()}
	default:
		logger.Error("Unhandled request error", "path", c.Path(), "error", err)
		body = rest.ResponseError{Message: http.StatusText(status)}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Error("Failed to write error response", "error", err)
	}
}

type ConflictResponse struct {
	Message    string   `json:"message"`
	CaptionIDs []string `json:"conflicting_caption_ids"`
}
