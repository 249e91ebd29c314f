package resputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/tracker/pkg/apperrors"
	"github.com/raids-lab/tracker/pkg/logutils"
)

// Response is the uniform envelope; the generic parameter only exists for
// swagger annotations.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func wrapResponse(c *gin.Context, httpCode int, msg string, data any, code ErrorCode) {
	c.JSON(httpCode, gin.H{
		"code": code,
		"data": data,
		"msg":  msg,
	})
}

func Success(c *gin.Context, data any) {
	wrapResponse(c, http.StatusOK, "", data, OK)
}

func Created(c *gin.Context, data any) {
	wrapResponse(c, http.StatusCreated, "", data, OK)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func Error(c *gin.Context, msg string, errorCode ErrorCode) {
	wrapResponse(c, http.StatusInternalServerError, msg, nil, errorCode)
}

func HTTPError(c *gin.Context, httpCode int, msg string, errorCode ErrorCode) {
	wrapResponse(c, httpCode, msg, nil, errorCode)
}

func BadRequestError(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusBadRequest, msg, nil, InvalidRequest)
}

// WrapServiceError maps the apperrors taxonomy onto HTTP codes. Errors
// outside the taxonomy are logged with full context and surfaced as a
// generic 500.
func WrapServiceError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		wrapResponse(c, http.StatusNotFound, err.Error(), nil, EntityNotFound)
	case apperrors.KindBadRequest:
		wrapResponse(c, http.StatusBadRequest, err.Error(), nil, InvalidRequest)
	case apperrors.KindInvalidHierarchy:
		wrapResponse(c, http.StatusBadRequest, err.Error(), nil, InvalidHierarchy)
	case apperrors.KindCircularHierarchy:
		wrapResponse(c, http.StatusBadRequest, err.Error(), nil, CircularHierarchy)
	case apperrors.KindInvalidStatusTransition:
		wrapResponse(c, http.StatusBadRequest, err.Error(), nil, InvalidStatusTransition)
	case apperrors.KindDuplicateKey:
		wrapResponse(c, http.StatusBadRequest, err.Error(), nil, DuplicateKey)
	case apperrors.KindForbidden:
		wrapResponse(c, http.StatusForbidden, err.Error(), nil, UserNotAllowed)
	default:
		logutils.Log.WithField("path", c.FullPath()).Errorf("unexpected error: %v", err)
		wrapResponse(c, http.StatusInternalServerError, "internal error", nil, NotSpecified)
	}
}
