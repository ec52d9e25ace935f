package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	"github.com/oksasatya/go-library-management/pkg/response"
	"github.com/oksasatya/go-library-management/pkg/validation"
)

func principalFrom(c *gin.Context) entity.Principal { return middleware.PrincipalFrom(c) }

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation, errs.KindConflict:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the envelope. Internal errors are
// logged with their cause and answered with an opaque message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	writeErrorStatus(c, logger, err, statusFor(errs.KindOf(err)))
}

func writeErrorStatus(c *gin.Context, logger *logrus.Logger, err error, status int) {
	if errs.KindOf(err) == errs.KindInternal {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(response.RequestIDKey),
		})
	}
	var details any
	if fields := errs.FieldsOf(err); len(fields) > 0 {
		details = fields
	}
	response.Error[any](c, status, errs.MessageOf(err), details)
}

func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// pathID parses a positive integer path parameter. On failure it writes a
// 400 and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid path parameter", map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
