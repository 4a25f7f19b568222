package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yizhiakuya/MemeStore/internal/domain"
)

// statusFor maps an error kind to its HTTP status. Storage and transcode
// failures surface as bad gateway: the upstream dependency, not the client,
// is at fault.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindStorage, domain.KindTranscode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a stable error envelope for a pipeline failure.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)

	message := "internal server error"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	body := gin.H{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	c.JSON(statusFor(kind), body)
}
