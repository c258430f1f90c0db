// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/procurement-backend/internal/domain/procurement"
	"github.com/your-org/procurement-backend/internal/interfaces/http/middleware"
	"github.com/your-org/procurement-backend/internal/pkg/apperror"
)

// respondError maps business error kinds to HTTP status codes. Storage
// failures log the cause and hide it from the caller.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		body := gin.H{"error": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case apperror.KindQuantityConstraint:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": appErr.Message,
		})
	case apperror.KindStateTransition:
		c.JSON(http.StatusConflict, gin.H{
			"error": appErr.Message,
		})
	case apperror.KindReferential:
		c.JSON(http.StatusNotFound, gin.H{
			"error": appErr.Message,
		})
	default:
		logrus.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// actorFromContext builds the acting user from the authenticated
// request context
func actorFromContext(c *gin.Context) (procurement.Actor, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return procurement.Actor{}, false
	}
	role, ok := middleware.GetRoleFromContext(c)
	if !ok {
		return procurement.Actor{}, false
	}
	return procurement.Actor{ID: userID, Role: role}, true
}
