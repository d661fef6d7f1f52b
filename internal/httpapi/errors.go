package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"classroll/internal/model"
)

// writeError maps service errors to a status and a client message.
// Anything unrecognized is logged and answered with serverMsg.
func (h *Handler) writeError(c *gin.Context, err error, serverMsg string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing or invalid fields.", "fields": verr.Fields})
	case errors.Is(err, model.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing or invalid fields."})
	case errors.Is(err, model.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized: Student does not belong to this teacher."})
	case errors.Is(err, model.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email already registered."})
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials."})
	case errors.Is(err, model.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Please verify your email before logging in."})
	case errors.Is(err, model.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired verification token."})
	default:
		h.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": serverMsg})
	}
}
