package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/models"
)

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *models.NotFoundError
		invalidArg   *models.InvalidArgumentError
		precondition *models.PreconditionError
		noExport     *models.NoContentExportedError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidArg):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &precondition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &noExport):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
