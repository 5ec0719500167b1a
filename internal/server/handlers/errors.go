package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/forms"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/service/weather"
	"github.com/mamadbah2/farmboard/internal/validation"
)

var errInvalidID = errors.New("id must be a positive integer")

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if vErr, ok := validation.AsError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": vErr.Fields})
		return
	}

	var partial *repository.PartialBatchFailure
	if errors.As(err, &partial) {
		status := http.StatusMultiStatus
		if len(partial.Succeeded) == 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": partial.Error(), "succeeded": partial.Succeeded, "failed": partial.Failed})
		return
	}

	var netErr *repository.NetworkError
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, forms.ErrUnknownForm),
		errors.Is(err, weather.ErrNoForecast):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &netErr):
		logger.Error("record api unavailable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "record service unavailable"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
