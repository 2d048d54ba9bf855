package handler

import (
	"errors"
	"net/http"
	"strconv"

	"taskman/internal/domain"

	"github.com/gin-gonic/gin"
)

// writeError maps the domain error taxonomy to HTTP statuses. Anything
// outside the taxonomy is a 500.
func writeError(c *gin.Context, err error) {
	var (
		notFound     *domain.NotFoundError
		validation   *domain.ValidationError
		precondition *domain.PreconditionError
		crossProcess *domain.CrossProcessError
		dependency   *domain.DependencyError
		state        *domain.StatePreventsDeletionError
		transition   *domain.InvalidTransitionError
		graph        *domain.GraphInvalidError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validation), errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &precondition), errors.As(err, &crossProcess),
		errors.As(err, &dependency), errors.As(err, &state):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &graph):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "problems": graph.Problems})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
