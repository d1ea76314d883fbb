package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"repairdesk-backend/internal/store"
)

// Stable machine-readable error codes returned alongside the human message.
const (
	codeInvalidArgument  = "INVALID_ARGUMENT"
	codeNotFound         = "NOT_FOUND"
	codeCapacityExceeded = "CAPACITY_EXCEEDED"
	codeConflict         = "CONFLICT"
	codeForbidden        = "FORBIDDEN"
	codeUnavailable      = "UNAVAILABLE"
)

// abortWithError maps a store error to an HTTP status and stable code.
// Unavailable errors are logged server-side; their detail never reaches
// the client.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeInvalidArgument, "error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeNotFound, "error": "resource not found"})
	case errors.Is(err, store.ErrCapacityExceeded):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"code": codeCapacityExceeded, "error": "technician has no free appointment slots on that day"})
	case errors.Is(err, store.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"code": codeConflict, "error": "operation conflicts with the current state"})
	default:
		log.Printf("store error: %v", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"code": codeUnavailable, "error": "temporary storage failure, please retry"})
	}
}

// abortBadRequest reports a malformed request body or query parameter.
func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeInvalidArgument, "error": msg})
}
