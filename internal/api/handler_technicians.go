package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTechnicians handles GET /repair/technicians: the customer-facing list
// of staff currently taking repair appointments.
func (h *Handler) GetTechnicians(c *gin.Context) {
	techs, err := h.store.ActiveTechnicians(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, techs)
}
