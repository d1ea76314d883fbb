package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAvailability handles GET /repair/availability?technicianId&appointmentDate.
// The appointmentDate query accepts a plain date or an RFC3339 timestamp;
// its time-of-day is ignored for the window computation.
func (h *Handler) GetAvailability(c *gin.Context) {
	technicianID, err := strconv.ParseInt(c.Query("technicianId"), 10, 64)
	if err != nil {
		abortBadRequest(c, "technicianId must be an integer")
		return
	}

	date, err := parseDateParam(c.Query("appointmentDate"), h.loc)
	if err != nil {
		abortBadRequest(c, "appointmentDate must be YYYY-MM-DD or RFC3339")
		return
	}

	availability, err := h.store.CheckAvailability(c.Request.Context(), technicianID, date)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// parseDateParam interprets plain dates in the business timezone so the
// window lands on the intended calendar day; RFC3339 carries its own offset.
func parseDateParam(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
