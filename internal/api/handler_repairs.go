package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repairdesk-backend/internal/model"
	"repairdesk-backend/internal/notification"
	"repairdesk-backend/internal/store"
)

type acceptRequestBody struct {
	RequestID        int64   `json:"request_id" binding:"required"`
	Status           string  `json:"status" binding:"required"`
	TotalCost        float64 `json:"total_cost"`
	IdentifiedIssue  string  `json:"identified_issue" binding:"required"`
	IdentifiedDevice string  `json:"identified_device" binding:"required"`
}

// AcceptRequest handles POST /admin/accept-repairs: flips the request to
// accepted and creates its repair record in one transaction.
func (h *Handler) AcceptRequest(c *gin.Context) {
	var body acceptRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	repair, err := h.store.AcceptRequest(c.Request.Context(), store.Acceptance{
		RequestID:        body.RequestID,
		InitialStatus:    model.RepairStatus(body.Status),
		TotalCost:        body.TotalCost,
		IdentifiedIssue:  body.IdentifiedIssue,
		IdentifiedDevice: body.IdentifiedDevice,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.dispatch(notification.Event{RequestID: body.RequestID, Kind: notification.EventRequestAccepted})
	c.JSON(http.StatusCreated, repair)
}

// ListRepairs handles GET /admin/repairs with the same role scoping as the
// request listing.
func (h *Handler) ListRepairs(c *gin.Context) {
	filter, ok := requestScope(c)
	if !ok {
		return
	}

	repairs, err := h.store.ListRepairs(c.Request.Context(), store.RepairFilter{TechnicianID: filter.TechnicianID})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, repairs)
}

// GetRepair handles GET /admin/repairs/records/:id.
func (h *Handler) GetRepair(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid repair id")
		return
	}

	filter, ok := requestScope(c)
	if !ok {
		return
	}

	repair, err := h.store.GetRepair(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if filter.TechnicianID != 0 && repair.RepairRequest.TechnicianID != filter.TechnicianID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeNotFound, "error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, repair)
}

type updateRepairStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRepairStatus handles PUT /admin/repairs/records/:id/status.
func (h *Handler) UpdateRepairStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid repair id")
		return
	}

	var body updateRepairStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	status := model.RepairStatus(body.Status)
	repair, err := h.store.UpdateRepairStatus(c.Request.Context(), id, status)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if status == model.RepairCompleted {
		h.dispatch(notification.Event{RequestID: repair.RepairRequestID, Kind: notification.EventRepairCompleted})
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

type updateRepairDetailsBody struct {
	TotalCost        float64 `json:"total_cost"`
	IdentifiedIssue  string  `json:"identified_issue" binding:"required"`
	IdentifiedDevice string  `json:"identified_device" binding:"required"`
}

// UpdateRepairDetails handles PUT /admin/repairs/records/:id: a full
// replace of the cost and diagnosis fields.
func (h *Handler) UpdateRepairDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid repair id")
		return
	}

	var body updateRepairDetailsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	repair, err := h.store.UpdateRepairDetails(c.Request.Context(), id, store.RepairDetails{
		TotalCost:        body.TotalCost,
		IdentifiedIssue:  body.IdentifiedIssue,
		IdentifiedDevice: body.IdentifiedDevice,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, repair)
}
