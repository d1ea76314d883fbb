package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"repairdesk-backend/internal/model"
	"repairdesk-backend/internal/notification"
	"repairdesk-backend/internal/store"
)

type createRequestBody struct {
	CustomerID       int64     `json:"customer_id" binding:"required"`
	TechnicianID     int64     `json:"technician_id" binding:"required"`
	IssueDescription string    `json:"issue_description" binding:"required"`
	DeviceInfo       string    `json:"device_info" binding:"required"`
	AppointmentDate  time.Time `json:"appointment_date" binding:"required"`
}

// CreateRequest handles POST /repair/requests: the customer intake action.
func (h *Handler) CreateRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	id, err := h.store.CreateRequest(c.Request.Context(), store.NewRequest{
		CustomerID:       body.CustomerID,
		TechnicianID:     body.TechnicianID,
		IssueDescription: body.IssueDescription,
		DeviceInfo:       body.DeviceInfo,
		AppointmentDate:  body.AppointmentDate,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListRequests handles GET /repairs. Technicians see only their own work;
// admins see everything. Role and identity arrive from the auth gateway as
// headers, which is the boundary of this subsystem.
func (h *Handler) ListRequests(c *gin.Context) {
	filter, ok := requestScope(c)
	if !ok {
		return
	}

	if raw := c.Query("status"); raw != "" {
		status := model.RequestStatus(raw)
		if !status.Valid() {
			abortBadRequest(c, "unknown status filter")
			return
		}
		filter.Status = status
	}

	requests, err := h.store.ListRequests(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// GetRequest handles GET /repairs/:id.
func (h *Handler) GetRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid request id")
		return
	}

	filter, ok := requestScope(c)
	if !ok {
		return
	}

	request, err := h.store.GetRequest(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if filter.TechnicianID != 0 && request.TechnicianID != filter.TechnicianID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeNotFound, "error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, request)
}

type setRequestStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// SetRequestStatus handles PUT /repairs/:id/status. Only pending and
// rejected may be written here; acceptance goes through the acceptance
// endpoint exclusively, so "accepted" is refused at this boundary.
func (h *Handler) SetRequestStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid request id")
		return
	}

	var body setRequestStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	status := model.RequestStatus(body.Status)
	if status != model.RequestPending && status != model.RequestRejected {
		abortBadRequest(c, `status must be "pending" or "rejected"`)
		return
	}

	if err := h.store.SetRequestStatus(c.Request.Context(), id, status); err != nil {
		abortWithError(c, err)
		return
	}

	if status == model.RequestRejected {
		h.dispatch(notification.Event{RequestID: id, Kind: notification.EventRequestRejected})
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// requestScope derives the listing filter from the caller's role. It writes
// the error response itself when the role is not allowed here.
func requestScope(c *gin.Context) (store.RequestFilter, bool) {
	switch c.GetHeader("X-User-Role") {
	case "admin":
		return store.RequestFilter{}, true
	case "technician":
		userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
		if err != nil || userID == 0 {
			abortBadRequest(c, "missing or invalid X-User-ID")
			return store.RequestFilter{}, false
		}
		return store.RequestFilter{TechnicianID: userID}, true
	default:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": codeForbidden, "error": "admin or technician role required"})
		return store.RequestFilter{}, false
	}
}
