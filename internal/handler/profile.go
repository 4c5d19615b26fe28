package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type ProfileHandler struct {
	svc service.AdminServicer
}

func NewProfileHandler(svc service.AdminServicer) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), SessionFrom(c))
	if err != nil {
		writeError(c, err, "failed to list profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": items, "total": len(items)})
}

type updateProfileRequest struct {
	Name *string `json:"name,omitempty"`
	Role *string `json:"role,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	upd := service.UpdateProfile{Name: req.Name}
	if req.Role != nil {
		r := model.AdminRole(*req.Role)
		upd.Role = &r
	}
	p, err := h.svc.Update(c.Request.Context(), SessionFrom(c), id, upd)
	if err != nil {
		writeError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), SessionFrom(c), id); err != nil {
		writeError(c, err, "failed to delete profile")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), SessionFrom(c), id)
	if err != nil {
		writeError(c, err, "failed to get profile")
		return
	}
	c.JSON(http.StatusOK, p)
}
