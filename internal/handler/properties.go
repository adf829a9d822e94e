package handler

import (
	"net/http"

	"itineramio/internal/dto"
	"itineramio/internal/service"

	"github.com/gin-gonic/gin"
)

type PropertiesHandler struct {
	svc     service.PropertyService
	configs service.BillingConfigService
}

func NewPropertiesHandler(svc service.PropertyService, configs service.BillingConfigService) *PropertiesHandler {
	return &PropertiesHandler{svc: svc, configs: configs}
}

// CreateOwner godoc
// @Summary      Register a property owner
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.OwnerRequest true "Owner"
// @Success      201  {object} dto.OwnerResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/owners [post]
func (h *PropertiesHandler) CreateOwner(c *gin.Context) {
	var req dto.OwnerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateOwner(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateProperty godoc
// @Summary      Register a rental property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.PropertyRequest true "Property"
// @Success      201  {object} dto.PropertyResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/properties [post]
func (h *PropertiesHandler) CreateProperty(c *gin.Context) {
	var req dto.PropertyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProperty(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PropertiesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListProperties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBillingConfig godoc
// @Summary      Billing configuration of a property
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Property UUID"
// @Success      200 {object} dto.BillingConfigResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/properties/{id}/billing-config [get]
func (h *PropertiesHandler) GetBillingConfig(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.configs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PutBillingConfig godoc
// @Summary      Create or replace the billing configuration of a property
// @Description  Rejects inconsistent configs (SPLIT without percentage, percentages above 100) with per-field errors.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "Property UUID"
// @Param        body body     dto.BillingConfigRequest true "Config"
// @Success      200  {object} dto.BillingConfigResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/properties/{id}/billing-config [put]
func (h *PropertiesHandler) PutBillingConfig(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BillingConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.configs.Upsert(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
