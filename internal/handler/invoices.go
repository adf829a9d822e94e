package handler

import (
	"net/http"

	"itineramio/internal/dto"
	"itineramio/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// CreateFromLiquidation godoc
// @Summary      Draft the invoice of a liquidation
// @Description  Builds commission and cleaning lines from the liquidation. A liquidation is invoiced at most once.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                            true  "Liquidation UUID"
// @Param        body body     dto.InvoiceFromLiquidationRequest false "Series and notes"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/liquidations/{id}/invoice [post]
func (h *InvoicesHandler) CreateFromLiquidation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.InvoiceFromLiquidationRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateFromLiquidation(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Create godoc
// @Summary      Create an ad hoc invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateInvoiceRequest true "Invoice lines"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/invoices [post]
func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus godoc
// @Summary      Move an invoice along its lifecycle
// @Description  ISSUED is only reachable through the issue endpoint.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                         true "Invoice UUID"
// @Param        body body     dto.UpdateInvoiceStatusRequest true "Target status"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices/{id}/status [patch]
func (h *InvoicesHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Issue godoc
// @Summary      Issue an invoice
// @Description  Assigns the next number of its series and the issue and due dates. Numbers are never reused.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Invoice UUID"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/invoices/{id}/issue [post]
func (h *InvoicesHandler) Issue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Issue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPublic godoc
// @Summary      Public invoice view
// @Description  No authentication. The token is the only credential; the response carries no internal ids.
// @Tags         public
// @Produce      json
// @Param        token path     string true "Public token"
// @Success      200   {object} dto.PublicInvoiceResponse
// @Failure      400   {object} apierror.APIError
// @Failure      404   {object} apierror.APIError
// @Router       /public/invoices/{token} [get]
func (h *InvoicesHandler) GetPublic(c *gin.Context) {
	resp, err := h.svc.GetPublic(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}

