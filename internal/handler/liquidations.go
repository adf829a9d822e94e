package handler

import (
	"net/http"

	"itineramio/internal/dto"
	"itineramio/internal/service"

	"github.com/gin-gonic/gin"
)

type LiquidationsHandler struct {
	svc  service.LiquidationService
	jobs JobQueue
}

func NewLiquidationsHandler(svc service.LiquidationService, jobs JobQueue) *LiquidationsHandler {
	return &LiquidationsHandler{svc: svc, jobs: jobs}
}

// Aggregate godoc
// @Summary      Liquidate a property for a period
// @Description  Claims every unclaimed reservation (by check-in) and expense (by date) in the period in one transaction. Concurrent calls never claim the same record twice.
// @Tags         liquidations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string               true "Property UUID"
// @Param        body body     dto.AggregateRequest true "Period"
// @Success      201  {object} dto.LiquidationResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/properties/{id}/liquidations [post]
func (h *LiquidationsHandler) Aggregate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AggregateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Aggregate(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LiquidationsHandler) ListByProperty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListByProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Liquidation with its per-reservation breakdown
// @Tags         liquidations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Liquidation UUID"
// @Success      200 {object} dto.LiquidationDetailResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/liquidations/{id} [get]
func (h *LiquidationsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Breakdown(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EnqueueBatch godoc
// @Summary      Queue a monthly liquidation run
// @Description  Liquidates one month for the listed properties, or every configured property, in the background.
// @Tags         liquidations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.BatchLiquidationRequest true "Month and properties"
// @Success      202  {object} dto.JobAcceptedResponse
// @Router       /v1/liquidations/batch [post]
func (h *LiquidationsHandler) EnqueueBatch(c *gin.Context) {
	var req dto.BatchLiquidationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.jobs.EnqueueLiquidationBatch(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.JobAcceptedResponse{Queued: 1, Queue: "liquidation"})
}

// ── Expenses & bulk deletion ──────────────────────────────────────────────────

func (h *LiquidationsHandler) CreateExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateExpense(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DeleteReservations godoc
// @Summary      Bulk delete reservations of a month, a year, or all
// @Description  Liquidated or invoiced reservations are skipped and counted, never deleted.
// @Tags         imports
// @Produce      json
// @Security     BearerAuth
// @Param        id         path     string true  "Property UUID"
// @Param        year       query    int    false "Year"
// @Param        month      query    int    false "Month (requires year)"
// @Param        delete_all query    bool   false "Ignore year/month"
// @Success      200        {object} dto.BulkDeleteResult
// @Router       /v1/properties/{id}/reservations [delete]
func (h *LiquidationsHandler) DeleteReservations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BulkDeleteRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, err := h.svc.BulkDeleteReservations(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LiquidationsHandler) DeleteExpenses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BulkDeleteRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, err := h.svc.BulkDeleteExpenses(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
