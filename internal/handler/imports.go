package handler

import (
	"encoding/json"
	"net/http"

	"itineramio/internal/apierror"
	"itineramio/internal/dto"
	"itineramio/internal/infra"
	"itineramio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ImportsHandler struct {
	svc  service.ImportService
	jobs JobQueue
}

func NewImportsHandler(svc service.ImportService, jobs JobQueue) *ImportsHandler {
	return &ImportsHandler{svc: svc, jobs: jobs}
}

// ImportReservations godoc
// @Summary      Import reservations from a cell matrix
// @Description  Parses, validates and deduplicates each row. The report always accounts for every processed row.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string            true "Property UUID"
// @Param        body body     dto.ImportRequest true "Rows plus mapping/config or template"
// @Success      200  {object} dto.ImportReport
// @Failure      422  {object} apierror.APIError
// @Router       /v1/properties/{id}/reservations/import [post]
func (h *ImportsHandler) ImportReservations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.runImport(c, id, req)
}

// UploadReservations godoc
// @Summary      Import reservations from a CSV or XLSX upload
// @Description  Multipart form: "file" holds the export, "options" an optional JSON ImportRequest without rows.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id      path     string true  "Property UUID"
// @Param        file    formData file   true  "CSV or XLSX export"
// @Param        options formData string false "JSON mapping/config/template_id"
// @Success      200     {object} dto.ImportReport
// @Failure      400     {object} apierror.APIError
// @Router       /v1/properties/{id}/reservations/import/upload [post]
func (h *ImportsHandler) UploadReservations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, infra.MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("El archivo es obligatorio"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return
	}
	defer f.Close()

	rows, err := infra.ReadMatrix(f, fh.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	var req dto.ImportRequest
	if opts := c.PostForm("options"); opts != "" {
		if err := json.Unmarshal([]byte(opts), &req); err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Opciones JSON invalidas: "+err.Error()))
			return
		}
	}
	req.Rows = rows
	if !validateStruct(c, &req) {
		return
	}
	log.Debug().Str("file", fh.Filename).Int("rows", len(rows)).Msg("imports: upload parsed")
	h.runImport(c, id, req)
}

func (h *ImportsHandler) runImport(c *gin.Context, propertyID uuid.UUID, req dto.ImportRequest) {
	report, err := h.svc.ImportReservations(c.Request.Context(), propertyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// EnqueueEmailReservations godoc
// @Summary      Queue reservations parsed from platform confirmation emails
// @Description  Machine-to-machine webhook authenticated with X-Webhook-Token. Each reservation becomes one job.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        body body     dto.EmailIngestRequest true "Parsed reservations"
// @Success      202  {object} dto.JobAcceptedResponse
// @Failure      401  {object} apierror.APIError
// @Router       /v1/integrations/email-reservations [post]
func (h *ImportsHandler) EnqueueEmailReservations(c *gin.Context) {
	var req dto.EmailIngestRequest
	if !bindAndValidate(c, &req) {
		return
	}
	n, err := h.jobs.EnqueueEmailReservations(c.Request.Context(), req.Reservations)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.JobAcceptedResponse{Queued: n, Queue: "email_ingest"})
}

// ── Import templates ──────────────────────────────────────────────────────────

func (h *ImportsHandler) ListTemplates(c *gin.Context) {
	list, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SaveTemplate godoc
// @Summary      Save a named column mapping
// @Description  Saving under an existing name replaces that template.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.ImportTemplateRequest true "Template"
// @Success      201  {object} dto.ImportTemplateResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/import-templates [post]
func (h *ImportsHandler) SaveTemplate(c *gin.Context) {
	var req dto.ImportTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SaveTemplate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ImportsHandler) DeleteTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
