package handler

import (
	"context"
	"errors"
	"net/http"

	"itineramio/internal/apierror"
	"itineramio/internal/dto"
	"itineramio/internal/worker"

	"github.com/gin-gonic/gin"
)

// QueueInspector reports job queue depth and replays dead-lettered jobs.
type QueueInspector interface {
	QueueStats(ctx context.Context) (map[string]dto.QueueStats, error)
	Redrive(ctx context.Context, queue string, limit int) (int, error)
}

type QueuesHandler struct{ q QueueInspector }

func NewQueuesHandler(q QueueInspector) *QueuesHandler { return &QueuesHandler{q: q} }

// Stats godoc
// @Summary      Pending and dead-lettered jobs per queue
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]dto.QueueStats
// @Router       /v1/admin/queues [get]
func (h *QueuesHandler) Stats(c *gin.Context) {
	stats, err := h.q.QueueStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type redriveQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=1000"`
}

// Redrive godoc
// @Summary      Replay dead-lettered jobs
// @Description  Moves up to limit (default 100) DLQ entries back onto the queue with a fresh attempt budget.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        queue path  string true  "Queue name, e.g. jobs:email_ingest"
// @Param        limit query int    false "Maximum jobs to move"
// @Success      200   {object} map[string]int
// @Failure      404   {object} apierror.APIError
// @Router       /v1/admin/queues/{queue}/redrive [post]
func (h *QueuesHandler) Redrive(c *gin.Context) {
	var q redriveQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = 100
	}
	moved, err := h.q.Redrive(c.Request.Context(), c.Param("queue"), q.Limit)
	if errors.Is(err, worker.ErrUnknownQueue) {
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, err.Error()))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}
