// Package api serves the slitting engine over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// Controller handles the slitting endpoints.
type Controller struct {
	slitter *engine.Slitter
	log     *slog.Logger
}

// NewController creates a controller over a Slitter.
func NewController(s *engine.Slitter, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{slitter: s, log: log}
}

// fail writes err with the status that matches its kind.
func (ctl *Controller) fail(c *gin.Context, err error) {
	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "validation failed",
			"messages": ve.Messages,
		})
	case engine.IsLedgerIntegrityError(err):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "ledger integrity failure",
			"details": err.Error(),
		})
	case errors.Is(err, engine.ErrJobNotFound), errors.Is(err, engine.ErrLotNotFound), errors.Is(err, engine.ErrMasterNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not found",
			"details": err.Error(),
		})
	default:
		ctl.log.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal error",
			"details": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// pathID returns a catch-all path parameter without its leading slash.
func pathID(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

func lotStoreParam(c *gin.Context) (model.LotStore, bool) {
	kind, err := model.ParseLotStore(c.Param("store"))
	if err != nil {
		badRequest(c, "invalid lot store", err)
		return kind, false
	}
	return kind, true
}

// Convert expresses one quantity in kg, m and m².
// POST /api/v1/convert
func (ctl *Controller) Convert(c *gin.Context) {
	var req struct {
		Value float64        `json:"value"`
		Unit  model.Unit     `json:"unit" binding:"required"`
		Spec  model.RollSpec `json:"spec"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	unit, err := model.ParseUnit(string(req.Unit))
	if err != nil {
		badRequest(c, "invalid unit", err)
		return
	}
	q, err := engine.ConvertRollQuantity(req.Value, unit, req.Spec)
	if err != nil {
		badRequest(c, "conversion failed", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ValidatePlans checks plan rows against a mother width.
// POST /api/v1/validate
func (ctl *Controller) ValidatePlans(c *gin.Context) {
	var req struct {
		MotherWidthMM float64             `json:"mother_width_mm"`
		Plans         []model.CuttingPlan `json:"plans"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	for i := range req.Plans {
		req.Plans[i].TotalWidthMM = req.Plans[i].ChildWidthMM * float64(req.Plans[i].Quantity)
	}
	if msgs := engine.ValidatePlanRows(req.Plans); len(msgs) > 0 {
		ctl.fail(c, &engine.ValidationError{Messages: msgs})
		return
	}
	res := engine.ValidateCuttingPlansWithThreshold(req.MotherWidthMM, req.Plans, ctl.slitter.Config().WarnUnusedPercent)
	c.JSON(http.StatusOK, gin.H{
		"result": res,
		"layout": model.BuildKnifeLayout(req.MotherWidthMM, req.Plans),
	})
}

// PreviewJob works out a draft without committing it.
// POST /api/v1/jobs/preview
func (ctl *Controller) PreviewJob(c *gin.Context) {
	var d model.JobDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid draft", err)
		return
	}
	job, check, err := ctl.slitter.PreviewSlittingJob(c.Request.Context(), d)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "check": check})
}

// CommitJob commits a slitting job.
// POST /api/v1/jobs
func (ctl *Controller) CommitJob(c *gin.Context) {
	var d model.JobDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid draft", err)
		return
	}
	job, err := ctl.slitter.CommitSlittingJob(c.Request.Context(), d)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// ListJobs returns all jobs.
// GET /api/v1/jobs
func (ctl *Controller) ListJobs(c *gin.Context) {
	jobs, err := ctl.slitter.ListJobs(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetJob returns one job.
// GET /api/v1/jobs/{id}
func (ctl *Controller) GetJob(c *gin.Context) {
	job, err := ctl.slitter.GetJob(c.Request.Context(), pathID(c, "id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob reverses a committed job.
// DELETE /api/v1/jobs/{id}
func (ctl *Controller) DeleteJob(c *gin.Context) {
	id := pathID(c, "id")
	if err := ctl.slitter.DeleteSlittingJob(c.Request.Context(), id); err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job reversed", "id": id})
}

// ListLots returns the lots of one store.
// GET /api/v1/lots/:store
func (ctl *Controller) ListLots(c *gin.Context) {
	kind, ok := lotStoreParam(c)
	if !ok {
		return
	}
	lots, err := ctl.slitter.ListLots(c.Request.Context(), kind)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
}

// GetLot returns one lot.
// GET /api/v1/lots/:store/{id}
func (ctl *Controller) GetLot(c *gin.Context) {
	kind, ok := lotStoreParam(c)
	if !ok {
		return
	}
	lot, err := ctl.slitter.GetLot(c.Request.Context(), kind, pathID(c, "id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// ReceiveLots adds lots to a store.
// POST /api/v1/lots/:store
func (ctl *Controller) ReceiveLots(c *gin.Context) {
	kind, ok := lotStoreParam(c)
	if !ok {
		return
	}
	var lots []model.Lot
	if err := c.ShouldBindJSON(&lots); err != nil {
		badRequest(c, "invalid lots", err)
		return
	}
	if len(lots) == 0 {
		badRequest(c, "no lots supplied", nil)
		return
	}
	if err := ctl.slitter.ReceiveLots(c.Request.Context(), kind, lots); err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lots": lots, "count": len(lots)})
}

// ListMasters returns the roll master catalog.
// GET /api/v1/masters
func (ctl *Controller) ListMasters(c *gin.Context) {
	masters, err := ctl.slitter.Masters(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"masters": masters, "count": len(masters)})
}

// MotherLots lists lots that can be slit for a master.
// GET /api/v1/masters/:id/mother-lots?store=grn|stock
func (ctl *Controller) MotherLots(c *gin.Context) {
	kind, err := model.ParseLotStore(c.DefaultQuery("store", "stock"))
	if err != nil {
		badRequest(c, "invalid lot store", err)
		return
	}
	lots, err := ctl.slitter.MotherLots(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
}
