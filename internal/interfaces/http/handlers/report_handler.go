package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/application/reporting"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
)

// ReportHandler renders stored analyses as downloadable documents.
type ReportHandler struct {
	svc           analysis.Service
	reports       reporting.Service
	defaultFormat reporting.Format
	logger        logging.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc analysis.Service, reports reporting.Service, defaultFormat reporting.Format, logger logging.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, reports: reports, defaultFormat: defaultFormat, logger: logger}
}

// Download handles GET /analyses/:id/report?format=csv|xlsx|json.
func (h *ReportHandler) Download(c *gin.Context) {
	id, err := runIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, r)
}

// DownloadLatest handles GET /keywords/:keyword/report: the latest stored
// run of the keyword.
func (h *ReportHandler) DownloadLatest(c *gin.Context) {
	r, err := h.svc.Latest(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.render(c, r)
}

// Publish handles POST /analyses/:id/report: the document is uploaded to
// object storage and a download link returned.
func (h *ReportHandler) Publish(c *gin.Context) {
	id, err := runIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	format, err := reporting.ParseFormat(c.Query("format"), h.defaultFormat)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pub, err := h.reports.Publish(c.Request.Context(), r, format)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, pub)
}

func (h *ReportHandler) render(c *gin.Context, r *analysis.Report) {
	format, err := reporting.ParseFormat(c.Query("format"), h.defaultFormat)
	if err != nil {
		respondError(c, err)
		return
	}
	doc, err := h.reports.Render(c.Request.Context(), r, format)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Debug("Report rendered",
		logging.String("run_id", r.RunID.String()),
		logging.String("format", string(format)),
		logging.Int64("bytes", doc.Size))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
