package handler

import (
	"net/http"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/pagination"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	auth          *middleware.Authenticator
}

func NewReportHandler(reportService service.ReportService, auth *middleware.Authenticator) *ReportHandler {
	return &ReportHandler{reportService: reportService, auth: auth}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/reports", h.auth.RequireAuth(), h.CreateReport)

	admin := router.Group("/admin/reports")
	admin.Use(h.auth.RequirePermission(domain.PermReportsManage))
	{
		admin.GET("", h.ListReports)
		admin.GET("/:id", h.GetReport)
		admin.PATCH("/:id/review", h.MarkReviewed)
		admin.PATCH("/:id/resolve", h.ResolveReport)
		admin.PATCH("/:id/dismiss", h.DismissReport)
	}
}

// CreateReport flags an ad or a user
// @Summary      Report an ad or a user
// @Description  type "ad" needs reported_ad_id, type "user" needs reported_user_id
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateReportRequest  true  "Report"
// @Success      201      {object}  response.Response{data=model.Report}
// @Failure      400      {object}  response.Response
// @Router       /reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// @Summary      List reports
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending, reviewed, resolved or dismissed"
// @Param        type    query     string  false  "ad or user"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page{items=[]model.Report}}
// @Router       /admin/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.ReportListQuery{Status: c.Query("status"), Type: c.Query("type")}
	reports, total, err := h.reportService.ListReports(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, reports, p.Page, p.Limit, total))
}

// @Summary      Get report
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Router       /admin/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// @Summary      Mark report reviewed
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      409  {object}  response.Response
// @Router       /admin/reports/{id}/review [patch]
func (h *ReportHandler) MarkReviewed(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	report, err := h.reportService.MarkReviewed(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ResolveReport applies the resolution action. Resolving twice re-applies it.
// @Summary      Resolve report
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Report ID"
// @Param        payload  body      service.ResolveReportRequest  true  "none, disable_ad or disable_user"
// @Success      200      {object}  response.Response{data=model.Report}
// @Failure      409      {object}  response.Response
// @Router       /admin/reports/{id}/resolve [patch]
func (h *ReportHandler) ResolveReport(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.ResolveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.reportService.ResolveReport(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// @Summary      Dismiss report
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      409  {object}  response.Response
// @Router       /admin/reports/{id}/dismiss [patch]
func (h *ReportHandler) DismissReport(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	report, err := h.reportService.DismissReport(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
