package handler

import (
	"net/http"
	"strconv"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	auth              *middleware.Authenticator
}

func NewStatisticsHandler(statisticsService service.StatisticsService, auth *middleware.Authenticator) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/admin/stats")
	statsGroup.Use(h.auth.RequirePermission(domain.PermDashboardRead))
	{
		statsGroup.GET("", h.GetDashboardStats)
		statsGroup.GET("/users-by-role", h.GetUsersByRole)
		statsGroup.GET("/monthly-bookings", h.GetMonthlyBookings)
		statsGroup.GET("/top-categories", h.GetTopCategories)
		statsGroup.GET("/ad-ratings", h.GetAdRatings)
	}
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+key+": "+raw))
		return 0, false
	}
	return v, true
}

// @Summary      Dashboard statistics
// @Description  Users, ads, bookings by status and moderation queues. Recomputed on every call.
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Failure      401  {object}  response.Response
// @Router       /admin/stats [get]
func (h *StatisticsHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.statisticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// @Summary      Users per role
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.RoleCount}
// @Router       /admin/stats/users-by-role [get]
func (h *StatisticsHandler) GetUsersByRole(c *gin.Context) {
	counts, err := h.statisticsService.GetUsersByRole(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, counts))
}

// @Summary      Monthly bookings and revenue
// @Description  Revenue sums confirmed and completed bookings
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        year  query     int  false  "Year (default current)"
// @Success      200   {object}  response.Response{data=[]model.MonthlyBookingStat}
// @Failure      400   {object}  response.Response
// @Router       /admin/stats/monthly-bookings [get]
func (h *StatisticsHandler) GetMonthlyBookings(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	stats, err := h.statisticsService.GetMonthlyBookings(c.Request.Context(), year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// @Summary      Categories by ad count
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max rows (default 10)"
// @Success      200    {object}  response.Response{data=[]model.CategoryRanking}
// @Router       /admin/stats/top-categories [get]
func (h *StatisticsHandler) GetTopCategories(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	ranking, err := h.statisticsService.GetTopCategories(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ranking))
}

// @Summary      Ad ratings
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max rows (default 10)"
// @Success      200    {object}  response.Response{data=[]model.AdRating}
// @Router       /admin/stats/ad-ratings [get]
func (h *StatisticsHandler) GetAdRatings(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	ratings, err := h.statisticsService.GetAdRatings(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ratings))
}
