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

type AdHandler struct {
	adService    service.AdService
	statsService service.StatisticsService
	auth         *middleware.Authenticator
}

func NewAdHandler(adService service.AdService, statsService service.StatisticsService, auth *middleware.Authenticator) *AdHandler {
	return &AdHandler{adService: adService, statsService: statsService, auth: auth}
}

func (h *AdHandler) RegisterRoutes(router *gin.RouterGroup) {
	public := router.Group("/ads")
	public.Use(h.auth.OptionalAuth())
	{
		public.GET("", h.ListAds)
		public.GET("/:id", h.GetAd)
		public.GET("/:id/rating", h.GetAdRating)
	}

	ads := router.Group("/ads")
	ads.Use(h.auth.RequireAuth())
	{
		ads.POST("", h.CreateAd)
		ads.PUT("/:id", h.UpdateAd)
		ads.DELETE("/:id", h.DeleteAd)
		ads.PATCH("/:id/toggle-status", h.ToggleAdStatus)
		ads.PATCH("/:id/toggle-availability", h.ToggleAvailability)
		ads.POST("/:id/photos", h.UploadPhoto)
	}

	router.PATCH("/admin/ads/:id/status", h.auth.RequirePermission(domain.PermAdsModerate), h.UpdateAdStatus)
}

// ListAds returns active ads; owners and admins can also see inactive ones
// @Summary      List ads
// @Tags         ads
// @Produce      json
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Items per page (default 20)"
// @Param        category_id      query     string  false  "Category"
// @Param        sub_category_id  query     string  false  "Sub-category"
// @Param        owner_id         query     string  false  "Owner"
// @Param        is_active        query     bool    false  "Active flag (owner or admin only)"
// @Param        is_available     query     bool    false  "Availability flag"
// @Param        search           query     string  false  "Title contains"
// @Success      200              {object}  response.Response{data=response.Page{items=[]model.Ad}}
// @Router       /ads [get]
func (h *AdHandler) ListAds(c *gin.Context) {
	viewer, _ := middleware.ActorFrom(c)
	p := pagination.Parse(c)
	q := service.AdListQuery{
		CategoryID:    c.Query("category_id"),
		SubCategoryID: c.Query("sub_category_id"),
		OwnerID:       c.Query("owner_id"),
		IsActive:      optionalBool(c, "is_active"),
		IsAvailable:   optionalBool(c, "is_available"),
		Search:        c.Query("search"),
	}

	ads, total, err := h.adService.ListAds(c.Request.Context(), viewer, q, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, ads, p.Page, p.Limit, total))
}

// GetAd returns one ad with its photos
// @Summary      Get ad
// @Tags         ads
// @Produce      json
// @Param        id   path      string  true  "Ad ID"
// @Success      200  {object}  response.Response{data=model.Ad}
// @Failure      404  {object}  response.Response
// @Router       /ads/{id} [get]
func (h *AdHandler) GetAd(c *gin.Context) {
	viewer, _ := middleware.ActorFrom(c)
	ad, err := h.adService.GetAd(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ad))
}

// GetAdRating returns the average approved rating of an ad
// @Summary      Ad rating
// @Tags         ads
// @Produce      json
// @Param        id   path      string  true  "Ad ID"
// @Success      200  {object}  response.Response{data=model.AdRating}
// @Router       /ads/{id}/rating [get]
func (h *AdHandler) GetAdRating(c *gin.Context) {
	rating, err := h.statsService.GetAdRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rating))
}

// CreateAd publishes a new ad owned by the caller
// @Summary      Create ad
// @Tags         ads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAdRequest  true  "Ad"
// @Success      201      {object}  response.Response{data=model.Ad}
// @Failure      400      {object}  response.Response
// @Router       /ads [post]
func (h *AdHandler) CreateAd(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ad, err := h.adService.CreateAd(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ad))
}

// UpdateAd edits an ad the caller owns
// @Summary      Update ad
// @Tags         ads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Ad ID"
// @Param        payload  body      service.UpdateAdRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Ad}
// @Failure      403      {object}  response.Response
// @Router       /ads/{id} [put]
func (h *AdHandler) UpdateAd(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ad, err := h.adService.UpdateAd(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ad))
}

// DeleteAd removes an ad without confirmed bookings
// @Summary      Delete ad
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Ad ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response  "Ad has confirmed bookings"
// @Router       /ads/{id} [delete]
func (h *AdHandler) DeleteAd(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.adService.DeleteAd(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Ad deleted successfully"}))
}

// ToggleAdStatus flips is_active
// @Summary      Toggle ad status
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Ad ID"
// @Success      200  {object}  response.Response{data=model.Ad}
// @Router       /ads/{id}/toggle-status [patch]
func (h *AdHandler) ToggleAdStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	ad, err := h.adService.ToggleAdStatus(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ad))
}

// ToggleAvailability flips is_available
// @Summary      Toggle ad availability
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Ad ID"
// @Success      200  {object}  response.Response{data=model.Ad}
// @Router       /ads/{id}/toggle-availability [patch]
func (h *AdHandler) ToggleAvailability(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	ad, err := h.adService.ToggleAvailability(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ad))
}

// UpdateAdStatus is the admin moderation switch
// @Summary      Moderate ad
// @Description  "active" enables the ad, any other status disables it
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Ad ID"
// @Param        payload  body      service.AdStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Ad}
// @Router       /admin/ads/{id}/status [patch]
func (h *AdHandler) UpdateAdStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.AdStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ad, err := h.adService.UpdateAdStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ad))
}

// UploadPhoto stores an image for the ad
// @Summary      Upload ad photo
// @Tags         ads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Ad ID"
// @Param        photo  formData  file    true  "Image file (max 10MB)"
// @Success      201    {object}  response.Response{data=model.AdPhoto}
// @Failure      400    {object}  response.Response
// @Router       /ads/{id}/photos [post]
func (h *AdHandler) UploadPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	upload := service.PhotoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	photo, err := h.adService.UploadPhoto(c.Request.Context(), actor, c.Param("id"), upload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, photo))
}
