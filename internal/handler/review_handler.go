package handler

import (
	"context"
	"net/http"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/model"
	"elocation/internal/service"
	"elocation/pkg/pagination"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	auth          *middleware.Authenticator
}

func NewReviewHandler(reviewService service.ReviewService, auth *middleware.Authenticator) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, auth: auth}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ads/:id/reviews", h.ListAdReviews)
	router.POST("/ads/:id/reviews", h.auth.RequireAuth(), h.CreateReview)
	router.DELETE("/reviews/:id", h.auth.RequireAuth(), h.DeleteReview)

	admin := router.Group("/admin/reviews")
	admin.Use(h.auth.RequirePermission(domain.PermReviewsModerate))
	{
		admin.GET("/pending", h.ListPendingReviews)
		admin.PATCH("/:id/approve", h.ApproveReview)
		admin.PATCH("/:id/reject", h.RejectReview)
	}
}

// CreateReview rates an ad. The review waits for moderation before it is listed.
// @Summary      Review an ad
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Ad ID"
// @Param        payload  body      service.CreateReviewRequest  true  "Rating 1-5 and comment"
// @Success      201      {object}  response.Response{data=model.Review}
// @Failure      403      {object}  response.Response  "Own ad"
// @Failure      409      {object}  response.Response  "Already reviewed"
// @Router       /ads/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, review))
}

// ListAdReviews returns approved reviews only
// @Summary      Reviews of an ad
// @Tags         reviews
// @Produce      json
// @Param        id     path      string  true   "Ad ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.Review}}
// @Router       /ads/{id}/reviews [get]
func (h *ReviewHandler) ListAdReviews(c *gin.Context) {
	p := pagination.Parse(c)
	reviews, total, err := h.reviewService.ListAdReviews(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, reviews, p.Page, p.Limit, total))
}

// @Summary      Pending reviews
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]model.Review}}
// @Router       /admin/reviews/pending [get]
func (h *ReviewHandler) ListPendingReviews(c *gin.Context) {
	p := pagination.Parse(c)
	reviews, total, err := h.reviewService.ListPendingReviews(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, reviews, p.Page, p.Limit, total))
}

// @Summary      Approve review
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response{data=model.Review}
// @Failure      409  {object}  response.Response  "Already moderated"
// @Router       /admin/reviews/{id}/approve [patch]
func (h *ReviewHandler) ApproveReview(c *gin.Context) {
	h.moderate(c, h.reviewService.ApproveReview)
}

// @Summary      Reject review
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response{data=model.Review}
// @Failure      409  {object}  response.Response  "Already moderated"
// @Router       /admin/reviews/{id}/reject [patch]
func (h *ReviewHandler) RejectReview(c *gin.Context) {
	h.moderate(c, h.reviewService.RejectReview)
}

func (h *ReviewHandler) moderate(c *gin.Context, apply func(ctx context.Context, actor domain.Actor, id string) (*model.Review, error)) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	review, err := apply(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// DeleteReview is allowed to the author and admins
// @Summary      Delete review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.reviewService.DeleteReview(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Review deleted successfully"}))
}
