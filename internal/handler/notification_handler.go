package handler

import (
	"net/http"

	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/pagination"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	auth                *middleware.Authenticator
}

func NewNotificationHandler(notificationService service.NotificationService, auth *middleware.Authenticator) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, auth: auth}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/notifications")
	group.Use(h.auth.RequireAuth())
	{
		group.GET("", h.List)
		group.GET("/unread-count", h.UnreadCount)
		group.PATCH("/read-all", h.MarkAllRead)
		group.PATCH("/:id/read", h.MarkRead)
		group.DELETE("/:id", h.Delete)
	}
}

// List returns the caller's notifications, newest first
// @Summary      My notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread"
// @Param        page    query     int   false  "Page number (default 1)"
// @Param        limit   query     int   false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page{items=[]service.NotificationResponse}}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	unread := optionalBool(c, "unread")
	items, total, err := h.notificationService.List(c.Request.Context(), actor, unread != nil && *unread, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"count": count}))
}

// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification marked as read"}))
}

// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /notifications/read-all [patch]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": updated}))
}

// @Summary      Delete notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification deleted successfully"}))
}
