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

type BookingHandler struct {
	bookingService service.BookingService
	auth           *middleware.Authenticator
}

func NewBookingHandler(bookingService service.BookingService, auth *middleware.Authenticator) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, auth: auth}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	bookings.Use(h.auth.RequireAuth())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/me", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
	}

	router.GET("/admin/bookings", h.auth.RequirePermission(domain.PermBookingsRead), h.ListAllBookings)
}

// CreateBooking books an ad for a date range
// @Summary      Create booking
// @Description  Total price is the ad price times the number of nights
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBookingRequest  true  "Booking"
// @Success      201      {object}  response.Response{data=model.Booking}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Ad unavailable or dates taken"
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// ListMyBookings returns bookings where the caller is tenant or owner
// @Summary      My bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending, confirmed, cancelled or completed"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page{items=[]model.Booking}}
// @Router       /bookings/me [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	bookings, total, err := h.bookingService.ListMyBookings(c.Request.Context(), actor, c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, bookings, p.Page, p.Limit, total))
}

// ListAllBookings is the admin view
// @Summary      All bookings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page{items=[]model.Booking}}
// @Router       /admin/bookings [get]
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	p := pagination.Parse(c)
	bookings, total, err := h.bookingService.ListAllBookings(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, bookings, p.Page, p.Limit, total))
}

// GetBooking is visible to its tenant, its owner and admins
// @Summary      Get booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=model.Booking}
// @Failure      403  {object}  response.Response
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}

// UpdateStatus moves a booking through its lifecycle
// @Summary      Update booking status
// @Description  pending -> confirmed|cancelled, confirmed -> completed|cancelled. Tenants may only cancel.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Booking ID"
// @Param        payload  body      service.UpdateBookingStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=model.Booking}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response  "Invalid transition"
// @Router       /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}
