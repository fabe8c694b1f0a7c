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

type UserHandler struct {
	userService service.UserService
	auth        *middleware.Authenticator
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService, auth *middleware.Authenticator) *UserHandler {
	return &UserHandler{userService: userService, auth: auth}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", h.auth.RequireAuth(), h.GetMe)

	users := router.Group("/users")
	{
		users.GET("", h.auth.RequirePermission(domain.PermUsersRead), h.ListUsers)
		users.GET("/:id", h.auth.RequirePermission(domain.PermUsersRead), h.GetUserByID)
		users.POST("", h.auth.RequirePermission(domain.PermUsersWrite), h.CreateUser)
		users.PUT("/:id", h.auth.RequireAuth(), h.UpdateProfile)
		users.PATCH("/:id/active", h.auth.RequirePermission(domain.PermUsersWrite), h.SetActive)
		users.PATCH("/:id/role", h.auth.RequirePermission(domain.PermUsersWrite), h.ChangeRole)
		users.DELETE("/:id", h.auth.RequirePermission(domain.PermUsersDelete), h.DeleteUser)
	}
}

// GetMe returns the caller's profile with their effective permissions
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	caps, err := h.auth.Capabilities(c.Request.Context(), actor.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	me, err := h.userService.Me(c.Request.Context(), actor, caps)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}

// ListUsers returns a page of users
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Param        role       query     string  false  "Filter by role"
// @Param        is_active  query     bool    false  "Filter by active flag"
// @Param        search     query     string  false  "Username or email contains"
// @Success      200        {object}  response.Response{data=response.Page{items=[]service.UserResponse}}
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.UserListQuery{
		Role:     c.Query("role"),
		IsActive: optionalBool(c, "is_active"),
		Search:   c.Query("search"),
	}
	users, total, err := h.userService.ListUsers(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, p.Page, p.Limit, total))
}

// GetUserByID returns one user
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser handles POST /users
// @Summary      Create a new user
// @Description  Creates a user with a bcrypt hashed password. Only a super admin may create another super admin.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "User"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateProfile lets a user edit their own profile; admins may edit anyone
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "User ID"
// @Param        payload  body      service.UpdateProfileRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      403      {object}  response.Response
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// SetActive enables or disables an account
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "User ID"
// @Param        payload  body      service.SetActiveRequest  true  "Active flag"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Router       /users/{id}/active [patch]
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), actor, c.Param("id"), *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ChangeRole assigns a new role
// @Summary      Change user role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.ChangeRoleRequest  true  "Role"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Router       /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req service.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser removes a user with no ads or bookings
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "User still has ads or bookings"
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User deleted successfully"}))
}
