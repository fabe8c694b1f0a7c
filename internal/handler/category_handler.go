package handler

import (
	"net/http"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	auth            *middleware.Authenticator
}

func NewCategoryHandler(categoryService service.CategoryService, auth *middleware.Authenticator) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auth: auth}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.GET("/:id/sub-categories", h.ListSubCategories)
	}

	manage := router.Group("")
	manage.Use(h.auth.RequirePermission(domain.PermCategoriesManage))
	{
		manage.POST("/categories", h.CreateCategory)
		manage.PUT("/categories/:id", h.UpdateCategory)
		manage.DELETE("/categories/:id", h.DeleteCategory)
		manage.POST("/categories/:id/sub-categories", h.CreateSubCategory)
		manage.PUT("/sub-categories/:id", h.UpdateSubCategory)
		manage.DELETE("/sub-categories/:id", h.DeleteSubCategory)
	}
}

// ListCategories returns every category
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// @Summary      Get category
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=model.Category}
// @Failure      404  {object}  response.Response
// @Router       /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      201      {object}  response.Response{data=model.Category}
// @Failure      409      {object}  response.Response
// @Router       /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.categoryService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// @Summary      Update category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      200      {object}  response.Response{data=model.Category}
// @Router       /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.categoryService.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory refuses while any ad uses the category
// @Summary      Delete category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Category still has ads"
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.categoryService.DeleteCategory(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Category deleted successfully"}))
}

// @Summary      List sub-categories
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=[]model.SubCategory}
// @Router       /categories/{id}/sub-categories [get]
func (h *CategoryHandler) ListSubCategories(c *gin.Context) {
	subs, err := h.categoryService.ListSubCategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, subs))
}

// @Summary      Create sub-category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Category ID"
// @Param        payload  body      service.SubCategoryRequest  true  "Sub-category"
// @Success      201      {object}  response.Response{data=model.SubCategory}
// @Router       /categories/{id}/sub-categories [post]
func (h *CategoryHandler) CreateSubCategory(c *gin.Context) {
	var req service.SubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.categoryService.CreateSubCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sub))
}

// @Summary      Update sub-category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Sub-category ID"
// @Param        payload  body      service.SubCategoryRequest  true  "Sub-category"
// @Success      200      {object}  response.Response{data=model.SubCategory}
// @Router       /sub-categories/{id} [put]
func (h *CategoryHandler) UpdateSubCategory(c *gin.Context) {
	var req service.SubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.categoryService.UpdateSubCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sub))
}

// @Summary      Delete sub-category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sub-category ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Sub-category still has ads"
// @Router       /sub-categories/{id} [delete]
func (h *CategoryHandler) DeleteSubCategory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.categoryService.DeleteSubCategory(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Sub-category deleted successfully"}))
}
