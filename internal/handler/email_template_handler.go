package handler

import (
	"net/http"

	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/internal/service"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmailTemplateHandler struct {
	templateService service.EmailTemplateService
	auth            *middleware.Authenticator
}

func NewEmailTemplateHandler(templateService service.EmailTemplateService, auth *middleware.Authenticator) *EmailTemplateHandler {
	return &EmailTemplateHandler{templateService: templateService, auth: auth}
}

func (h *EmailTemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/admin/email-templates")
	group.Use(h.auth.RequirePermission(domain.PermEmailTemplatesEdit))
	{
		group.GET("", h.ListTemplates)
		group.GET("/:id", h.GetTemplate)
		group.POST("", h.CreateTemplate)
		group.PUT("/:id", h.UpdateTemplate)
		group.DELETE("/:id", h.DeleteTemplate)
		group.POST("/:id/render", h.RenderTemplate)
		group.POST("/:id/test", h.SendTestEmail)
	}
}

// @Summary      List email templates
// @Tags         email-templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.EmailTemplate}
// @Router       /admin/email-templates [get]
func (h *EmailTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// @Summary      Get email template
// @Tags         email-templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response{data=model.EmailTemplate}
// @Router       /admin/email-templates/{id} [get]
func (h *EmailTemplateHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templateService.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

// CreateTemplate stores a template after checking that subject and body parse
// @Summary      Create email template
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.EmailTemplateRequest  true  "Template"
// @Success      201      {object}  response.Response{data=model.EmailTemplate}
// @Failure      400      {object}  response.Response  "Template does not parse"
// @Router       /admin/email-templates [post]
func (h *EmailTemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tpl, err := h.templateService.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tpl))
}

// @Summary      Update email template
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Template ID"
// @Param        payload  body      service.EmailTemplateRequest  true  "Template"
// @Success      200      {object}  response.Response{data=model.EmailTemplate}
// @Router       /admin/email-templates/{id} [put]
func (h *EmailTemplateHandler) UpdateTemplate(c *gin.Context) {
	var req service.EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tpl, err := h.templateService.UpdateTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

// @Summary      Delete email template
// @Tags         email-templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response
// @Router       /admin/email-templates/{id} [delete]
func (h *EmailTemplateHandler) DeleteTemplate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Email template deleted successfully"}))
}

// RenderTemplate previews a template with sample data
// @Summary      Render email template
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Template ID"
// @Param        payload  body      service.RenderTemplateRequest  false "Template data"
// @Success      200      {object}  response.Response{data=service.RenderedEmail}
// @Router       /admin/email-templates/{id}/render [post]
func (h *EmailTemplateHandler) RenderTemplate(c *gin.Context) {
	var req service.RenderTemplateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	rendered, err := h.templateService.RenderTemplate(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rendered))
}

// SendTestEmail delivers the rendered template to one address
// @Summary      Send test email
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Template ID"
// @Param        payload  body      service.SendTestEmailRequest  true  "Recipient and data"
// @Success      200      {object}  response.Response
// @Router       /admin/email-templates/{id}/test [post]
func (h *EmailTemplateHandler) SendTestEmail(c *gin.Context) {
	var req service.SendTestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.templateService.SendTestEmail(c.Request.Context(), c.Param("id"), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Test email sent"}))
}
