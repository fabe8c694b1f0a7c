package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/mailer"
	"elocation/internal/model"
	"elocation/internal/repository"

	"go.uber.org/zap"
)

type EmailTemplateRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Subject  string `json:"subject" binding:"required,max=255"`
	Body     string `json:"body" binding:"required"`
	IsHTML   bool   `json:"is_html"`
	IsActive *bool  `json:"is_active"`
}

type RenderTemplateRequest struct {
	Data map[string]interface{} `json:"data"`
}

type SendTestEmailRequest struct {
	To   string                 `json:"to" binding:"required,email"`
	Data map[string]interface{} `json:"data"`
}

type RenderedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	IsHTML  bool   `json:"is_html"`
}

type EmailTemplateService interface {
	ListTemplates(ctx context.Context) ([]model.EmailTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error)
	CreateTemplate(ctx context.Context, req EmailTemplateRequest) (*model.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, id string, req EmailTemplateRequest) (*model.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, actor domain.Actor, id string) error
	RenderTemplate(ctx context.Context, id string, data map[string]interface{}) (*RenderedEmail, error)
	SendTestEmail(ctx context.Context, id string, req SendTestEmailRequest) error
	SendTemplate(ctx context.Context, name, to string, data map[string]interface{}) error
	SeedDefaultTemplates(ctx context.Context) error
}

type emailTemplateService struct {
	repo      repository.EmailTemplateRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	sender    mailer.Sender
	log       *zap.Logger
}

func NewEmailTemplateService(
	repo repository.EmailTemplateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	sender mailer.Sender,
	log *zap.Logger,
) EmailTemplateService {
	return &emailTemplateService{repo: repo, auditRepo: auditRepo, txManager: txManager, sender: sender, log: log.Named("email_templates")}
}

func (s *emailTemplateService) ListTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	templates, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	return templates, nil
}

func (s *emailTemplateService) GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error) {
	tplID, err := parseID(id, "de modèle")
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tplID)
}

func (s *emailTemplateService) CreateTemplate(ctx context.Context, req EmailTemplateRequest) (*model.EmailTemplate, error) {
	tpl := &model.EmailTemplate{IsActive: true}
	applyTemplateRequest(tpl, req)
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict(fmt.Sprintf("Le modèle %q existe déjà", tpl.Name))
		}
		return nil, fmt.Errorf("failed to create email template: %w", err)
	}
	return tpl, nil
}

func (s *emailTemplateService) UpdateTemplate(ctx context.Context, id string, req EmailTemplateRequest) (*model.EmailTemplate, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTemplateRequest(tpl, req)
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tpl); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict(fmt.Sprintf("Le modèle %q existe déjà", tpl.Name))
		}
		return nil, fmt.Errorf("failed to update email template: %w", err)
	}
	return tpl, nil
}

func (s *emailTemplateService) DeleteTemplate(ctx context.Context, actor domain.Actor, id string) error {
	tplID, err := parseID(id, "de modèle")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		tpl, err := s.repo.GetByID(txCtx, tplID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, tpl.ID); err != nil {
			return fmt.Errorf("failed to delete email template: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteEmailTemplate, tpl.ID.String(), tpl.Name, nil)
	})
}

func (s *emailTemplateService) RenderTemplate(ctx context.Context, id string, data map[string]interface{}) (*RenderedEmail, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return Render(tpl, data)
}

func (s *emailTemplateService) SendTestEmail(ctx context.Context, id string, req SendTestEmailRequest) error {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	return s.deliver(ctx, tpl, req.To, req.Data)
}

// SendTemplate renders the named template and sends it. Unknown or inactive templates are NotFound.
func (s *emailTemplateService) SendTemplate(ctx context.Context, name, to string, data map[string]interface{}) error {
	tpl, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if !tpl.IsActive {
		return apperror.NotFound(fmt.Sprintf("Modèle %q désactivé", name))
	}
	return s.deliver(ctx, tpl, to, data)
}

func (s *emailTemplateService) deliver(ctx context.Context, tpl *model.EmailTemplate, to string, data map[string]interface{}) error {
	rendered, err := Render(tpl, data)
	if err != nil {
		return err
	}
	msg := mailer.Message{To: to, Subject: rendered.Subject, Body: rendered.Body, HTML: rendered.IsHTML}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email %q: %w", tpl.Name, err)
	}
	s.log.Info("email sent", zap.String("template", tpl.Name), zap.String("to", to))
	return nil
}

var defaultTemplates = []model.EmailTemplate{
	{
		Name:    "booking_confirmed",
		Subject: "Votre réservation est confirmée",
		Body:    "Bonjour {{.Username}},\n\nVotre réservation du {{.StartDate}} au {{.EndDate}} est confirmée. Montant total: {{.TotalPrice}} FCFA.\n\nL'équipe eLocation",
	},
	{
		Name:    "booking_cancelled",
		Subject: "Votre réservation a été annulée",
		Body:    "Bonjour {{.Username}},\n\nVotre réservation du {{.StartDate}} au {{.EndDate}} a été annulée.\n\nL'équipe eLocation",
	},
	{
		Name:    "booking_completed",
		Subject: "Merci pour votre séjour",
		Body:    "Bonjour {{.Username}},\n\nVotre séjour est terminé. N'hésitez pas à laisser un avis sur l'annonce.\n\nL'équipe eLocation",
	},
}

// SeedDefaultTemplates creates the booking templates that do not exist yet; edited ones are left alone
func (s *emailTemplateService) SeedDefaultTemplates(ctx context.Context) error {
	for _, def := range defaultTemplates {
		_, err := s.repo.GetByName(ctx, def.Name)
		if err == nil {
			continue
		}
		if !apperror.IsKind(err, apperror.KindNotFound) {
			return fmt.Errorf("failed to look up template '%s': %w", def.Name, err)
		}
		tpl := def
		tpl.IsActive = true
		if err := s.repo.Create(ctx, &tpl); err != nil {
			return fmt.Errorf("failed to seed template '%s': %w", def.Name, err)
		}
	}
	return nil
}

func applyTemplateRequest(tpl *model.EmailTemplate, req EmailTemplateRequest) {
	tpl.Name = strings.TrimSpace(req.Name)
	tpl.Subject = req.Subject
	tpl.Body = req.Body
	tpl.IsHTML = req.IsHTML
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
}

func validateTemplate(tpl *model.EmailTemplate) error {
	if _, err := template.New("subject").Parse(tpl.Subject); err != nil {
		return apperror.Validation(fmt.Sprintf("sujet invalide: %v", err))
	}
	if _, err := parseBody(tpl); err != nil {
		return apperror.Validation(fmt.Sprintf("corps invalide: %v", err))
	}
	return nil
}

type executor interface {
	Execute(w io.Writer, data interface{}) error
}

func parseBody(tpl *model.EmailTemplate) (executor, error) {
	if tpl.IsHTML {
		return htmltemplate.New(tpl.Name).Option("missingkey=zero").Parse(tpl.Body)
	}
	return template.New(tpl.Name).Option("missingkey=zero").Parse(tpl.Body)
}

// Render executes subject and body against data. HTML bodies are escaped contextually.
func Render(tpl *model.EmailTemplate, data map[string]interface{}) (*RenderedEmail, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	subjectTpl, err := template.New("subject").Option("missingkey=zero").Parse(tpl.Subject)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("sujet invalide: %v", err))
	}
	bodyTpl, err := parseBody(tpl)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("corps invalide: %v", err))
	}

	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, data); err != nil {
		return nil, apperror.Validation(fmt.Sprintf("rendu du sujet impossible: %v", err))
	}
	if err := bodyTpl.Execute(&body, data); err != nil {
		return nil, apperror.Validation(fmt.Sprintf("rendu du corps impossible: %v", err))
	}
	return &RenderedEmail{Subject: subject.String(), Body: body.String(), IsHTML: tpl.IsHTML}, nil
}
