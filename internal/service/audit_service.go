package service

import (
	"context"

	"elocation/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditLogQuery struct {
	Action   string
	EntityID string
	UserID   string
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, q AuditLogQuery, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns a page of entries, newest first. Entries whose author was deleted show as "System".
func (s *auditService) GetAuditLogs(ctx context.Context, q AuditLogQuery, page, limit int) ([]AuditLogResponse, int64, error) {
	userID, err := parseOptionalID(q.UserID, "d'utilisateur")
	if err != nil {
		return nil, 0, err
	}
	filter := repository.AuditFilter{Action: q.Action, EntityID: q.EntityID, UserID: userID}

	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		id := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			id = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     id,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(timeLayout),
		})
	}

	return res, total, nil
}
