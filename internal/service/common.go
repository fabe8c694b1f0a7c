package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const timeLayout = "2006-01-02 15:04:05"

func parseID(id, what string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Validation(fmt.Sprintf("identifiant %s invalide: %q", what, id))
	}
	return parsed, nil
}

// parseOptionalID returns nil for an empty string
func parseOptionalID(id, what string) (*uuid.UUID, error) {
	if id == "" {
		return nil, nil
	}
	parsed, err := parseID(id, what)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// writeAudit records an action; call it with the transaction context so it commits with the change
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor domain.Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		entry.UserID = &id
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// guardDelete runs the integrity guard for a locked row and counts refusals
func guardDelete(ctx context.Context, guard *domain.IntegrityGuard, m *metrics.Manager, log *zap.Logger,
	actor domain.Actor, kind domain.EntityKind, id uuid.UUID) error {
	err := guard.CanDelete(ctx, kind, id)
	if err != nil && apperror.IsKind(err, apperror.KindConflict) {
		m.DeletionDenied(string(kind))
		log.Info("deletion refused",
			zap.String("entity", string(kind)),
			zap.String("id", id.String()),
			zap.String("actor_id", actor.ID.String()))
	}
	return err
}
