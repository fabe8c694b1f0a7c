package service

import (
	"context"
	"encoding/json"
	"fmt"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/events"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RealtimePusher delivers a payload to every live connection of a user
type RealtimePusher interface {
	SendToUser(userID uuid.UUID, payload []byte)
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// NotificationEvent is the payload pushed over websockets and NATS
type NotificationEvent struct {
	Event        string               `json:"event"`
	UserID       string               `json:"user_id"`
	Notification NotificationResponse `json:"notification"`
}

type NotificationService interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string) (*NotificationResponse, error)
	List(ctx context.Context, actor domain.Actor, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, actor domain.Actor) (int64, error)
	MarkRead(ctx context.Context, actor domain.Actor, id string) error
	MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	pusher    RealtimePusher
	publisher events.Publisher
	log       *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, pusher RealtimePusher, publisher events.Publisher, log *zap.Logger) NotificationService {
	return &notificationService{repo: repo, pusher: pusher, publisher: publisher, log: log.Named("notifications")}
}

// Notify stores the notification, then fans it out. Delivery failures are logged, not returned.
func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string) (*NotificationResponse, error) {
	n := &model.Notification{UserID: userID, Type: kind, Title: title, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	resp := toNotificationResponse(*n)
	event := NotificationEvent{Event: "notification", UserID: userID.String(), Notification: resp}

	if payload, err := json.Marshal(event); err == nil {
		s.pusher.SendToUser(userID, payload)
	} else {
		s.log.Error("failed to encode notification event", zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.NotificationSubject(kind), event); err != nil {
		s.log.Warn("failed to publish notification", zap.String("type", kind), zap.Error(err))
	}
	return &resp, nil
}

func (s *notificationService) List(ctx context.Context, actor domain.Actor, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	items, total, err := s.repo.ListByUser(ctx, actor.ID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	res := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		res = append(res, toNotificationResponse(n))
	}
	return res, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.ID)
}

func (s *notificationService) owned(ctx context.Context, actor domain.Actor, id string) (*model.Notification, error) {
	nid, err := parseID(id, "de notification")
	if err != nil {
		return nil, err
	}
	n, err := s.repo.GetByID(ctx, nid)
	if err != nil {
		return nil, err
	}
	if n.UserID != actor.ID {
		return nil, apperror.Forbidden("You can only manage your own notifications")
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, n.ID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID)
}

func (s *notificationService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, n.ID)
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(timeLayout),
	}
}

// notifyQuietly is used after a committed change; a failed notification never undoes it
func notifyQuietly(ctx context.Context, notifier NotificationService, log *zap.Logger, userID uuid.UUID, kind, title, message string) {
	if notifier == nil {
		return
	}
	if _, err := notifier.Notify(ctx, userID, kind, title, message); err != nil {
		log.Warn("notification not delivered", zap.String("user_id", userID.String()), zap.String("type", kind), zap.Error(err))
	}
}
