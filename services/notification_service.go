package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// Notifier sends in-app notifications. Delivery is fire and forget; callers
// never see a failure.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, kind models.NotificationType)
	NotifyStaff(ctx context.Context, title, message string, kind models.NotificationType)
}

type NotificationService struct {
	notifications repository.NotificationRepository
	admins        repository.AdminRepository
	logger        *zap.Logger
	timeout       time.Duration
	wg            sync.WaitGroup
}

func NewNotificationService(notifications repository.NotificationRepository, admins repository.AdminRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		admins:        admins,
		logger:        logger,
		timeout:       5 * time.Second,
	}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, kind models.NotificationType) {
	s.async(ctx, func(ctx context.Context) error {
		return s.notifications.Create(ctx, &models.Notification{UserID: userID, Title: title, Message: message, Type: kind})
	}, zap.String("user_id", userID.String()), zap.String("type", string(kind)))
}

func (s *NotificationService) NotifyStaff(ctx context.Context, title, message string, kind models.NotificationType) {
	s.async(ctx, func(ctx context.Context) error {
		ids, err := s.admins.StaffUserIDs(ctx)
		if err != nil {
			return err
		}
		batch := make([]*models.Notification, 0, len(ids))
		for _, id := range ids {
			batch = append(batch, &models.Notification{UserID: id, Title: title, Message: message, Type: kind})
		}
		return s.notifications.Create(ctx, batch...)
	}, zap.String("audience", "staff"), zap.String("type", string(kind)))
}

func (s *NotificationService) async(ctx context.Context, fn func(context.Context) error, fields ...zap.Field) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("Failed to store notification", append(fields, zap.Error(err))...)
		}
	}()
}

// Wait blocks until every pending notification has been written.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.Internal("Failed to load notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Notification not found")
		}
		return apperrors.Internal("Failed to update notification", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal("Failed to update notifications", err)
	}
	return n, nil
}
