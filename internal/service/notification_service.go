package service

import (
	"context"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/dom/wedge-builds/internal/validation"
	"go.uber.org/zap"
)

// NotificationService stores crafting timers. Delivery is done by the
// notify.Scheduler.
type NotificationService struct {
	notifications repository.NotificationRepository
	validator     *validation.Validator
	backend       backend
	logger        *zap.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, timeout time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: notifications,
		validator:     validation.New(nil),
		backend:       newBackend(timeout),
		logger:        logger.Named("notifications"),
	}
}

type AddNotificationInput struct {
	ItemName  string    `json:"itemName"`
	Category  string    `json:"category"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Quantity  int       `json:"quantity"`
}

func (s *NotificationService) Add(ctx context.Context, owner string, in AddNotificationInput) (*domain.CraftingNotification, error) {
	n := &domain.CraftingNotification{
		ItemName:  sanitizeText(in.ItemName),
		Category:  sanitizeText(in.Category),
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Quantity:  in.Quantity,
	}
	if err := s.validator.Notification(n); err != nil {
		return nil, err
	}

	err := s.backend.write(ctx, "add notification", func(ctx context.Context) error {
		return s.notifications.Add(ctx, owner, n)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("crafting timer added",
		zap.String("owner", owner),
		zap.String("notification_id", n.ID),
		zap.Time("end_time", n.EndTime))
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, owner string) ([]*domain.CraftingNotification, error) {
	var list []*domain.CraftingNotification
	err := s.backend.read(ctx, "list notifications", func(ctx context.Context) error {
		var err error
		list, err = s.notifications.List(ctx, owner)
		return err
	})
	return list, err
}

func (s *NotificationService) Remove(ctx context.Context, owner, id string) error {
	return s.backend.write(ctx, "remove notification", func(ctx context.Context) error {
		return s.notifications.Remove(ctx, owner, id)
	})
}
