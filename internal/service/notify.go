package service

import (
	"context"
	"log/slog"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
)

// Notification titles.
const (
	TitleClaimSubmitted = "New Claim Submitted"
	TitleClaimUpdated   = "Claim Status Updated"
)

// notifyUsers writes one copy of n per recipient and returns the event to
// broadcast once the surrounding transaction commits.
func (s *Service) notifyUsers(ctx context.Context, tx db.DBTX, userIDs []string, n model.Notification) (notify.Event, error) {
	now := s.now()
	for _, id := range userIDs {
		row := n
		row.UserID = id
		if err := store.CreateNotification(ctx, tx, &row, now); err != nil {
			return notify.Event{}, err
		}
	}
	return notify.Event{Title: n.Title, Message: n.Message, Type: n.Type}, nil
}

// notifyStaff sends n to every staff member.
func (s *Service) notifyStaff(ctx context.Context, tx db.DBTX, n model.Notification) (notify.Event, error) {
	staff, err := store.ListUserIDsByRole(ctx, tx, model.RoleStaff)
	if err != nil {
		return notify.Event{}, err
	}
	return s.notifyUsers(ctx, tx, staff, n)
}

func (s *Service) publish(ev notify.Event) {
	s.pub.Publish(ev)
	slog.Debug("event published", "title", ev.Title, "type", ev.Type)
}

// ListNotifications returns the caller's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, caller model.Caller, unreadOnly bool) ([]model.Notification, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	return store.ListNotifications(ctx, s.db, caller.ID, unreadOnly)
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, caller model.Caller, id int64) error {
	if err := requireAuth(caller); err != nil {
		return err
	}

	n, err := store.GetNotification(ctx, s.db, id)
	if err != nil {
		return err
	}
	if n == nil {
		return model.NotFound("notification")
	}
	if n.UserID != caller.ID {
		return model.ErrForbidden
	}
	if n.Read {
		return nil
	}
	return store.MarkNotificationRead(ctx, s.db, id)
}

// MarkAllNotificationsRead flags every unread notification of the caller as
// read and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller model.Caller) (int64, error) {
	if err := requireAuth(caller); err != nil {
		return 0, err
	}
	return store.MarkAllNotificationsRead(ctx, s.db, caller.ID)
}
