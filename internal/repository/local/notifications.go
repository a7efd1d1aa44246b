package local

import (
	"context"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/id"
)

const notificationResource = "notification"

type notificationRepository struct {
	store *Store
}

func notificationsKey(owner string) string {
	return notificationsPrefix + owner
}

func loadNotifications(txn *badger.Txn, owner string) ([]*domain.CraftingNotification, error) {
	var notifications []*domain.CraftingNotification
	if err := readSlot(txn, notificationsKey(owner), &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) Add(ctx context.Context, owner string, n *domain.CraftingNotification) error {
	if n.ID == "" {
		nid, err := id.Generate("craft")
		if err != nil {
			return persistenceErr("add notification", err)
		}
		n.ID = nid
	}

	return r.store.update(ctx, "add notification", func(txn *badger.Txn) error {
		notifications, err := loadNotifications(txn, owner)
		if err != nil {
			return err
		}
		notifications = append(notifications, n)
		return writeSlot(txn, notificationsKey(owner), notifications)
	})
}

func (r *notificationRepository) List(ctx context.Context, owner string) ([]*domain.CraftingNotification, error) {
	var notifications []*domain.CraftingNotification
	err := r.store.view(ctx, "list notifications", func(txn *badger.Txn) error {
		var err error
		notifications, err = loadNotifications(txn, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*domain.CraftingNotification{}
	}
	return notifications, nil
}

func (r *notificationRepository) Remove(ctx context.Context, owner, notificationID string) error {
	return r.store.update(ctx, "remove notification", func(txn *badger.Txn) error {
		notifications, err := loadNotifications(txn, owner)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(notifications, func(n *domain.CraftingNotification) bool {
			return n.ID == notificationID
		})
		if i < 0 {
			return &domain.NotFoundError{Resource: notificationResource, ID: notificationID}
		}
		notifications = slices.Delete(notifications, i, i+1)
		if len(notifications) == 0 {
			return txn.Delete([]byte(notificationsKey(owner)))
		}
		return writeSlot(txn, notificationsKey(owner), notifications)
	})
}

func (r *notificationRepository) Owners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.store.view(ctx, "list notification owners", func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(notificationsPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			owners = append(owners, strings.TrimPrefix(key, notificationsPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *notificationRepository) MarkNotified(ctx context.Context, owner string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.update(ctx, "mark notified", func(txn *badger.Txn) error {
		notifications, err := loadNotifications(txn, owner)
		if err != nil {
			return err
		}
		for _, n := range notifications {
			if slices.Contains(ids, n.ID) {
				n.Notified = true
			}
		}
		return writeSlot(txn, notificationsKey(owner), notifications)
	})
}
