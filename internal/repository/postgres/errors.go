package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/dom/wedge-builds/internal/domain"
	"gorm.io/gorm"
)

// wrapErr converts a gorm error into the domain taxonomy. A missing row
// becomes a NotFoundError for resource/id.
func wrapErr(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return &domain.PersistenceError{Op: op, Retryable: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
