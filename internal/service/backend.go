package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultBackendTimeout = 10 * time.Second
	maxReadAttempts       = 3
)

// backend bounds every store call with a timeout. Reads are retried on
// retryable failures; writes run once.
type backend struct {
	timeout      time.Duration
	retryBackoff func() backoff.BackOff
}

func newBackend(timeout time.Duration) backend {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return backend{
		timeout: timeout,
		retryBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = timeout
			return b
		},
	}
}

// write runs fn once under the backend timeout.
func (b backend) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return timeoutErr(ctx, op, fn(ctx))
}

// read runs fn under the backend timeout, retrying up to maxReadAttempts
// times while it fails with a retryable persistence error.
func (b backend) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(b.retryBackoff(), maxReadAttempts-1), ctx)
	err := backoff.Retry(func() error {
		err := b.write(ctx, op, fn)
		if err != nil && !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	return timeoutErr(ctx, op, err)
}

// timeoutErr turns a bare context expiry into a retryable persistence error.
func timeoutErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrFormat) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.PersistenceError{Op: op, Retryable: true, Err: context.DeadlineExceeded}
	}
	if errors.Is(err, context.Canceled) {
		return &domain.PersistenceError{Op: op, Err: err}
	}
	return err
}

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from user-entered text and trims it. Entities
// produced by the sanitizer are decoded so the stored value stays plain text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizeContent(c *domain.BuildContent) {
	c.BuildName = sanitizeText(c.BuildName)
	c.Description = sanitizeText(c.Description)
	c.Guide = sanitizeText(c.Guide)
}

func sanitizePatch(p *domain.BuildPatch) {
	p.BuildName = sanitizePtr(p.BuildName)
	p.Description = sanitizePtr(p.Description)
	p.Guide = sanitizePtr(p.Guide)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	return &clean
}
