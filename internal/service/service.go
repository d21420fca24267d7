package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
)

const publishTimeout = 3 * time.Second

func utcNow(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// publish never fails the caller; a lost event is logged.
func publish(ctx context.Context, pub events.Publisher, topic, key, eventType string, payload any, at time.Time) {
	if pub == nil {
		return
	}
	l := logging.FromContext(ctx)

	ev, err := events.NewEnvelope(eventType, payload, at)
	if err != nil {
		l.Error("event_encode_failed", "type", eventType, "error", err)
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(pctx, topic, key, ev); err != nil {
		l.Warn("event_publish_failed", "topic", topic, "type", eventType, "error", err)
	}
}

// storeErr maps repository failures: missing rows become NotFound, the rest Persistence.
// Errors already in the taxonomy pass through.
func storeErr(l *slog.Logger, op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	for _, known := range []error{apperr.ErrDomain, apperr.ErrValidation, apperr.ErrAuth, apperr.ErrNotFound, apperr.ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	l.Error(op+"_error", "status", 500, "error", err)
	return apperr.Persistence(op, err)
}
