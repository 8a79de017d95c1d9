package processor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/queue"
	"github.com/givecycle/marketplace/pkg/logger"
	"github.com/givecycle/marketplace/pkg/prom"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

// NotificationProcessor consumes committed store events off the stream and
// materializes notification rows for the affected users. Exactly-once per
// event ID is enforced through the idempotency service; event types with no
// recipient are acked and skipped.
type NotificationProcessor struct {
	notificationRepo NotificationRepository
	idempotency      *IdempotencyService
}

func NewNotificationProcessor(notificationRepo NotificationRepository, idempotency *IdempotencyService) *NotificationProcessor {
	return &NotificationProcessor{
		notificationRepo: notificationRepo,
		idempotency:      idempotency,
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification"
}

func (p *NotificationProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.Event
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal event", "error", err)
		prom.IncEventProcessed("unknown", "failed")
		return err // DLQ after max retries
	}

	notification, ok := notificationFor(event)
	if !ok {
		// informational event, nothing to materialize
		return nil
	}

	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, event.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyProcessed):
			return nil // ack, a replayed delivery
		case errors.Is(err, ErrMaxRetriesExceeded):
			logger.Error("giving up on event", "event_id", event.ID, "type", event.Type)
			prom.IncEventProcessed(string(event.Type), "failed")
			return nil // ack so the queue moves it to the DLQ path
		case errors.Is(err, ErrLockAcquireFailed):
			return errors.New("lock held by another consumer")
		}
		return err
	}

	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	if _, err := p.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("failed to write notification", "event_id", event.ID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("failed to mark failure", "event_id", event.ID, "error", markErr)
		}
		prom.IncEventProcessed(string(event.Type), "failed")
		return err
	}

	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		// the row exists, do not retry and double-notify
		logger.Error("failed to mark success", "event_id", event.ID, "error", markErr)
	}

	prom.IncEventProcessed(string(event.Type), "ok")

	logger.Info("notification written",
		"event_id", event.ID,
		"type", event.Type,
		"user_id", notification.UserID)

	return nil
}

// notificationFor maps an event onto the notification its recipient sees.
func notificationFor(event model.Event) (*model.Notification, bool) {
	switch event.Type {
	case model.EventDonationApproved:
		return &model.Notification{
			UserID:      event.OwnerID,
			Kind:        model.NotificationDonationApproved,
			ReferenceID: event.DonationID,
		}, true
	case model.EventDonationRejected:
		return &model.Notification{
			UserID:      event.OwnerID,
			Kind:        model.NotificationDonationRejected,
			ReferenceID: event.DonationID,
		}, true
	case model.EventListingPurchased:
		return &model.Notification{
			UserID:      event.OwnerID,
			Kind:        model.NotificationListingSold,
			ReferenceID: event.ListingID,
		}, true
	}
	return nil, false
}
