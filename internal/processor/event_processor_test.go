package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/queue"
)

type fakeNotificationRepo struct {
	created []*model.Notification
	err     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, n)
	return n, nil
}

func eventMessage(t *testing.T, event model.Event) *queue.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &queue.Message{
		ID:        "1-0",
		Data:      data,
		Timestamp: time.Now(),
	}
}

func TestNotificationProcessor_DonationApproved(t *testing.T) {
	repo := &fakeNotificationRepo{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	event := model.Event{
		ID:         "evt-approved-1",
		Type:       model.EventDonationApproved,
		DonationID: 7,
		OwnerID:    3,
		OccurredAt: time.Now().UTC(),
	}

	if err := p.Process(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.UserID != 3 {
		t.Errorf("Expected user 3, got %d", n.UserID)
	}
	if n.Kind != model.NotificationDonationApproved {
		t.Errorf("Expected kind %s, got %s", model.NotificationDonationApproved, n.Kind)
	}
	if n.ReferenceID != 7 {
		t.Errorf("Expected reference 7, got %d", n.ReferenceID)
	}

	processed, err := idem.IsProcessed(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if !processed {
		t.Error("Event should be marked processed")
	}
}

func TestNotificationProcessor_ListingPurchased(t *testing.T) {
	repo := &fakeNotificationRepo{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	event := model.Event{
		ID:        "evt-sold-1",
		Type:      model.EventListingPurchased,
		ListingID: 12,
		OwnerID:   5,
		ActorID:   9,
	}

	if err := p.Process(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(repo.created))
	}
	if repo.created[0].Kind != model.NotificationListingSold {
		t.Errorf("Expected kind %s, got %s", model.NotificationListingSold, repo.created[0].Kind)
	}
	if repo.created[0].ReferenceID != 12 {
		t.Errorf("Expected reference 12, got %d", repo.created[0].ReferenceID)
	}
}

func TestNotificationProcessor_DuplicateDelivery(t *testing.T) {
	repo := &fakeNotificationRepo{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	event := model.Event{
		ID:         "evt-dup-1",
		Type:       model.EventDonationRejected,
		DonationID: 4,
		OwnerID:    2,
	}

	msg := eventMessage(t, event)
	if err := p.Process(context.Background(), msg); err != nil {
		t.Fatalf("First delivery failed: %v", err)
	}
	if err := p.Process(context.Background(), msg); err != nil {
		t.Fatalf("Replayed delivery should ack, got: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("Expected exactly 1 notification after replay, got %d", len(repo.created))
	}
}

func TestNotificationProcessor_InformationalEventSkipped(t *testing.T) {
	repo := &fakeNotificationRepo{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	event := model.Event{
		ID:         "evt-info-1",
		Type:       model.EventDonationSubmitted,
		DonationID: 4,
		OwnerID:    2,
	}

	if err := p.Process(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("Expected no notifications, got %d", len(repo.created))
	}
}

func TestNotificationProcessor_RepoFailureRetries(t *testing.T) {
	repo := &fakeNotificationRepo{err: errors.New("db down")}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	event := model.Event{
		ID:        "evt-fail-1",
		Type:      model.EventListingPurchased,
		ListingID: 1,
		OwnerID:   1,
	}

	msg := eventMessage(t, event)
	if err := p.Process(context.Background(), msg); err == nil {
		t.Fatal("Expected error when notification write fails")
	}

	count, err := idem.GetRetryCount(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetRetryCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected retry count 1, got %d", count)
	}

	// recover and redeliver
	repo.err = nil
	if err := p.Process(context.Background(), msg); err != nil {
		t.Fatalf("Redelivery after recovery failed: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("Expected 1 notification after recovery, got %d", len(repo.created))
	}
}

func TestNotificationProcessor_MalformedPayload(t *testing.T) {
	repo := &fakeNotificationRepo{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	p := NewNotificationProcessor(repo, idem)

	msg := &queue.Message{ID: "1-0", Data: []byte("not json")}
	if err := p.Process(context.Background(), msg); err == nil {
		t.Fatal("Expected error for malformed payload")
	}
	if len(repo.created) != 0 {
		t.Fatalf("Expected no notifications, got %d", len(repo.created))
	}
}
