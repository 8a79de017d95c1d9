package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/givecycle/marketplace/internal/gateways"
	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/repository"
	"github.com/givecycle/marketplace/pkg/logger"
	"github.com/givecycle/marketplace/pkg/prom"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) (*model.Listing, error)
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	MarkUnavailable(ctx context.Context, id int64) error
	ListAvailable(ctx context.Context, f model.ListingFilter) ([]*model.Listing, int64, error)
}

type BalanceRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	AddBalance(ctx context.Context, userID int64, amount uint) error
	DeductBalance(ctx context.Context, userID int64, amount uint) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type LedgerWriter interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
}

// MarketplaceService owns the listing catalog and the purchase path.
type MarketplaceService struct {
	listingRepo ListingRepository
	userRepo    BalanceRepository
	ledgerRepo  LedgerWriter
	payments    gateway.PaymentGateway
	currency    string
	locks       *keyedMutex
	emitter     emitter
}

func NewMarketplaceService(
	listingRepo ListingRepository,
	userRepo BalanceRepository,
	ledgerRepo LedgerWriter,
	payments gateway.PaymentGateway,
	currency string,
	hub EventPublisher,
	stream EventStream,
) *MarketplaceService {
	if currency == "" {
		currency = "USD"
	}
	return &MarketplaceService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		payments:    payments,
		currency:    currency,
		locks:       newKeyedMutex(),
		emitter:     emitter{hub: hub, stream: stream},
	}
}

// CreateListing puts a direct listing on the marketplace, outside the
// donation review pipeline.
func (s *MarketplaceService) CreateListing(ctx context.Context, p model.ListingCreateRequest) (*model.Listing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, errors.New("title is required")
	}

	owner, err := s.userRepo.GetByID(ctx, p.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if !owner.Role.CanList() {
		return nil, ErrPermissionDenied
	}

	created, err := s.listingRepo.Create(ctx, &model.Listing{
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Category:    p.Category,
		Price:       p.Price,
		Credits:     p.Credits,
		IsAvailable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.emitter.emit(ctx, model.Event{
		Type:      model.EventListingCreated,
		ListingID: created.ID,
		ActorID:   created.OwnerID,
		OwnerID:   created.OwnerID,
	})

	return created, nil
}

func (s *MarketplaceService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *MarketplaceService) ListAvailable(ctx context.Context, f model.ListingFilter) ([]*model.Listing, int64, error) {
	return s.listingRepo.ListAvailable(ctx, f)
}

// Purchase settles a listing for the buyer: free listings are collected,
// priced ones are charged through the payment provider first. The listing
// flip, the owner's credit and the ledger entry commit in one transaction;
// a payment decline leaves the listing untouched and available.
//
// The per-listing lock makes validation and commit one critical section in
// this process. The conditional flip in MarkUnavailable still guards against
// a concurrent purchase from another process: whoever flips first wins, the
// loser gets ErrAlreadyUnavailable.
func (s *MarketplaceService) Purchase(ctx context.Context, buyerID, listingID int64) (*model.Transaction, error) {
	s.locks.Lock(listingID)
	defer s.locks.Unlock(listingID)

	started := time.Now()

	buyer, err := s.userRepo.GetByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	if !buyer.Role.CanPurchase() {
		return nil, ErrPermissionDenied
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if !listing.IsAvailable {
		return nil, ErrAlreadyUnavailable
	}
	if listing.OwnerID == buyerID {
		return nil, ErrInvalidParticipant
	}

	if !listing.IsCollection() {
		if s.payments == nil {
			return nil, ErrPaymentFailed
		}

		resp, err := s.payments.Authorize(ctx, &gateway.ChargeRequest{
			ReferenceID: fmt.Sprintf("purchase-%d-%s", listingID, uuid.NewString()),
			BuyerID:     buyerID,
			ListingID:   listingID,
			Amount:      listing.Price,
			Currency:    s.currency,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		if resp.Status != gateway.StatusAuthorized {
			logger.Warn("charge declined",
				"listing_id", listingID,
				"buyer_id", buyerID,
				"error_code", resp.ErrorCode)
			return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, resp.ErrorCode)
		}
	}

	var settled *model.Transaction

	err = s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.listingRepo.MarkUnavailable(ctx, listingID); err != nil {
			switch {
			case errors.Is(err, repository.ErrListingUnavailable):
				return ErrAlreadyUnavailable
			case errors.Is(err, repository.ErrListingNotFound):
				return ErrNotFound
			}
			return fmt.Errorf("mark unavailable: %w", err)
		}

		if err := s.userRepo.AddBalance(ctx, listing.OwnerID, listing.Credits); err != nil {
			return fmt.Errorf("credit owner: %w", err)
		}

		txn, err := s.ledgerRepo.Create(ctx, &model.Transaction{
			AccountID:      listing.OwnerID,
			CounterpartyID: &buyerID,
			ListingID:      &listingID,
			DonationID:     listing.DonationID,
			Amount:         listing.Credits,
			Type:           model.TransactionTypeCredit,
		})
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		settled = txn

		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := "sale"
	if listing.IsCollection() {
		kind = "collection"
	}
	prom.AddPurchaseSettledDuration(time.Since(started).Seconds(), kind)

	s.emitter.emit(ctx, model.Event{
		Type:          model.EventListingPurchased,
		ListingID:     listingID,
		TransactionID: settled.ID,
		ActorID:       buyerID,
		OwnerID:       listing.OwnerID,
		Amount:        listing.Credits,
	})

	return settled, nil
}
