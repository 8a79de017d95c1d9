package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/repository"
	"github.com/givecycle/marketplace/pkg/logger"
	"github.com/givecycle/marketplace/pkg/prom"
)

type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) (*model.Donation, error)
	GetByID(ctx context.Context, id int64) (*model.Donation, error)
	SetStatus(ctx context.Context, id int64, status model.DonationStatus) (*model.Donation, error)
	List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error)
}

type ListingWriter interface {
	Create(ctx context.Context, listing *model.Listing) (*model.Listing, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConfidenceScorer estimates how likely an uploaded donation is to pass
// review. The score is advisory: it is stored alongside the donation but the
// verdict always comes from a human reviewer.
type ConfidenceScorer interface {
	Score(ctx context.Context, d *model.Donation) (float64, error)
}

// ReviewRequest carries an admin verdict. Price and Credits shape the listing
// created on approval; Credits defaults to the donation's assessed value.
type ReviewRequest struct {
	ReviewerID int64
	DonationID int64
	Decision   model.ReviewDecision
	Price      uint
	Credits    uint
}

type DonationService struct {
	donationRepo DonationRepository
	listingRepo  ListingWriter
	userRepo     UserReader
	scorer       ConfidenceScorer
	emitter      emitter
}

func NewDonationService(
	donationRepo DonationRepository,
	listingRepo ListingWriter,
	userRepo UserReader,
	scorer ConfidenceScorer,
	hub EventPublisher,
	stream EventStream,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		listingRepo:  listingRepo,
		userRepo:     userRepo,
		scorer:       scorer,
		emitter:      emitter{hub: hub, stream: stream},
	}
}

// Submit records an uploaded donation awaiting review.
func (s *DonationService) Submit(ctx context.Context, p model.DonationCreateRequest) (*model.Donation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, errors.New("title is required")
	}

	donor, err := s.userRepo.GetByID(ctx, p.DonorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, fmt.Errorf("load donor: %w", err)
	}
	if donor.Role == model.RoleAdmin {
		return nil, ErrInvalidParticipant
	}

	d := &model.Donation{
		DonorID:  p.DonorID,
		Title:    p.Title,
		Category: p.Category,
		Value:    p.Value,
		Status:   model.DonationStatusUploaded,
	}

	if s.scorer != nil {
		if score, err := s.scorer.Score(ctx, d); err == nil {
			d.AIConfidence = &score
		} else {
			// advisory only, a scoring failure never blocks submission
			logger.Warn("confidence scoring failed", "error", err, "donor_id", p.DonorID)
		}
	}

	created, err := s.donationRepo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	s.emitter.emit(ctx, model.Event{
		Type:       model.EventDonationSubmitted,
		DonationID: created.ID,
		ActorID:    created.DonorID,
	})

	return created, nil
}

// Review settles an uploaded donation with an admin verdict. Approval creates
// the marketplace listing in the same transaction as the status flip, so a
// donation is never approved without its listing. Re-reviewing a settled
// donation returns ErrInvalidState no matter the decision.
func (s *DonationService) Review(ctx context.Context, p ReviewRequest) (*model.Donation, error) {
	if !p.Decision.Valid() {
		return nil, fmt.Errorf("unknown decision %q", p.Decision)
	}

	reviewer, err := s.userRepo.GetByID(ctx, p.ReviewerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, fmt.Errorf("load reviewer: %w", err)
	}
	if !reviewer.Role.CanReview() {
		return nil, ErrPermissionDenied
	}

	status := model.DonationStatusRejected
	if p.Decision == model.DecisionApprove {
		status = model.DonationStatusApproved
	}

	var reviewed *model.Donation
	var listing *model.Listing

	err = s.userRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		d, err := s.donationRepo.SetStatus(ctx, p.DonationID, status)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrDonationNotFound):
				return ErrNotFound
			case errors.Is(err, repository.ErrDonationTerminal):
				return ErrInvalidState
			}
			return fmt.Errorf("set status: %w", err)
		}
		reviewed = d

		if status != model.DonationStatusApproved {
			return nil
		}

		credits := p.Credits
		if credits == 0 {
			credits = d.Value
		}

		l, err := s.listingRepo.Create(ctx, &model.Listing{
			DonationID:  &d.ID,
			OwnerID:     d.DonorID,
			Title:       d.Title,
			Category:    d.Category,
			Price:       p.Price,
			Credits:     credits,
			IsAvailable: true,
		})
		if err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		listing = l

		return nil
	})
	if err != nil {
		return nil, err
	}

	prom.IncDonationReviewed(string(p.Decision))

	eventType := model.EventDonationRejected
	if status == model.DonationStatusApproved {
		eventType = model.EventDonationApproved
	}

	ev := model.Event{
		Type:       eventType,
		DonationID: reviewed.ID,
		ActorID:    p.ReviewerID,
		OwnerID:    reviewed.DonorID,
	}
	if listing != nil {
		ev.ListingID = listing.ID
	}
	s.emitter.emit(ctx, ev)

	if listing != nil {
		s.emitter.emit(ctx, model.Event{
			Type:      model.EventListingCreated,
			ListingID: listing.ID,
			ActorID:   p.ReviewerID,
			OwnerID:   listing.OwnerID,
		})
	}

	return reviewed, nil
}

func (s *DonationService) Get(ctx context.Context, id int64) (*model.Donation, error) {
	d, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDonationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DonationService) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	return s.donationRepo.List(ctx, f)
}
