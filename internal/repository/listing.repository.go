package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/pkg/pg"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrListingUnavailable is returned when the availability flip matches no
	// row: the listing was taken by an earlier purchase.
	ErrListingUnavailable = errors.New("listing no longer available")
)

type ListingRepository struct {
	*pg.DB
}

func NewListingRepository(db *pg.DB) *ListingRepository {
	return &ListingRepository{
		db,
	}
}

func (r *ListingRepository) Create(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	entity := toListingEntity(listing)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toListingModel(entity), nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var entity ListingEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	return toListingModel(&entity), nil
}

// MarkUnavailable consumes a listing. The conditional single-statement flip
// guarantees at most one purchase ever wins: the loser's update matches zero
// rows and the caller surfaces the lost race.
func (r *ListingRepository) MarkUnavailable(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ListingEntity{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var entity ListingEntity
		err := r.Write(ctx).WithContext(ctx).
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		return ErrListingUnavailable
	}

	return nil
}

// ListAvailable never returns consumed listings; a listing mid-purchase is
// either still available or already flipped, there is no intermediate state.
func (r *ListingRepository) ListAvailable(ctx context.Context, f model.ListingFilter) ([]*model.Listing, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ListingEntity{}).
		Where("is_available = ?", true)

	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.Category != nil && *f.Category != "" {
		q = q.Where("category = ?", *f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// insertion order by default, most-recent-first for dashboards
	order := "id"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ListingEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toListingModels(entities), total, nil
}
