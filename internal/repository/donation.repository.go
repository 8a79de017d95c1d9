package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/pkg/pg"
)

var (
	ErrDonationNotFound = errors.New("donation not found")
	// ErrDonationTerminal is returned when a status change targets a donation
	// that already left the uploaded state.
	ErrDonationTerminal = errors.New("donation already reviewed")
)

type DonationRepository struct {
	*pg.DB
}

func NewDonationRepository(db *pg.DB) *DonationRepository {
	return &DonationRepository{
		db,
	}
}

func (r *DonationRepository) Create(ctx context.Context, donation *model.Donation) (*model.Donation, error) {
	entity := toDonationEntity(donation)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDonationModel(entity), nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	var entity DonationEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}

	return toDonationModel(&entity), nil
}

// SetStatus flips an uploaded donation to a terminal status. The conditional
// WHERE is the idempotency guard: a donation can leave the uploaded state
// exactly once, no matter how many reviewers race.
func (r *DonationRepository) SetStatus(ctx context.Context, id int64, status model.DonationStatus) (*model.Donation, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&DonationEntity{}).
		Where("id = ? AND status = ?", id, string(model.DonationStatusUploaded)).
		Update("status", string(status))

	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// distinguish missing from already-terminal
		var entity DonationEntity
		err := r.Write(ctx).WithContext(ctx).
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDonationNotFound
			}
			return nil, err
		}
		return nil, ErrDonationTerminal
	}

	return r.GetByID(ctx, id)
}

func (r *DonationRepository) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&DonationEntity{})

	if f.DonorID != nil {
		q = q.Where("donor_id = ?", *f.DonorID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.Category != nil && *f.Category != "" {
		q = q.Where("category = ?", *f.Category)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
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

	var entities []*DonationEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toDonationModels(entities), total, nil
}
