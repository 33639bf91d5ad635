package repository

import (
	"context"
	"errors"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// ShowRepositoryImpl implements the ShowRepository interface
type ShowRepositoryImpl struct {
	*BaseRepository[models.Show, models.ShowFilter]
}

// NewShowRepository creates a new show repository
func NewShowRepository(db *gorm.DB) ShowRepository {
	return &ShowRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Show, models.ShowFilter](db),
	}
}

// ByUUID retrieves a show by UUID
func (r *ShowRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Show, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	db := r.getDB(ctx)
	var show models.Show
	err = db.Where("uuid = ?", parsed).Last(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &show, nil
}

// ByFilter retrieves shows based on filter criteria
func (r *ShowRepositoryImpl) ByFilter(ctx context.Context, filter models.ShowFilter, orderBy string, limit, offset int) ([]*models.Show, error) {
	db := r.getDB(ctx)

	var shows []*models.Show
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&shows).Error
	if err != nil {
		return nil, err
	}

	return shows, nil
}

// Count returns the number of shows matching the filter
func (r *ShowRepositoryImpl) Count(ctx context.Context, filter models.ShowFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Show{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any show matching the filter exists
func (r *ShowRepositoryImpl) Exists(ctx context.Context, filter models.ShowFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ShowRepositoryImpl) applyFilter(db *gorm.DB, filter models.ShowFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.OrganizationID != nil {
		db = db.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Network != nil {
		db = db.Where("network = ?", *filter.Network)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
