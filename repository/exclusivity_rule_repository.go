package repository

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// ExclusivityRuleRepositoryImpl implements the ExclusivityRuleRepository interface
type ExclusivityRuleRepositoryImpl struct {
	*BaseRepository[models.ExclusivityRule, models.ExclusivityRuleFilter]
}

// NewExclusivityRuleRepository creates a new exclusivity rule repository
func NewExclusivityRuleRepository(db *gorm.DB) ExclusivityRuleRepository {
	return &ExclusivityRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ExclusivityRule, models.ExclusivityRuleFilter](db),
	}
}

// ByUUID retrieves a rule by its UUID
func (r *ExclusivityRuleRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.ExclusivityRule, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.ExclusivityRuleFilter{UUID: &parsed}
	rules, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	return rules[0], nil
}

// FindActiveOverlapping retrieves active rules for the same (show, category,
// level) whose [start_date, end_date] window intersects [start, end]
func (r *ExclusivityRuleRepositoryImpl) FindActiveOverlapping(ctx context.Context, showID uint, category string, level models.ExclusivityLevel, start, end time.Time) ([]*models.ExclusivityRule, error) {
	db := r.getDB(ctx)

	var rules []*models.ExclusivityRule
	err := db.Where("show_id = ? AND category = ? AND level = ? AND is_active = true", showID, category, level).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("start_date ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// SetActive toggles a rule on or off
func (r *ExclusivityRuleRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.ExclusivityRule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves exclusivity rules based on filter criteria
func (r *ExclusivityRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.ExclusivityRuleFilter, orderBy string, limit, offset int) ([]*models.ExclusivityRule, error) {
	db := r.getDB(ctx)

	var rules []*models.ExclusivityRule
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

	err := query.Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// Count returns the number of rules matching the filter
func (r *ExclusivityRuleRepositoryImpl) Count(ctx context.Context, filter models.ExclusivityRuleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ExclusivityRule{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any rule matching the filter exists
func (r *ExclusivityRuleRepositoryImpl) Exists(ctx context.Context, filter models.ExclusivityRuleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ExclusivityRuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.ExclusivityRuleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.ShowID != nil {
		db = db.Where("show_id = ?", *filter.ShowID)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", *filter.Category)
	}
	if filter.Level != nil {
		db = db.Where("level = ?", *filter.Level)
	}
	if filter.AdvertiserID != nil {
		db = db.Where("advertiser_id = ?", *filter.AdvertiserID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ActiveAt != nil {
		db = db.Where("start_date <= ? AND end_date >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}

	return db
}
