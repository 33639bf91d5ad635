package repository

import (
	"context"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"gorm.io/gorm"
)

// ChangeLogRepositoryImpl implements the ChangeLogRepository interface
type ChangeLogRepositoryImpl struct {
	*BaseRepository[models.InventoryChangeLog, models.ChangeLogFilter]
}

// NewChangeLogRepository creates a new inventory change log repository
func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &ChangeLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.InventoryChangeLog, models.ChangeLogFilter](db),
	}
}

// ListByEpisode retrieves change log entries for an episode, newest first
func (r *ChangeLogRepositoryImpl) ListByEpisode(ctx context.Context, episodeID uint, limit, offset int) ([]*models.InventoryChangeLog, error) {
	filter := models.ChangeLogFilter{EpisodeID: &episodeID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ListByReservation retrieves change log entries for one reservation
func (r *ChangeLogRepositoryImpl) ListByReservation(ctx context.Context, reservationID uint) ([]*models.InventoryChangeLog, error) {
	filter := models.ChangeLogFilter{ReservationID: &reservationID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// ByFilter retrieves change log entries based on filter criteria
func (r *ChangeLogRepositoryImpl) ByFilter(ctx context.Context, filter models.ChangeLogFilter, orderBy string, limit, offset int) ([]*models.InventoryChangeLog, error) {
	db := r.getDB(ctx)

	var entries []*models.InventoryChangeLog
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

	err := query.Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Count returns the number of change log entries matching the filter
func (r *ChangeLogRepositoryImpl) Count(ctx context.Context, filter models.ChangeLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.InventoryChangeLog{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any change log entry matching the filter exists
func (r *ChangeLogRepositoryImpl) Exists(ctx context.Context, filter models.ChangeLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ChangeLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.ChangeLogFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.EpisodeID != nil {
		db = db.Where("episode_id = ?", *filter.EpisodeID)
	}
	if filter.ReservationID != nil {
		db = db.Where("reservation_id = ?", *filter.ReservationID)
	}
	if filter.ChangeType != nil {
		db = db.Where("change_type = ?", *filter.ChangeType)
	}
	if filter.ActorID != nil {
		db = db.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.RequestID != nil {
		db = db.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
