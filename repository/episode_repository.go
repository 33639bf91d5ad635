package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// EpisodeRepositoryImpl implements the EpisodeRepository interface
type EpisodeRepositoryImpl struct {
	*BaseRepository[models.Episode, models.EpisodeFilter]
}

// NewEpisodeRepository creates a new episode repository
func NewEpisodeRepository(db *gorm.DB) EpisodeRepository {
	return &EpisodeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Episode, models.EpisodeFilter](db),
	}
}

// ByID retrieves an episode by ID
func (r *EpisodeRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Episode, error) {
	db := r.getDB(ctx)

	var episode models.Episode
	err := db.Preload("Show").Last(&episode, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &episode, nil
}

// ByUUID retrieves an episode by UUID
func (r *EpisodeRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Episode, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.EpisodeFilter{UUID: &parsed}
	episodes, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(episodes) == 0 {
		return nil, nil
	}

	return episodes[0], nil
}

// ByShowAndAirDate retrieves the episode of a show airing on a calendar day
func (r *EpisodeRepositoryImpl) ByShowAndAirDate(ctx context.Context, showID uint, airDate time.Time) (*models.Episode, error) {
	db := r.getDB(ctx)

	day := airDate.UTC().Truncate(24 * time.Hour)

	var episode models.Episode
	err := db.Preload("Show").
		Where("show_id = ? AND air_date >= ? AND air_date < ?", showID, day, day.Add(24*time.Hour)).
		Last(&episode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &episode, nil
}

// ByFilter retrieves episodes based on filter criteria
func (r *EpisodeRepositoryImpl) ByFilter(ctx context.Context, filter models.EpisodeFilter, orderBy string, limit, offset int) ([]*models.Episode, error) {
	db := r.getDB(ctx)

	var episodes []*models.Episode
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

	query = query.Preload("Show")

	err := query.Find(&episodes).Error
	if err != nil {
		return nil, err
	}

	return episodes, nil
}

// Count returns the number of episodes matching the filter
func (r *EpisodeRepositoryImpl) Count(ctx context.Context, filter models.EpisodeFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Episode{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any episode matching the filter exists
func (r *EpisodeRepositoryImpl) Exists(ctx context.Context, filter models.EpisodeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *EpisodeRepositoryImpl) applyFilter(db *gorm.DB, filter models.EpisodeFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.ShowID != nil {
		db = db.Where("show_id = ?", *filter.ShowID)
	}
	if filter.AirDate != nil {
		day := filter.AirDate.UTC().Truncate(24 * time.Hour)
		db = db.Where("air_date >= ? AND air_date < ?", day, day.Add(24*time.Hour))
	}
	if filter.AiringAfter != nil {
		db = db.Where("air_date >= ?", *filter.AiringAfter)
	}
	if filter.AiringBefore != nil {
		db = db.Where("air_date < ?", *filter.AiringBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.OrganizationID != nil {
		db = db.Joins("JOIN shows ON episodes.show_id = shows.id").
			Where("shows.organization_id = ?", *filter.OrganizationID)
	}

	return db
}
