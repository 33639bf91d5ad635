package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger guard failures. Callers distinguish a failed capacity check from a
// broken caller invariant: the former is routine, the latter must never happen.
var (
	ErrInsufficientCapacity = errors.New("insufficient available capacity")
	ErrLedgerUnderflow      = errors.New("ledger counter underflow")
	ErrLedgerEntryNotFound  = errors.New("slot ledger entry not found")
)

// SlotLedgerRepositoryImpl implements the SlotLedgerRepository interface
type SlotLedgerRepositoryImpl struct {
	*BaseRepository[models.SlotLedgerEntry, models.SlotLedgerFilter]
}

// NewSlotLedgerRepository creates a new slot ledger repository
func NewSlotLedgerRepository(db *gorm.DB) SlotLedgerRepository {
	return &SlotLedgerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SlotLedgerEntry, models.SlotLedgerFilter](db),
	}
}

// ByEpisodeAndPlacement retrieves the counter row for one (episode, placement) key
func (r *SlotLedgerRepositoryImpl) ByEpisodeAndPlacement(ctx context.Context, episodeID uint, placement models.PlacementType) (*models.SlotLedgerEntry, error) {
	db := r.getDB(ctx)

	var entry models.SlotLedgerEntry
	err := db.Where("episode_id = ? AND placement_type = ?", episodeID, placement).
		Last(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// ByEpisodeID retrieves all counter rows for an episode
func (r *SlotLedgerRepositoryImpl) ByEpisodeID(ctx context.Context, episodeID uint) ([]*models.SlotLedgerEntry, error) {
	filter := models.SlotLedgerFilter{EpisodeID: &episodeID}
	return r.ByFilter(ctx, filter, "placement_type ASC", 0, 0)
}

// EnsureEntry idempotently creates the counter row if missing and returns it.
// An existing row is returned unchanged, even if totalSlots differs.
func (r *SlotLedgerRepositoryImpl) EnsureEntry(ctx context.Context, episodeID uint, placement models.PlacementType, totalSlots int) (*models.SlotLedgerEntry, error) {
	db := r.getDB(ctx)

	entry := models.SlotLedgerEntry{
		EpisodeID:     episodeID,
		PlacementType: placement,
		TotalSlots:    totalSlots,
		Available:     totalSlots,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "episode_id"}, {Name: "placement_type"}},
		DoNothing: true,
	}).Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger entry: %w", err)
	}

	// Re-read so the conflict path also returns the persisted row
	existing, err := r.ByEpisodeAndPlacement(ctx, episodeID, placement)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrLedgerEntryNotFound
	}
	return existing, nil
}

// Reserve atomically moves count slots from available to reserved. The guard
// available >= count is part of the UPDATE itself; zero rows affected means
// the check failed and nothing was mutated.
func (r *SlotLedgerRepositoryImpl) Reserve(ctx context.Context, episodeID uint, placement models.PlacementType, count int) error {
	db := r.getDB(ctx)

	res := db.Model(&models.SlotLedgerEntry{}).
		Where("episode_id = ? AND placement_type = ? AND available >= ?", episodeID, placement, count).
		Updates(map[string]any{
			"available":  gorm.Expr("available - ?", count),
			"reserved":   gorm.Expr("reserved + ?", count),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCapacity
	}
	return nil
}

// Confirm atomically moves count slots from reserved to booked. A failed guard
// here means a caller released or double-confirmed and is not recoverable.
func (r *SlotLedgerRepositoryImpl) Confirm(ctx context.Context, episodeID uint, placement models.PlacementType, count int) error {
	db := r.getDB(ctx)

	res := db.Model(&models.SlotLedgerEntry{}).
		Where("episode_id = ? AND placement_type = ? AND reserved >= ?", episodeID, placement, count).
		Updates(map[string]any{
			"reserved":   gorm.Expr("reserved - ?", count),
			"booked":     gorm.Expr("booked + ?", count),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("confirm %d %s slots for episode %d: %w", count, placement, episodeID, ErrLedgerUnderflow)
	}
	return nil
}

// Release atomically returns count slots to available, from reserved or, for
// post-approval cancellations, from booked.
func (r *SlotLedgerRepositoryImpl) Release(ctx context.Context, episodeID uint, placement models.PlacementType, count int, fromBooked bool) error {
	db := r.getDB(ctx)

	source := "reserved"
	updates := map[string]any{
		"available":  gorm.Expr("available + ?", count),
		"reserved":   gorm.Expr("reserved - ?", count),
		"updated_at": utils.UTCNow(),
	}
	if fromBooked {
		source = "booked"
		updates = map[string]any{
			"available":  gorm.Expr("available + ?", count),
			"booked":     gorm.Expr("booked - ?", count),
			"updated_at": utils.UTCNow(),
		}
	}

	res := db.Model(&models.SlotLedgerEntry{}).
		Where(fmt.Sprintf("episode_id = ? AND placement_type = ? AND %s >= ?", source), episodeID, placement, count).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release %d %s slots for episode %d from %s: %w", count, placement, episodeID, source, ErrLedgerUnderflow)
	}
	return nil
}

// ByFilter retrieves ledger entries based on filter criteria
func (r *SlotLedgerRepositoryImpl) ByFilter(ctx context.Context, filter models.SlotLedgerFilter, orderBy string, limit, offset int) ([]*models.SlotLedgerEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.SlotLedgerEntry
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

// Count returns the number of ledger entries matching the filter
func (r *SlotLedgerRepositoryImpl) Count(ctx context.Context, filter models.SlotLedgerFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.SlotLedgerEntry{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any ledger entry matching the filter exists
func (r *SlotLedgerRepositoryImpl) Exists(ctx context.Context, filter models.SlotLedgerFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *SlotLedgerRepositoryImpl) applyFilter(db *gorm.DB, filter models.SlotLedgerFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.EpisodeID != nil {
		db = db.Where("episode_id = ?", *filter.EpisodeID)
	}
	if filter.PlacementType != nil {
		db = db.Where("placement_type = ?", *filter.PlacementType)
	}
	if filter.HasAvailable != nil {
		if *filter.HasAvailable {
			db = db.Where("available > 0")
		} else {
			db = db.Where("available = 0")
		}
	}

	return db
}
