package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// ReservationRepositoryImpl implements the ReservationRepository interface
type ReservationRepositoryImpl struct {
	*BaseRepository[models.Reservation, models.ReservationFilter]
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &ReservationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Reservation, models.ReservationFilter](db),
	}
}

// ByID retrieves a reservation by ID
func (r *ReservationRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Reservation, error) {
	db := r.getDB(ctx)

	var reservation models.Reservation
	err := db.Preload("Episode").
		Preload("Episode.Show").
		Last(&reservation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &reservation, nil
}

// ByUUID retrieves a reservation by UUID
func (r *ReservationRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Reservation, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.ReservationFilter{UUID: &parsed}
	reservations, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(reservations) == 0 {
		return nil, nil
	}

	return reservations[0], nil
}

// ByOrderID retrieves all reservations owned by a sales order
func (r *ReservationRepositoryImpl) ByOrderID(ctx context.Context, orderID string) ([]*models.Reservation, error) {
	filter := models.ReservationFilter{OrderID: &orderID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// ByEpisodeID retrieves all reservations against an episode
func (r *ReservationRepositoryImpl) ByEpisodeID(ctx context.Context, episodeID uint) ([]*models.Reservation, error) {
	filter := models.ReservationFilter{EpisodeID: &episodeID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// FindExpired retrieves active holds whose deadline passed before now
func (r *ReservationRepositoryImpl) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Reservation, error) {
	status := models.ReservationStatusReserved
	filter := models.ReservationFilter{
		Status:        &status,
		ExpiresBefore: &now,
	}
	return r.ByFilter(ctx, filter, "expires_at ASC", limit, 0)
}

// CountPendingByOrder counts holds on an order still awaiting a decision
func (r *ReservationRepositoryImpl) CountPendingByOrder(ctx context.Context, orderID string) (int64, error) {
	status := models.ReservationStatusReserved
	approval := models.ApprovalStatusPending
	filter := models.ReservationFilter{
		OrderID:        &orderID,
		Status:         &status,
		ApprovalStatus: &approval,
	}
	return r.Count(ctx, filter)
}

// Update updates a reservation
func (r *ReservationRepositoryImpl) Update(ctx context.Context, reservation models.Reservation) error {
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

	now := utils.UTCNow()
	reservation.UpdatedAt = &now

	err = db.Save(&reservation).Error
	if err != nil {
		return err
	}

	return nil
}

// MarkTerminalIfReserved moves a reservation out of the reserved state with a
// check-and-set UPDATE guarded by status = 'reserved'. The boolean result
// reports whether this caller won the transition; a false result means another
// actor already resolved the hold and the ledger must not be touched again.
func (r *ReservationRepositoryImpl) MarkTerminalIfReserved(ctx context.Context, id uint, status models.ReservationStatus, fields map[string]any) (bool, error) {
	db := r.getDB(ctx)

	updates := map[string]any{
		"status":     status,
		"updated_at": utils.UTCNow(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	res := db.Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.ReservationStatusReserved).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// ByFilter retrieves reservations based on filter criteria
func (r *ReservationRepositoryImpl) ByFilter(ctx context.Context, filter models.ReservationFilter, orderBy string, limit, offset int) ([]*models.Reservation, error) {
	db := r.getDB(ctx)

	var reservations []*models.Reservation
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

	query = query.Preload("Episode")

	err := query.Find(&reservations).Error
	if err != nil {
		return nil, err
	}

	return reservations, nil
}

// Count returns the number of reservations matching the filter
func (r *ReservationRepositoryImpl) Count(ctx context.Context, filter models.ReservationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Reservation{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any reservation matching the filter exists
func (r *ReservationRepositoryImpl) Exists(ctx context.Context, filter models.ReservationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ReservationRepositoryImpl) applyFilter(db *gorm.DB, filter models.ReservationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.EpisodeID != nil {
		db = db.Where("episode_id = ?", *filter.EpisodeID)
	}
	if filter.PlacementType != nil {
		db = db.Where("placement_type = ?", *filter.PlacementType)
	}
	if filter.OrderID != nil {
		db = db.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ScheduleID != nil {
		db = db.Where("schedule_id = ?", *filter.ScheduleID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.AdvertiserID != nil {
		db = db.Where("advertiser_id = ?", *filter.AdvertiserID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ApprovalStatus != nil {
		db = db.Where("approval_status = ?", *filter.ApprovalStatus)
	}
	if filter.ReservedBy != nil {
		db = db.Where("reserved_by = ?", *filter.ReservedBy)
	}
	if filter.ExpiresBefore != nil {
		db = db.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	if filter.ExpiresAfter != nil {
		db = db.Where("expires_at >= ?", *filter.ExpiresAfter)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
