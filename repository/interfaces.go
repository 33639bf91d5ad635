// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ShowRepository defines operations for shows
type ShowRepository interface {
	Repository[models.Show, models.ShowFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Show, error)
}

// EpisodeRepository defines operations for episodes
type EpisodeRepository interface {
	Repository[models.Episode, models.EpisodeFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Episode, error)
	ByShowAndAirDate(ctx context.Context, showID uint, airDate time.Time) (*models.Episode, error)
}

// SlotLedgerRepository defines operations for slot ledger counter rows.
// Reserve, Confirm, and Release each execute as a single conditional UPDATE
// against the (episode, placement) row; zero rows affected means the guard
// failed and no state changed.
type SlotLedgerRepository interface {
	Repository[models.SlotLedgerEntry, models.SlotLedgerFilter]
	ByEpisodeAndPlacement(ctx context.Context, episodeID uint, placement models.PlacementType) (*models.SlotLedgerEntry, error)
	ByEpisodeID(ctx context.Context, episodeID uint) ([]*models.SlotLedgerEntry, error)
	EnsureEntry(ctx context.Context, episodeID uint, placement models.PlacementType, totalSlots int) (*models.SlotLedgerEntry, error)
	Reserve(ctx context.Context, episodeID uint, placement models.PlacementType, count int) error
	Confirm(ctx context.Context, episodeID uint, placement models.PlacementType, count int) error
	Release(ctx context.Context, episodeID uint, placement models.PlacementType, count int, fromBooked bool) error
}

// ReservationRepository defines operations for reservations
type ReservationRepository interface {
	Repository[models.Reservation, models.ReservationFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Reservation, error)
	ByOrderID(ctx context.Context, orderID string) ([]*models.Reservation, error)
	ByEpisodeID(ctx context.Context, episodeID uint) ([]*models.Reservation, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Reservation, error)
	CountPendingByOrder(ctx context.Context, orderID string) (int64, error)
	Update(ctx context.Context, reservation models.Reservation) error
	MarkTerminalIfReserved(ctx context.Context, id uint, status models.ReservationStatus, fields map[string]any) (bool, error)
}

// ExclusivityRuleRepository defines operations for exclusivity rules
type ExclusivityRuleRepository interface {
	Repository[models.ExclusivityRule, models.ExclusivityRuleFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ExclusivityRule, error)
	FindActiveOverlapping(ctx context.Context, showID uint, category string, level models.ExclusivityLevel, start, end time.Time) ([]*models.ExclusivityRule, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

// ChangeLogRepository defines operations for the append-only inventory change log
type ChangeLogRepository interface {
	Repository[models.InventoryChangeLog, models.ChangeLogFilter]
	ListByEpisode(ctx context.Context, episodeID uint, limit, offset int) ([]*models.InventoryChangeLog, error)
	ListByReservation(ctx context.Context, reservationID uint) ([]*models.InventoryChangeLog, error)
}
