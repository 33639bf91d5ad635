package models

import (
	"encoding/json"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// InventoryChangeLog is the append-only record of every ledger-affecting
// transition, with before/after counter snapshots for audit
type InventoryChangeLog struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	EpisodeID      uint            `gorm:"not null;index:idx_inventory_change_log_episode_id" json:"episode_id"`
	PlacementType  PlacementType   `gorm:"type:placement_type;not null" json:"placement_type"`
	ReservationID  *uint           `gorm:"index:idx_inventory_change_log_reservation_id" json:"reservation_id,omitempty"`
	ChangeType     string          `gorm:"size:64;not null;index:idx_inventory_change_log_change_type" json:"change_type"`
	CountersBefore json.RawMessage `gorm:"type:jsonb" json:"counters_before,omitempty"`
	CountersAfter  json.RawMessage `gorm:"type:jsonb" json:"counters_after,omitempty"`
	ActorID        *string         `gorm:"size:64" json:"actor_id,omitempty"`
	RequestID      *string         `gorm:"size:255" json:"request_id,omitempty"`
	Description    *string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_inventory_change_log_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (InventoryChangeLog) TableName() string {
	return "inventory_change_log"
}

// BeforeCreate is called before creating a new record
func (l *InventoryChangeLog) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Change type constants
const (
	ChangeTypeEntryCreated = "entry_created"
	ChangeTypeHoldCreated  = "hold_created"
	ChangeTypeHoldApproved = "hold_approved"
	ChangeTypeHoldRejected = "hold_rejected"
	ChangeTypeHoldExpired  = "hold_expired"
)

// ChangeLogFilter represents filter criteria for change log queries
type ChangeLogFilter struct {
	ID            *uint
	EpisodeID     *uint
	ReservationID *uint
	ChangeType    *string
	ActorID       *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
