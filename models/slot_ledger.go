package models

import (
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// SlotLedgerEntry is the per-(episode, placement type) capacity counter row.
// It is the single source of truth for slot capacity and must always satisfy
// TotalSlots == Available + Reserved + Booked.
type SlotLedgerEntry struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	EpisodeID     uint          `gorm:"not null;uniqueIndex:uk_slot_ledger_episode_placement;index:idx_slot_ledger_episode_id" json:"episode_id"`
	PlacementType PlacementType `gorm:"type:placement_type;not null;uniqueIndex:uk_slot_ledger_episode_placement" json:"placement_type"`
	TotalSlots    int           `gorm:"not null;check:total_slots >= 0" json:"total_slots"`
	Available     int           `gorm:"not null;check:available >= 0" json:"available"`
	Reserved      int           `gorm:"not null;default:0;check:reserved >= 0" json:"reserved"`
	Booked        int           `gorm:"not null;default:0;check:booked >= 0" json:"booked"`
	CreatedAt     time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty"`

	// Relations
	Episode *Episode `gorm:"foreignKey:EpisodeID;references:ID" json:"episode,omitempty"`
}

// TableName returns the table name for the model
func (SlotLedgerEntry) TableName() string {
	return "slot_ledger_entries"
}

// BeforeCreate is called before creating a new record
func (e *SlotLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (e *SlotLedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	e.UpdatedAt = &now
	return nil
}

// Balanced reports whether the counter invariant holds
func (e *SlotLedgerEntry) Balanced() bool {
	return e.TotalSlots == e.Available+e.Reserved+e.Booked
}

// CounterSnapshot captures ledger counters for the change log
type CounterSnapshot struct {
	TotalSlots int `json:"total_slots"`
	Available  int `json:"available"`
	Reserved   int `json:"reserved"`
	Booked     int `json:"booked"`
}

// Snapshot returns the current counters as a CounterSnapshot
func (e *SlotLedgerEntry) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		TotalSlots: e.TotalSlots,
		Available:  e.Available,
		Reserved:   e.Reserved,
		Booked:     e.Booked,
	}
}

// SlotLedgerFilter represents filter criteria for ledger entries
type SlotLedgerFilter struct {
	ID            *uint          `json:"id,omitempty"`
	EpisodeID     *uint          `json:"episode_id,omitempty"`
	PlacementType *PlacementType `json:"placement_type,omitempty"`
	HasAvailable  *bool          `json:"has_available,omitempty"`
}
