package models

import (
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Episode represents a scheduled episode whose slots are sold as placements
type Episode struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_episodes_uuid" json:"uuid"`
	ShowID          uint       `gorm:"not null;index:idx_episodes_show_id;uniqueIndex:uk_episodes_show_air_date" json:"show_id"`
	Title           string     `gorm:"size:500" json:"title"`
	AirDate         time.Time  `gorm:"not null;index:idx_episodes_air_date;uniqueIndex:uk_episodes_show_air_date" json:"air_date"`
	DurationSeconds int        `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`

	// Relations
	Show          *Show             `gorm:"foreignKey:ShowID;references:ID" json:"show,omitempty"`
	LedgerEntries []SlotLedgerEntry `gorm:"foreignKey:EpisodeID" json:"ledger_entries,omitempty"`
}

// TableName returns the table name for the model
func (Episode) TableName() string {
	return "episodes"
}

// BeforeCreate is called before creating a new record
func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	e.AirDate = e.AirDate.UTC()
	return nil
}

// BeforeUpdate is called before updating a record
func (e *Episode) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	e.UpdatedAt = &now
	return nil
}

// EpisodeFilter represents filter criteria for episodes
type EpisodeFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	ShowID         *uint      `json:"show_id,omitempty"`
	AirDate        *time.Time `json:"air_date,omitempty"`
	AiringAfter    *time.Time `json:"airing_after,omitempty"`
	AiringBefore   *time.Time `json:"airing_before,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`
	OrganizationID *uint      `json:"organization_id,omitempty"`
}
