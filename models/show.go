package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpotConfigRule defines slot counts for episodes up to a duration threshold.
// A zero MaxDurationSeconds marks the catch-all rule.
type SpotConfigRule struct {
	MaxDurationSeconds int `json:"max_duration_seconds"`
	PreRollSlots       int `json:"pre_roll_slots"`
	MidRollSlots       int `json:"mid_roll_slots"`
	PostRollSlots      int `json:"post_roll_slots"`
}

// SpotConfiguration is the ordered list of duration-threshold rules that derive
// per-episode slot capacity from episode length.
type SpotConfiguration []SpotConfigRule

// Value implements the driver.Valuer interface for SpotConfiguration
func (s SpotConfiguration) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for SpotConfiguration
func (s *SpotConfiguration) Scan(value any) error {
	if value == nil {
		*s = SpotConfiguration{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SpotConfiguration", value)
	}

	return json.Unmarshal(bytes, s)
}

// SlotsFor returns the slot count for a placement given an episode duration.
// Rules are evaluated in order; the first rule whose threshold covers the
// duration wins, and a rule with MaxDurationSeconds == 0 matches everything.
func (s SpotConfiguration) SlotsFor(durationSeconds int, placement PlacementType) int {
	for _, rule := range s {
		if rule.MaxDurationSeconds != 0 && durationSeconds > rule.MaxDurationSeconds {
			continue
		}
		switch placement {
		case PlacementPreRoll:
			return rule.PreRollSlots
		case PlacementMidRoll:
			return rule.MidRollSlots
		case PlacementPostRoll:
			return rule.PostRollSlots
		default:
			return 0
		}
	}
	return 0
}

// DefaultSpotConfiguration is applied to shows created without explicit rules:
// short episodes carry a single mid-roll, longer ones two.
var DefaultSpotConfiguration = SpotConfiguration{
	{MaxDurationSeconds: 1200, PreRollSlots: 1, MidRollSlots: 1, PostRollSlots: 1},
	{MaxDurationSeconds: 0, PreRollSlots: 1, MidRollSlots: 2, PostRollSlots: 1},
}

// Show represents a podcast program whose episodes carry sellable ad inventory
type Show struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_shows_uuid" json:"uuid"`
	OrganizationID    uint              `gorm:"not null;index:idx_shows_organization_id" json:"organization_id"`
	Name              string            `gorm:"size:255;not null" json:"name"`
	Network           *string           `gorm:"size:255;index:idx_shows_network" json:"network,omitempty"`
	SpotConfiguration SpotConfiguration `gorm:"type:jsonb;not null" json:"spot_configuration"`
	IsActive          *bool             `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         *time.Time        `json:"updated_at,omitempty"`

	// Relations
	Episodes []Episode `gorm:"foreignKey:ShowID" json:"episodes,omitempty"`
}

// TableName returns the table name for the model
func (Show) TableName() string {
	return "shows"
}

// BeforeCreate is called before creating a new record
func (s *Show) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if len(s.SpotConfiguration) == 0 {
		s.SpotConfiguration = DefaultSpotConfiguration
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *Show) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return nil
}

// ShowFilter represents filter criteria for shows
type ShowFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	OrganizationID *uint      `json:"organization_id,omitempty"`
	Name           *string    `json:"name,omitempty"`
	Network        *string    `json:"network,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}
