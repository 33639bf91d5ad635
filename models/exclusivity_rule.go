package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExclusivityLevel represents the scope at which a category exclusivity applies
type ExclusivityLevel string

const (
	ExclusivityLevelEpisode ExclusivityLevel = "episode"
	ExclusivityLevelShow    ExclusivityLevel = "show"
	ExclusivityLevelNetwork ExclusivityLevel = "network"
)

// String returns the string representation of the level
func (l ExclusivityLevel) String() string {
	return string(l)
}

// Valid checks if the level is valid
func (l ExclusivityLevel) Valid() bool {
	switch l {
	case ExclusivityLevelEpisode, ExclusivityLevelShow, ExclusivityLevelNetwork:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ExclusivityLevel
func (l *ExclusivityLevel) Scan(value any) error {
	if value == nil {
		*l = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*l = ExclusivityLevel(v)
	case []byte:
		*l = ExclusivityLevel(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ExclusivityLevel", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ExclusivityLevel
func (l ExclusivityLevel) Value() (driver.Value, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid ExclusivityLevel: %s", l)
	}
	return string(l), nil
}

// ExclusivityRule is a time-bounded restriction preventing competing advertisers
// in the same category from co-occurring at a given scope
type ExclusivityRule struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_exclusivity_rules_uuid" json:"uuid"`
	ShowID       uint             `gorm:"not null;index:idx_exclusivity_rules_show_id" json:"show_id"`
	Category     string           `gorm:"size:128;not null;index:idx_exclusivity_rules_category" json:"category"`
	Level        ExclusivityLevel `gorm:"type:exclusivity_level;not null;default:'show'" json:"level"`
	AdvertiserID *string          `gorm:"size:64" json:"advertiser_id,omitempty"`
	CampaignID   *string          `gorm:"size:64" json:"campaign_id,omitempty"`
	StartDate    time.Time        `gorm:"not null" json:"start_date"`
	EndDate      time.Time        `gorm:"not null" json:"end_date"`
	IsActive     *bool            `gorm:"default:true;index:idx_exclusivity_rules_is_active" json:"is_active"`
	CreatedBy    string           `gorm:"size:64;not null" json:"created_by"`
	CreatedAt    time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`

	// Relations
	Show *Show `gorm:"foreignKey:ShowID;references:ID" json:"show,omitempty"`
}

// TableName returns the table name for the model
func (ExclusivityRule) TableName() string {
	return "exclusivity_rules"
}

// BeforeCreate is called before creating a new record
func (r *ExclusivityRule) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Level == "" {
		r.Level = ExclusivityLevelShow
	}
	if r.IsActive == nil {
		r.IsActive = utils.ToPtr(true)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()
	return nil
}

// BeforeUpdate is called before updating a record
func (r *ExclusivityRule) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// Overlaps reports whether the rule's window intersects [start, end]
func (r *ExclusivityRule) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

// ExclusivityRuleFilter represents filter criteria for exclusivity rules
type ExclusivityRuleFilter struct {
	ID           *uint             `json:"id,omitempty"`
	UUID         *uuid.UUID        `json:"uuid,omitempty"`
	ShowID       *uint             `json:"show_id,omitempty"`
	Category     *string           `json:"category,omitempty"`
	Level        *ExclusivityLevel `json:"level,omitempty"`
	AdvertiserID *string           `json:"advertiser_id,omitempty"`
	IsActive     *bool             `json:"is_active,omitempty"`
	ActiveAt     *time.Time        `json:"active_at,omitempty"`
}
