package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationStatus represents the lifecycle state of a hold
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// String returns the string representation of the status
func (s ReservationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusConfirmed,
		ReservationStatusReleased, ReservationStatusExpired:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ReservationStatus
func (s *ReservationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ReservationStatus(v)
	case []byte:
		*s = ReservationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ReservationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ReservationStatus
func (s ReservationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ReservationStatus: %s", s)
	}
	return string(s), nil
}

// ApprovalStatus represents the approval decision state of a hold
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// String returns the string representation of the approval status
func (s ApprovalStatus) String() string {
	return string(s)
}

// Valid checks if the approval status is valid
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ApprovalStatus
func (s *ApprovalStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ApprovalStatus(v)
	case []byte:
		*s = ApprovalStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ApprovalStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ApprovalStatus
func (s ApprovalStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ApprovalStatus: %s", s)
	}
	return string(s), nil
}

// HoldType distinguishes soft (expiring) holds from hard commitments
type HoldType string

const (
	HoldTypeSoft HoldType = "soft"
	HoldTypeHard HoldType = "hard"
)

// String returns the string representation of the hold type
func (h HoldType) String() string {
	return string(h)
}

// Valid checks if the hold type is valid
func (h HoldType) Valid() bool {
	return h == HoldTypeSoft || h == HoldTypeHard
}

// Scan implements the sql.Scanner interface for HoldType
func (h *HoldType) Scan(value any) error {
	if value == nil {
		*h = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*h = HoldType(v)
	case []byte:
		*h = HoldType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into HoldType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for HoldType
func (h HoldType) Value() (driver.Value, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid HoldType: %s", h)
	}
	return string(h), nil
}

// Reservation represents a hold or booking of one or more slots
type Reservation struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_reservations_uuid" json:"uuid"`
	EpisodeID     uint              `gorm:"not null;index:idx_reservations_episode_id" json:"episode_id"`
	PlacementType PlacementType     `gorm:"type:placement_type;not null" json:"placement_type"`
	SlotNumber    *int              `json:"slot_number,omitempty"`
	SlotCount     int               `gorm:"not null;default:1" json:"slot_count"`
	ScheduleID    *string           `gorm:"size:64;index:idx_reservations_schedule_id" json:"schedule_id,omitempty"`
	OrderID       string            `gorm:"size:64;not null;index:idx_reservations_order_id" json:"order_id"`
	CampaignID    *string           `gorm:"size:64" json:"campaign_id,omitempty"`
	AdvertiserID  *string           `gorm:"size:64" json:"advertiser_id,omitempty"`
	Category      *string           `gorm:"size:128" json:"category,omitempty"`
	Status        ReservationStatus `gorm:"type:reservation_status;not null;default:'reserved';index:idx_reservations_status" json:"status"`
	HoldType      HoldType          `gorm:"type:hold_type;not null;default:'soft'" json:"hold_type"`
	ReservedBy    string            `gorm:"size:64;not null" json:"reserved_by"`
	ReservedAt    time.Time         `gorm:"not null" json:"reserved_at"`
	ExpiresAt     time.Time         `gorm:"not null;index:idx_reservations_expires_at" json:"expires_at"`

	ApprovalStatus  ApprovalStatus `gorm:"type:approval_status;not null;default:'pending';index:idx_reservations_approval_status" json:"approval_status"`
	ApprovedBy      *string        `gorm:"size:64" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	RejectionReason *string        `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Episode *Episode `gorm:"foreignKey:EpisodeID;references:ID" json:"episode,omitempty"`
}

// TableName returns the table name for the model
func (Reservation) TableName() string {
	return "reservations"
}

// BeforeCreate is called before creating a new record
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReservationStatusReserved
	}
	if r.ApprovalStatus == "" {
		r.ApprovalStatus = ApprovalStatusPending
	}
	if r.HoldType == "" {
		r.HoldType = HoldTypeSoft
	}
	if r.SlotCount == 0 {
		r.SlotCount = 1
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	if r.ReservedAt.IsZero() {
		r.ReservedAt = r.CreatedAt
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *Reservation) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// IsTerminal reports whether the reservation reached a final state
func (r *Reservation) IsTerminal() bool {
	return r.Status != ReservationStatusReserved
}

// IsPendingApproval reports whether the reservation still awaits a decision
func (r *Reservation) IsPendingApproval() bool {
	return r.Status == ReservationStatusReserved && r.ApprovalStatus == ApprovalStatusPending
}

// CanTransitionTo checks if the reservation can transition to the given status
func (r *Reservation) CanTransitionTo(newStatus ReservationStatus) bool {
	switch r.Status {
	case ReservationStatusReserved:
		return newStatus == ReservationStatusConfirmed ||
			newStatus == ReservationStatusReleased ||
			newStatus == ReservationStatusExpired
	default:
		return false
	}
}

// ReservationFilter represents filter criteria for reservations
type ReservationFilter struct {
	ID             *uint              `json:"id,omitempty"`
	UUID           *uuid.UUID         `json:"uuid,omitempty"`
	EpisodeID      *uint              `json:"episode_id,omitempty"`
	PlacementType  *PlacementType     `json:"placement_type,omitempty"`
	OrderID        *string            `json:"order_id,omitempty"`
	ScheduleID     *string            `json:"schedule_id,omitempty"`
	CampaignID     *string            `json:"campaign_id,omitempty"`
	AdvertiserID   *string            `json:"advertiser_id,omitempty"`
	Status         *ReservationStatus `json:"status,omitempty"`
	ApprovalStatus *ApprovalStatus    `json:"approval_status,omitempty"`
	ReservedBy     *string            `json:"reserved_by,omitempty"`
	ExpiresBefore  *time.Time         `json:"expires_before,omitempty"`
	ExpiresAfter   *time.Time         `json:"expires_after,omitempty"`
	CreatedAfter   *time.Time         `json:"created_after,omitempty"`
	CreatedBefore  *time.Time         `json:"created_before,omitempty"`
}

// GetStatusDisplayName returns a human-readable status name
func (r *Reservation) GetStatusDisplayName() string {
	switch r.Status {
	case ReservationStatusReserved:
		return "Reserved"
	case ReservationStatusConfirmed:
		return "Confirmed"
	case ReservationStatusReleased:
		return "Released"
	case ReservationStatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}
