package dto

import (
	"time"
)

// CreateHoldRequest represents the request to place a hold on episode inventory
type CreateHoldRequest struct {
	EpisodeUUID   string  `json:"episode_uuid" validate:"required,uuid4"`
	PlacementType string  `json:"placement_type" validate:"required,oneof=pre_roll mid_roll post_roll"`
	SlotNumber    *int    `json:"slot_number,omitempty" validate:"omitempty,min=1"`
	SlotCount     *int    `json:"slot_count,omitempty" validate:"omitempty,min=1,max=10"`
	OrderID       string  `json:"order_id" validate:"required,max=64"`
	ScheduleID    *string `json:"schedule_id,omitempty" validate:"omitempty,max=64"`
	CampaignID    *string `json:"campaign_id,omitempty" validate:"omitempty,max=64"`
	AdvertiserID  *string `json:"advertiser_id,omitempty" validate:"omitempty,max=64"`
	Category      *string `json:"category,omitempty" validate:"omitempty,max=128"`
	HoldType      *string `json:"hold_type,omitempty" validate:"omitempty,oneof=soft hard"`
	TTLHours      *int    `json:"ttl_hours,omitempty" validate:"omitempty,min=1,max=336"`
}

// CreateHoldResponse represents the response to a successful hold
type CreateHoldResponse struct {
	Message     string    `json:"message"`
	Reservation HoldDTO   `json:"reservation"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ApproveHoldRequest represents the request to approve a pending hold
type ApproveHoldRequest struct {
	ReservationUUID string `json:"reservation_uuid" validate:"required,uuid4"`
}

// ApproveHoldResponse represents the response to an approval
type ApproveHoldResponse struct {
	Message            string  `json:"message"`
	Reservation        HoldDTO `json:"reservation"`
	OrderFullyApproved bool    `json:"order_fully_approved"`
}

// RejectHoldRequest represents the request to reject a pending hold
type RejectHoldRequest struct {
	ReservationUUID string  `json:"reservation_uuid" validate:"required,uuid4"`
	Reason          *string `json:"reason,omitempty" validate:"omitempty,max=512"`
}

// RejectHoldResponse represents the response to a rejection
type RejectHoldResponse struct {
	Message     string  `json:"message"`
	Reservation HoldDTO `json:"reservation"`
}

// ListHoldsRequest represents filter criteria for listing reservations
type ListHoldsRequest struct {
	EpisodeUUID    *string `query:"episode_uuid" validate:"omitempty,uuid4"`
	OrderID        *string `query:"order_id" validate:"omitempty,max=64"`
	CampaignID     *string `query:"campaign_id" validate:"omitempty,max=64"`
	Status         *string `query:"status" validate:"omitempty,oneof=reserved confirmed released expired"`
	ApprovalStatus *string `query:"approval_status" validate:"omitempty,oneof=pending approved rejected"`
	Page           int     `query:"page" validate:"omitempty,min=1"`
	PageSize       int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListHoldsResponse represents a page of reservations
type ListHoldsResponse struct {
	Message    string     `json:"message"`
	Items      []HoldDTO  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// HoldDTO represents a reservation in responses
type HoldDTO struct {
	UUID            string     `json:"uuid"`
	EpisodeUUID     string     `json:"episode_uuid"`
	PlacementType   string     `json:"placement_type"`
	SlotNumber      *int       `json:"slot_number,omitempty"`
	SlotCount       int        `json:"slot_count"`
	OrderID         string     `json:"order_id"`
	ScheduleID      *string    `json:"schedule_id,omitempty"`
	CampaignID      *string    `json:"campaign_id,omitempty"`
	AdvertiserID    *string    `json:"advertiser_id,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Status          string     `json:"status"`
	StatusDisplay   string     `json:"status_display"`
	HoldType        string     `json:"hold_type"`
	ApprovalStatus  string     `json:"approval_status"`
	ReservedBy      string     `json:"reserved_by"`
	ReservedAt      time.Time  `json:"reserved_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

// GetLedgerRequest represents the request to read an episode's slot counters
type GetLedgerRequest struct {
	EpisodeUUID string `json:"-"`
}

// LedgerEntryDTO represents the slot counters for one placement position
type LedgerEntryDTO struct {
	PlacementType string `json:"placement_type"`
	TotalSlots    int    `json:"total_slots"`
	Available     int    `json:"available"`
	Reserved      int    `json:"reserved"`
	Booked        int    `json:"booked"`
}

// GetLedgerResponse represents the full ledger for an episode
type GetLedgerResponse struct {
	Message     string           `json:"message"`
	EpisodeUUID string           `json:"episode_uuid"`
	Entries     []LedgerEntryDTO `json:"entries"`
}
