package dto

import (
	"time"
)

// ScheduleItemRequest represents one slot request inside a schedule binding
type ScheduleItemRequest struct {
	ShowUUID      string  `json:"show_uuid" validate:"required,uuid4"`
	AirDate       string  `json:"air_date" validate:"required,datetime=2006-01-02"`
	PlacementType string  `json:"placement_type" validate:"required,oneof=pre_roll mid_roll post_roll"`
	SlotNumber    *int    `json:"slot_number,omitempty" validate:"omitempty,min=1"`
	SlotCount     *int    `json:"slot_count,omitempty" validate:"omitempty,min=1,max=10"`
	CampaignID    *string `json:"campaign_id,omitempty" validate:"omitempty,max=64"`
	AdvertiserID  *string `json:"advertiser_id,omitempty" validate:"omitempty,max=64"`
	Category      *string `json:"category,omitempty" validate:"omitempty,max=128"`
}

// BindScheduleRequest represents the request to reserve inventory for a whole schedule
type BindScheduleRequest struct {
	ScheduleID string                `json:"schedule_id" validate:"required,max=64"`
	OrderID    string                `json:"order_id" validate:"required,max=64"`
	HoldType   *string               `json:"hold_type,omitempty" validate:"omitempty,oneof=soft hard"`
	TTLHours   *int                  `json:"ttl_hours,omitempty" validate:"omitempty,min=1,max=336"`
	Items      []ScheduleItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

// BindItemError describes why one schedule item could not be reserved
type BindItemError struct {
	Index         int    `json:"index"`
	ShowUUID      string `json:"show_uuid"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}

// BindScheduleResponse reports the per-item outcome of a schedule binding
type BindScheduleResponse struct {
	Message    string          `json:"message"`
	ScheduleID string          `json:"schedule_id"`
	OrderID    string          `json:"order_id"`
	Created    []HoldDTO       `json:"created"`
	Errors     []BindItemError `json:"errors"`
	BoundAt    time.Time       `json:"bound_at"`
}
