package dto

import (
	"time"
)

// CreateExclusivityRuleRequest represents the request to create a category exclusivity rule
type CreateExclusivityRuleRequest struct {
	ShowUUID     string  `json:"show_uuid" validate:"required,uuid4"`
	Category     string  `json:"category" validate:"required,max=128"`
	Level        string  `json:"level" validate:"required,oneof=episode show network"`
	AdvertiserID *string `json:"advertiser_id,omitempty" validate:"omitempty,max=64"`
	CampaignID   *string `json:"campaign_id,omitempty" validate:"omitempty,max=64"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// CreateExclusivityRuleResponse represents the response to a rule creation
type CreateExclusivityRuleResponse struct {
	Message string             `json:"message"`
	Rule    ExclusivityRuleDTO `json:"rule"`
}

// ListExclusivityRulesRequest represents filter criteria for listing rules
type ListExclusivityRulesRequest struct {
	ShowUUID *string `query:"show_uuid" validate:"omitempty,uuid4"`
	Category *string `query:"category" validate:"omitempty,max=128"`
	Level    *string `query:"level" validate:"omitempty,oneof=episode show network"`
	Active   *bool   `query:"active"`
	Page     int     `query:"page" validate:"omitempty,min=1"`
	PageSize int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListExclusivityRulesResponse represents a page of exclusivity rules
type ListExclusivityRulesResponse struct {
	Message    string               `json:"message"`
	Items      []ExclusivityRuleDTO `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// DeactivateExclusivityRuleRequest represents the request to deactivate a rule
type DeactivateExclusivityRuleRequest struct {
	RuleUUID string `json:"-"`
}

// DeactivateExclusivityRuleResponse confirms the deactivation
type DeactivateExclusivityRuleResponse struct {
	Message string `json:"message"`
}

// ExclusivityRuleDTO represents an exclusivity rule in responses
type ExclusivityRuleDTO struct {
	UUID         string    `json:"uuid"`
	ShowUUID     string    `json:"show_uuid"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	AdvertiserID *string   `json:"advertiser_id,omitempty"`
	CampaignID   *string   `json:"campaign_id,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}
