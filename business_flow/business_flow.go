// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
)

// ActorMetadata identifies who performs an operation, for audit logging and event attribution
type ActorMetadata struct {
	ActorID        string `json:"actor_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// NewActorMetadata creates a new ActorMetadata instance
func NewActorMetadata(actorID, ipAddress, userAgent string) *ActorMetadata {
	return &ActorMetadata{
		ActorID:   actorID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (am *ActorMetadata) SetRequestID(requestID string) {
	am.RequestID = requestID
}

// SetOrganizationID sets the organization ID
func (am *ActorMetadata) SetOrganizationID(orgID string) {
	am.OrganizationID = orgID
}

func getShow(ctx context.Context, repo repository.ShowRepository, uuidStr string) (models.Show, error) {
	show, err := repo.ByUUID(ctx, uuidStr)
	if err != nil {
		return models.Show{}, err
	}
	if show == nil {
		return models.Show{}, ErrShowNotFound
	}
	return *show, nil
}

func getEpisode(ctx context.Context, repo repository.EpisodeRepository, uuidStr string) (models.Episode, error) {
	episode, err := repo.ByUUID(ctx, uuidStr)
	if err != nil {
		return models.Episode{}, err
	}
	if episode == nil {
		return models.Episode{}, ErrEpisodeNotFound
	}
	return *episode, nil
}

func getReservation(ctx context.Context, repo repository.ReservationRepository, uuidStr string) (models.Reservation, error) {
	reservation, err := repo.ByUUID(ctx, uuidStr)
	if err != nil {
		return models.Reservation{}, err
	}
	if reservation == nil {
		return models.Reservation{}, ErrReservationNotFound
	}
	return *reservation, nil
}

// ToHoldDTO converts a reservation model to a HoldDTO for responses
func ToHoldDTO(reservation models.Reservation, episodeUUID string) dto.HoldDTO {
	return dto.HoldDTO{
		UUID:            reservation.UUID.String(),
		EpisodeUUID:     episodeUUID,
		PlacementType:   reservation.PlacementType.String(),
		SlotNumber:      reservation.SlotNumber,
		SlotCount:       reservation.SlotCount,
		OrderID:         reservation.OrderID,
		ScheduleID:      reservation.ScheduleID,
		CampaignID:      reservation.CampaignID,
		AdvertiserID:    reservation.AdvertiserID,
		Category:        reservation.Category,
		Status:          reservation.Status.String(),
		StatusDisplay:   reservation.GetStatusDisplayName(),
		HoldType:        reservation.HoldType.String(),
		ApprovalStatus:  reservation.ApprovalStatus.String(),
		ReservedBy:      reservation.ReservedBy,
		ReservedAt:      reservation.ReservedAt,
		ExpiresAt:       &reservation.ExpiresAt,
		ApprovedBy:      reservation.ApprovedBy,
		ApprovedAt:      reservation.ApprovedAt,
		RejectionReason: reservation.RejectionReason,
	}
}

// ToLedgerEntryDTO converts a ledger entry model to a LedgerEntryDTO
func ToLedgerEntryDTO(entry models.SlotLedgerEntry) dto.LedgerEntryDTO {
	return dto.LedgerEntryDTO{
		PlacementType: entry.PlacementType.String(),
		TotalSlots:    entry.TotalSlots,
		Available:     entry.Available,
		Reserved:      entry.Reserved,
		Booked:        entry.Booked,
	}
}

// ToExclusivityRuleDTO converts an exclusivity rule model to a DTO
func ToExclusivityRuleDTO(rule models.ExclusivityRule, showUUID string) dto.ExclusivityRuleDTO {
	return dto.ExclusivityRuleDTO{
		UUID:         rule.UUID.String(),
		ShowUUID:     showUUID,
		Category:     rule.Category,
		Level:        rule.Level.String(),
		AdvertiserID: rule.AdvertiserID,
		CampaignID:   rule.CampaignID,
		StartDate:    rule.StartDate,
		EndDate:      rule.EndDate,
		IsActive:     rule.IsActive != nil && *rule.IsActive,
		CreatedBy:    rule.CreatedBy,
		CreatedAt:    rule.CreatedAt,
	}
}

func marshalCounters(snapshot models.CounterSnapshot) json.RawMessage {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
