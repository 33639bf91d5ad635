// Package businessflow contains the core business logic and use cases for schedule binding workflows
package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/app/services"
	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
)

// ScheduleFlow handles binding a whole schedule of slot requests to inventory
type ScheduleFlow interface {
	BindSchedule(ctx context.Context, req *dto.BindScheduleRequest, metadata *ActorMetadata) (*dto.BindScheduleResponse, error)
}

// ScheduleFlowImpl implements the schedule binding flow
type ScheduleFlowImpl struct {
	showRepo        repository.ShowRepository
	episodeRepo     repository.EpisodeRepository
	reservationFlow ReservationFlow
	publisher       services.EventPublisher
}

// NewScheduleFlow creates a new schedule flow instance
func NewScheduleFlow(
	showRepo repository.ShowRepository,
	episodeRepo repository.EpisodeRepository,
	reservationFlow ReservationFlow,
	publisher services.EventPublisher,
) ScheduleFlow {
	return &ScheduleFlowImpl{
		showRepo:        showRepo,
		episodeRepo:     episodeRepo,
		reservationFlow: reservationFlow,
		publisher:       publisher,
	}
}

// BindSchedule reserves inventory for every item in the schedule. Binding is
// best effort: items that cannot be reserved are reported alongside the holds
// that succeeded, and already-created holds are not rolled back.
func (s *ScheduleFlowImpl) BindSchedule(ctx context.Context, req *dto.BindScheduleRequest, metadata *ActorMetadata) (*dto.BindScheduleResponse, error) {
	if req.ScheduleID == "" {
		return nil, NewBusinessError("SCHEDULE_VALIDATION_FAILED", "Schedule validation failed", ErrScheduleIDRequired)
	}
	if req.OrderID == "" {
		return nil, NewBusinessError("SCHEDULE_VALIDATION_FAILED", "Schedule validation failed", ErrOrderIDRequired)
	}
	if len(req.Items) == 0 {
		return nil, NewBusinessError("SCHEDULE_VALIDATION_FAILED", "Schedule validation failed", ErrEmptySchedule)
	}

	created := make([]dto.HoldDTO, 0, len(req.Items))
	bindErrors := make([]dto.BindItemError, 0)

	for i, item := range req.Items {
		hold, err := s.bindItem(ctx, req, item, metadata)
		if err != nil {
			bindErrors = append(bindErrors, toBindItemError(i, item, err))
			continue
		}
		created = append(created, *hold)
	}

	if len(created) > 0 {
		s.publishBound(ctx, req, metadata)
	}

	message := "Schedule bound successfully"
	if len(bindErrors) > 0 {
		message = "Schedule bound with errors"
	}

	return &dto.BindScheduleResponse{
		Message:    message,
		ScheduleID: req.ScheduleID,
		OrderID:    req.OrderID,
		Created:    created,
		Errors:     bindErrors,
		BoundAt:    utils.UTCNow(),
	}, nil
}

func (s *ScheduleFlowImpl) bindItem(ctx context.Context, req *dto.BindScheduleRequest, item dto.ScheduleItemRequest, metadata *ActorMetadata) (*dto.HoldDTO, error) {
	airDate, err := time.Parse("2006-01-02", item.AirDate)
	if err != nil {
		return nil, NewBusinessError("INVALID_AIR_DATE", "Invalid air date", err)
	}

	show, err := getShow(ctx, s.showRepo, item.ShowUUID)
	if err != nil {
		return nil, err
	}

	episode, err := s.resolveEpisode(ctx, show, airDate.UTC())
	if err != nil {
		return nil, err
	}

	holdReq := &dto.CreateHoldRequest{
		EpisodeUUID:   episode.UUID.String(),
		PlacementType: item.PlacementType,
		SlotNumber:    item.SlotNumber,
		SlotCount:     item.SlotCount,
		OrderID:       req.OrderID,
		ScheduleID:    &req.ScheduleID,
		CampaignID:    item.CampaignID,
		AdvertiserID:  item.AdvertiserID,
		Category:      item.Category,
		HoldType:      req.HoldType,
		TTLHours:      req.TTLHours,
	}

	resp, err := s.reservationFlow.CreateHold(ctx, holdReq, metadata)
	if err != nil {
		return nil, err
	}

	return &resp.Reservation, nil
}

// resolveEpisode finds the episode airing on the given date, creating it with
// the default duration when none exists yet. Slot ledger rows are derived from
// the show's spot configuration when the first hold is placed, so the episode
// row is all that has to exist here. A concurrent bind may win the insert race
// on (show, air date); in that case the existing row is used.
func (s *ScheduleFlowImpl) resolveEpisode(ctx context.Context, show models.Show, airDate time.Time) (models.Episode, error) {
	episode, err := s.episodeRepo.ByShowAndAirDate(ctx, show.ID, airDate)
	if err != nil {
		return models.Episode{}, err
	}
	if episode != nil {
		return *episode, nil
	}

	created := &models.Episode{
		ShowID:          show.ID,
		Title:           show.Name + " " + airDate.Format("2006-01-02"),
		AirDate:         airDate,
		DurationSeconds: utils.DefaultEpisodeDurationSeconds,
	}
	if saveErr := s.episodeRepo.Save(ctx, created); saveErr != nil {
		episode, err = s.episodeRepo.ByShowAndAirDate(ctx, show.ID, airDate)
		if err == nil && episode != nil {
			return *episode, nil
		}
		return models.Episode{}, saveErr
	}

	showCopy := show
	created.Show = &showCopy

	return *created, nil
}

func (s *ScheduleFlowImpl) publishBound(ctx context.Context, req *dto.BindScheduleRequest, metadata *ActorMetadata) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, services.DomainEvent{
		Type:       services.EventScheduleBound,
		ScheduleID: req.ScheduleID,
		OrderID:    req.OrderID,
		ActorID:    metadata.ActorID,
	})
}

func toBindItemError(index int, item dto.ScheduleItemRequest, err error) dto.BindItemError {
	code := "BIND_FAILED"
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		code = businessErr.Code
	}

	switch {
	case IsShowNotFound(err):
		code = "SHOW_NOT_FOUND"
	case IsEpisodeNotFound(err):
		code = "EPISODE_NOT_FOUND"
	case IsInsufficientCapacity(err):
		code = "INSUFFICIENT_CAPACITY"
	case IsExclusivityConflict(err):
		code = "EXCLUSIVITY_CONFLICT"
	}

	return dto.BindItemError{
		Index:         index,
		ShowUUID:      item.ShowUUID,
		AirDate:       item.AirDate,
		PlacementType: item.PlacementType,
		Code:          code,
		Reason:        err.Error(),
	}
}
