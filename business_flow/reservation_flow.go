// Package businessflow contains the core business logic and use cases for reservation workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/app/services"
	"github.com/ebfarnell/podcastflow-pro-sub003/config"
	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"gorm.io/gorm"
)

// ReservationFlow handles the reservation business logic
type ReservationFlow interface {
	CreateHold(ctx context.Context, req *dto.CreateHoldRequest, metadata *ActorMetadata) (*dto.CreateHoldResponse, error)
	ApproveHold(ctx context.Context, req *dto.ApproveHoldRequest, metadata *ActorMetadata) (*dto.ApproveHoldResponse, error)
	RejectHold(ctx context.Context, req *dto.RejectHoldRequest, metadata *ActorMetadata) (*dto.RejectHoldResponse, error)
	SweepExpired(ctx context.Context, batchSize int) (int, error)
	ListHolds(ctx context.Context, req *dto.ListHoldsRequest) (*dto.ListHoldsResponse, error)
	GetLedger(ctx context.Context, req *dto.GetLedgerRequest) (*dto.GetLedgerResponse, error)
}

// ReservationFlowImpl implements the reservation business flow
type ReservationFlowImpl struct {
	showRepo        repository.ShowRepository
	episodeRepo     repository.EpisodeRepository
	ledgerRepo      repository.SlotLedgerRepository
	reservationRepo repository.ReservationRepository
	ruleRepo        repository.ExclusivityRuleRepository
	changeLogRepo   repository.ChangeLogRepository
	publisher       services.EventPublisher
	inventoryConfig config.InventoryConfig
	db              *gorm.DB
}

// NewReservationFlow creates a new reservation flow instance
func NewReservationFlow(
	showRepo repository.ShowRepository,
	episodeRepo repository.EpisodeRepository,
	ledgerRepo repository.SlotLedgerRepository,
	reservationRepo repository.ReservationRepository,
	ruleRepo repository.ExclusivityRuleRepository,
	changeLogRepo repository.ChangeLogRepository,
	db *gorm.DB,
	publisher services.EventPublisher,
	inventoryConfig config.InventoryConfig,
) ReservationFlow {
	return &ReservationFlowImpl{
		showRepo:        showRepo,
		episodeRepo:     episodeRepo,
		ledgerRepo:      ledgerRepo,
		reservationRepo: reservationRepo,
		ruleRepo:        ruleRepo,
		changeLogRepo:   changeLogRepo,
		publisher:       publisher,
		inventoryConfig: inventoryConfig,
		db:              db,
	}
}

// CreateHold places a hold on episode inventory. Capacity is taken with a
// conditional ledger update, so two competing holds for the last slot cannot
// both succeed.
func (s *ReservationFlowImpl) CreateHold(ctx context.Context, req *dto.CreateHoldRequest, metadata *ActorMetadata) (*dto.CreateHoldResponse, error) {
	placement, count, ttl, err := s.validateCreateHoldRequest(req)
	if err != nil {
		return nil, NewBusinessError("HOLD_VALIDATION_FAILED", "Hold validation failed", err)
	}

	episode, err := getEpisode(ctx, s.episodeRepo, req.EpisodeUUID)
	if err != nil {
		return nil, NewBusinessError("EPISODE_LOOKUP_FAILED", "Failed to lookup episode", err)
	}

	show, err := s.showForEpisode(ctx, episode)
	if err != nil {
		return nil, NewBusinessError("SHOW_LOOKUP_FAILED", "Failed to lookup show", err)
	}

	if req.Category != nil {
		if err := checkExclusivityConflict(ctx, s.ruleRepo, s.showRepo, show, *req.Category, req.AdvertiserID, episode.AirDate); err != nil {
			return nil, NewBusinessError("EXCLUSIVITY_CONFLICT", "Category exclusivity conflict", err)
		}
	}

	holdType := models.HoldTypeSoft
	if req.HoldType != nil {
		holdType = models.HoldType(*req.HoldType)
	}

	now := utils.UTCNow()
	reservation := &models.Reservation{
		EpisodeID:     episode.ID,
		PlacementType: placement,
		SlotNumber:    req.SlotNumber,
		SlotCount:     count,
		ScheduleID:    req.ScheduleID,
		OrderID:       req.OrderID,
		CampaignID:    req.CampaignID,
		AdvertiserID:  req.AdvertiserID,
		Category:      req.Category,
		Status:        models.ReservationStatusReserved,
		HoldType:      holdType,
		ReservedBy:    metadata.ActorID,
		ReservedAt:    now,
		ExpiresAt:     now.Add(ttl),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		totalSlots := show.SpotConfiguration.SlotsFor(episode.DurationSeconds, placement)

		entry, err := s.ledgerRepo.EnsureEntry(txCtx, episode.ID, placement, totalSlots)
		if err != nil {
			return err
		}

		if req.SlotNumber != nil && *req.SlotNumber > entry.TotalSlots {
			return fmt.Errorf("%w: slot %d of %d", ErrSlotNumberOutOfRange, *req.SlotNumber, entry.TotalSlots)
		}

		before := entry.Snapshot()

		if err := s.ledgerRepo.Reserve(txCtx, episode.ID, placement, count); err != nil {
			if errors.Is(err, repository.ErrInsufficientCapacity) {
				return fmt.Errorf("%w: %d requested", ErrInsufficientCapacity, count)
			}
			return err
		}

		if err := s.reservationRepo.Save(txCtx, reservation); err != nil {
			return err
		}

		return s.appendChangeLog(txCtx, episode.ID, placement, &reservation.ID, models.ChangeTypeHoldCreated, before, metadata)
	})

	if err != nil {
		return nil, s.wrapHoldError("HOLD_CREATION_FAILED", "Hold creation failed", err)
	}

	s.publish(ctx, services.DomainEvent{
		Type:            services.EventHoldCreated,
		ReservationUUID: reservation.UUID.String(),
		EpisodeUUID:     episode.UUID.String(),
		OrderID:         reservation.OrderID,
		PlacementType:   placement.String(),
		ActorID:         metadata.ActorID,
	})

	return &dto.CreateHoldResponse{
		Message:     "Hold created successfully",
		Reservation: ToHoldDTO(*reservation, episode.UUID.String()),
		ExpiresAt:   reservation.ExpiresAt,
	}, nil
}

// ApproveHold confirms a pending hold, moving its slots from reserved to
// booked. The status flip is a conditional update, so a hold that expired or
// was rejected in the meantime cannot be approved.
func (s *ReservationFlowImpl) ApproveHold(ctx context.Context, req *dto.ApproveHoldRequest, metadata *ActorMetadata) (*dto.ApproveHoldResponse, error) {
	reservation, err := getReservation(ctx, s.reservationRepo, req.ReservationUUID)
	if err != nil {
		return nil, NewBusinessError("RESERVATION_LOOKUP_FAILED", "Failed to lookup reservation", err)
	}

	if !reservation.CanTransitionTo(models.ReservationStatusConfirmed) {
		return nil, NewBusinessError("INVALID_TRANSITION", "Reservation cannot be approved",
			fmt.Errorf("%w: %s -> confirmed", ErrInvalidTransition, reservation.Status))
	}

	now := utils.UTCNow()

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		entry, err := s.ledgerRepo.ByEpisodeAndPlacement(txCtx, reservation.EpisodeID, reservation.PlacementType)
		if err != nil {
			return err
		}
		before := entry.Snapshot()

		ok, err := s.reservationRepo.MarkTerminalIfReserved(txCtx, reservation.ID, models.ReservationStatusConfirmed, map[string]any{
			"approval_status": models.ApprovalStatusApproved,
			"approved_by":     metadata.ActorID,
			"approved_at":     now,
			"updated_at":      now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation no longer reserved", ErrInvalidTransition)
		}

		if err := s.ledgerRepo.Confirm(txCtx, reservation.EpisodeID, reservation.PlacementType, reservation.SlotCount); err != nil {
			return err
		}

		return s.appendChangeLog(txCtx, reservation.EpisodeID, reservation.PlacementType, &reservation.ID, models.ChangeTypeHoldApproved, before, metadata)
	})

	if err != nil {
		return nil, s.wrapHoldError("HOLD_APPROVAL_FAILED", "Hold approval failed", err)
	}

	reservation.Status = models.ReservationStatusConfirmed
	reservation.ApprovalStatus = models.ApprovalStatusApproved
	reservation.ApprovedBy = &metadata.ActorID
	reservation.ApprovedAt = &now

	episodeUUID := ""
	if reservation.Episode != nil {
		episodeUUID = reservation.Episode.UUID.String()
	}

	s.publish(ctx, services.DomainEvent{
		Type:            services.EventHoldApproved,
		ReservationUUID: reservation.UUID.String(),
		EpisodeUUID:     episodeUUID,
		OrderID:         reservation.OrderID,
		PlacementType:   reservation.PlacementType.String(),
		ActorID:         metadata.ActorID,
	})

	pending, err := s.reservationRepo.CountPendingByOrder(ctx, reservation.OrderID)
	if err != nil {
		return nil, NewBusinessError("ORDER_STATUS_CHECK_FAILED", "Failed to check order status", err)
	}

	fullyApproved := pending == 0
	if fullyApproved {
		s.publish(ctx, services.DomainEvent{
			Type:    services.EventOrderFullyApproved,
			OrderID: reservation.OrderID,
			ActorID: metadata.ActorID,
		})
	}

	return &dto.ApproveHoldResponse{
		Message:            "Hold approved successfully",
		Reservation:        ToHoldDTO(reservation, episodeUUID),
		OrderFullyApproved: fullyApproved,
	}, nil
}

// RejectHold releases a pending hold's slots back to available
func (s *ReservationFlowImpl) RejectHold(ctx context.Context, req *dto.RejectHoldRequest, metadata *ActorMetadata) (*dto.RejectHoldResponse, error) {
	reservation, err := getReservation(ctx, s.reservationRepo, req.ReservationUUID)
	if err != nil {
		return nil, NewBusinessError("RESERVATION_LOOKUP_FAILED", "Failed to lookup reservation", err)
	}

	if !reservation.CanTransitionTo(models.ReservationStatusReleased) {
		return nil, NewBusinessError("INVALID_TRANSITION", "Reservation cannot be rejected",
			fmt.Errorf("%w: %s -> released", ErrInvalidTransition, reservation.Status))
	}

	now := utils.UTCNow()

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		entry, err := s.ledgerRepo.ByEpisodeAndPlacement(txCtx, reservation.EpisodeID, reservation.PlacementType)
		if err != nil {
			return err
		}
		before := entry.Snapshot()

		ok, err := s.reservationRepo.MarkTerminalIfReserved(txCtx, reservation.ID, models.ReservationStatusReleased, map[string]any{
			"approval_status":  models.ApprovalStatusRejected,
			"rejection_reason": req.Reason,
			"updated_at":       now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation no longer reserved", ErrInvalidTransition)
		}

		if err := s.ledgerRepo.Release(txCtx, reservation.EpisodeID, reservation.PlacementType, reservation.SlotCount, false); err != nil {
			return err
		}

		return s.appendChangeLog(txCtx, reservation.EpisodeID, reservation.PlacementType, &reservation.ID, models.ChangeTypeHoldRejected, before, metadata)
	})

	if err != nil {
		return nil, s.wrapHoldError("HOLD_REJECTION_FAILED", "Hold rejection failed", err)
	}

	reservation.Status = models.ReservationStatusReleased
	reservation.ApprovalStatus = models.ApprovalStatusRejected
	reservation.RejectionReason = req.Reason

	episodeUUID := ""
	if reservation.Episode != nil {
		episodeUUID = reservation.Episode.UUID.String()
	}

	s.publish(ctx, services.DomainEvent{
		Type:            services.EventHoldRejected,
		ReservationUUID: reservation.UUID.String(),
		EpisodeUUID:     episodeUUID,
		OrderID:         reservation.OrderID,
		PlacementType:   reservation.PlacementType.String(),
		ActorID:         metadata.ActorID,
	})

	return &dto.RejectHoldResponse{
		Message:     "Hold rejected",
		Reservation: ToHoldDTO(reservation, episodeUUID),
	}, nil
}

// SweepExpired expires overdue holds and returns their slots to available.
// Each hold is swept in its own transaction, so one poisoned row cannot stall
// the batch. Holds that flip status concurrently are skipped, which makes the
// sweep safe to re-run.
func (s *ReservationFlowImpl) SweepExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = utils.DefaultSweepBatchSize
	}

	now := utils.UTCNow()
	expired, err := s.reservationRepo.FindExpired(ctx, now, batchSize)
	if err != nil {
		return 0, NewBusinessError("SWEEP_LOOKUP_FAILED", "Failed to find expired holds", err)
	}

	swept := 0
	sweeper := NewActorMetadata("system:sweeper", "", "")

	for _, reservation := range expired {
		err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			entry, err := s.ledgerRepo.ByEpisodeAndPlacement(txCtx, reservation.EpisodeID, reservation.PlacementType)
			if err != nil {
				return err
			}
			before := entry.Snapshot()

			ok, err := s.reservationRepo.MarkTerminalIfReserved(txCtx, reservation.ID, models.ReservationStatusExpired, map[string]any{
				"updated_at": now,
			})
			if err != nil {
				return err
			}
			if !ok {
				// Approved or rejected between lookup and sweep
				return nil
			}

			if err := s.ledgerRepo.Release(txCtx, reservation.EpisodeID, reservation.PlacementType, reservation.SlotCount, false); err != nil {
				return err
			}

			swept++
			return s.appendChangeLog(txCtx, reservation.EpisodeID, reservation.PlacementType, &reservation.ID, models.ChangeTypeHoldExpired, before, sweeper)
		})
		if err != nil {
			return swept, NewBusinessError("SWEEP_FAILED", "Failed to sweep expired hold", err)
		}

		episodeUUID := ""
		if reservation.Episode != nil {
			episodeUUID = reservation.Episode.UUID.String()
		}

		s.publish(ctx, services.DomainEvent{
			Type:            services.EventHoldExpired,
			ReservationUUID: reservation.UUID.String(),
			EpisodeUUID:     episodeUUID,
			OrderID:         reservation.OrderID,
			PlacementType:   reservation.PlacementType.String(),
			ActorID:         sweeper.ActorID,
		})
	}

	return swept, nil
}

// ListHolds returns a page of reservations matching the filter
func (s *ReservationFlowImpl) ListHolds(ctx context.Context, req *dto.ListHoldsRequest) (*dto.ListHoldsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.ReservationFilter{
		OrderID:    req.OrderID,
		CampaignID: req.CampaignID,
	}
	if req.Status != nil {
		status := models.ReservationStatus(*req.Status)
		filter.Status = &status
	}
	if req.ApprovalStatus != nil {
		approval := models.ApprovalStatus(*req.ApprovalStatus)
		filter.ApprovalStatus = &approval
	}
	if req.EpisodeUUID != nil {
		episode, err := getEpisode(ctx, s.episodeRepo, *req.EpisodeUUID)
		if err != nil {
			return nil, NewBusinessError("EPISODE_LOOKUP_FAILED", "Failed to lookup episode", err)
		}
		filter.EpisodeID = &episode.ID
	}

	total, err := s.reservationRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("HOLD_LIST_FAILED", "Failed to count reservations", err)
	}

	reservations, err := s.reservationRepo.ByFilter(ctx, filter, "reserved_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("HOLD_LIST_FAILED", "Failed to list reservations", err)
	}

	items := make([]dto.HoldDTO, 0, len(reservations))
	for _, reservation := range reservations {
		episodeUUID := ""
		if reservation.Episode != nil {
			episodeUUID = reservation.Episode.UUID.String()
		}
		items = append(items, ToHoldDTO(*reservation, episodeUUID))
	}

	return &dto.ListHoldsResponse{
		Message: "Reservations retrieved successfully",
		Items:   items,
		Pagination: dto.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// GetLedger returns the slot counters for every placement position of an
// episode. Positions with no ledger row yet are reported at full availability
// from the show's spot configuration.
func (s *ReservationFlowImpl) GetLedger(ctx context.Context, req *dto.GetLedgerRequest) (*dto.GetLedgerResponse, error) {
	episode, err := getEpisode(ctx, s.episodeRepo, req.EpisodeUUID)
	if err != nil {
		return nil, NewBusinessError("EPISODE_LOOKUP_FAILED", "Failed to lookup episode", err)
	}

	show, err := s.showForEpisode(ctx, episode)
	if err != nil {
		return nil, NewBusinessError("SHOW_LOOKUP_FAILED", "Failed to lookup show", err)
	}

	entries, err := s.ledgerRepo.ByEpisodeID(ctx, episode.ID)
	if err != nil {
		return nil, NewBusinessError("LEDGER_LOOKUP_FAILED", "Failed to read ledger", err)
	}

	byPlacement := make(map[models.PlacementType]*models.SlotLedgerEntry, len(entries))
	for _, entry := range entries {
		byPlacement[entry.PlacementType] = entry
	}

	result := make([]dto.LedgerEntryDTO, 0, len(models.AllPlacementTypes))
	for _, placement := range models.AllPlacementTypes {
		if entry, ok := byPlacement[placement]; ok {
			result = append(result, ToLedgerEntryDTO(*entry))
			continue
		}
		total := show.SpotConfiguration.SlotsFor(episode.DurationSeconds, placement)
		result = append(result, dto.LedgerEntryDTO{
			PlacementType: placement.String(),
			TotalSlots:    total,
			Available:     total,
		})
	}

	return &dto.GetLedgerResponse{
		Message:     "Ledger retrieved successfully",
		EpisodeUUID: episode.UUID.String(),
		Entries:     result,
	}, nil
}

func (s *ReservationFlowImpl) validateCreateHoldRequest(req *dto.CreateHoldRequest) (models.PlacementType, int, time.Duration, error) {
	placement := models.PlacementType(req.PlacementType)
	if !placement.Valid() {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidPlacementType, req.PlacementType)
	}

	if req.OrderID == "" {
		return "", 0, 0, ErrOrderIDRequired
	}

	count := 1
	if req.SlotCount != nil {
		count = *req.SlotCount
	}
	maxCount := s.inventoryConfig.MaxHoldCount
	if maxCount <= 0 {
		maxCount = utils.MaxHoldCount
	}
	if count < 1 || count > maxCount {
		return "", 0, 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidHoldCount, count, maxCount)
	}

	ttl := s.inventoryConfig.DefaultHoldTTL
	if ttl <= 0 {
		ttl = utils.DefaultHoldTTL
	}
	if req.TTLHours != nil {
		ttl = time.Duration(*req.TTLHours) * time.Hour
	}
	if ttl <= 0 || ttl > utils.MaxHoldTTL {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrInvalidHoldTTL, ttl)
	}

	return placement, count, ttl, nil
}

func (s *ReservationFlowImpl) showForEpisode(ctx context.Context, episode models.Episode) (models.Show, error) {
	if episode.Show != nil {
		return *episode.Show, nil
	}

	show, err := s.showRepo.ByID(ctx, episode.ShowID)
	if err != nil {
		return models.Show{}, err
	}
	if show == nil {
		return models.Show{}, ErrShowNotFound
	}

	return *show, nil
}

// appendChangeLog records a before/after counter snapshot for one mutation.
// Must run inside the same transaction as the mutation itself.
func (s *ReservationFlowImpl) appendChangeLog(ctx context.Context, episodeID uint, placement models.PlacementType, reservationID *uint, changeType string, before models.CounterSnapshot, metadata *ActorMetadata) error {
	entry, err := s.ledgerRepo.ByEpisodeAndPlacement(ctx, episodeID, placement)
	if err != nil {
		return err
	}

	record := &models.InventoryChangeLog{
		EpisodeID:      episodeID,
		PlacementType:  placement,
		ReservationID:  reservationID,
		ChangeType:     changeType,
		CountersBefore: marshalCounters(before),
		CountersAfter:  marshalCounters(entry.Snapshot()),
	}
	if metadata != nil {
		if metadata.ActorID != "" {
			record.ActorID = &metadata.ActorID
		}
		if metadata.RequestID != "" {
			record.RequestID = &metadata.RequestID
		}
	}

	return s.changeLogRepo.Save(ctx, record)
}

func (s *ReservationFlowImpl) wrapHoldError(code, message string, err error) error {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return err
	}
	return NewBusinessError(code, message, err)
}

func (s *ReservationFlowImpl) publish(ctx context.Context, event services.DomainEvent) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, event)
}
