// Package businessflow contains the core business logic and use cases for exclusivity workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
)

// ExclusivityFlow handles category exclusivity rules
type ExclusivityFlow interface {
	CreateRule(ctx context.Context, req *dto.CreateExclusivityRuleRequest, metadata *ActorMetadata) (*dto.CreateExclusivityRuleResponse, error)
	ListRules(ctx context.Context, req *dto.ListExclusivityRulesRequest) (*dto.ListExclusivityRulesResponse, error)
	DeactivateRule(ctx context.Context, req *dto.DeactivateExclusivityRuleRequest, metadata *ActorMetadata) (*dto.DeactivateExclusivityRuleResponse, error)
}

// ExclusivityFlowImpl implements the exclusivity business flow
type ExclusivityFlowImpl struct {
	ruleRepo repository.ExclusivityRuleRepository
	showRepo repository.ShowRepository
}

// NewExclusivityFlow creates a new exclusivity flow instance
func NewExclusivityFlow(ruleRepo repository.ExclusivityRuleRepository, showRepo repository.ShowRepository) ExclusivityFlow {
	return &ExclusivityFlowImpl{
		ruleRepo: ruleRepo,
		showRepo: showRepo,
	}
}

// CreateRule creates a category exclusivity rule for a show
func (s *ExclusivityFlowImpl) CreateRule(ctx context.Context, req *dto.CreateExclusivityRuleRequest, metadata *ActorMetadata) (*dto.CreateExclusivityRuleResponse, error) {
	level := models.ExclusivityLevel(req.Level)
	if !level.Valid() {
		return nil, NewBusinessError("RULE_VALIDATION_FAILED", "Rule validation failed",
			fmt.Errorf("invalid exclusivity level %q", req.Level))
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, NewBusinessError("RULE_VALIDATION_FAILED", "Invalid start date", err)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, NewBusinessError("RULE_VALIDATION_FAILED", "Invalid end date", err)
	}
	if startDate.After(endDate) {
		return nil, NewBusinessError("RULE_VALIDATION_FAILED", "Rule validation failed", ErrRuleDatesInverted)
	}

	show, err := getShow(ctx, s.showRepo, req.ShowUUID)
	if err != nil {
		return nil, NewBusinessError("SHOW_LOOKUP_FAILED", "Failed to lookup show", err)
	}

	existing, err := s.ruleRepo.FindActiveOverlapping(ctx, show.ID, req.Category, level, startDate.UTC(), endDate.UTC())
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to check existing rules", err)
	}
	if len(existing) > 0 {
		return nil, NewBusinessError("EXCLUSIVITY_CONFLICT", "Rule overlaps an existing rule",
			fmt.Errorf("%w: category %q already exclusive at %s level from %s to %s",
				ErrExclusivityConflict, req.Category, level,
				existing[0].StartDate.Format("2006-01-02"), existing[0].EndDate.Format("2006-01-02")))
	}

	rule := &models.ExclusivityRule{
		ShowID:       show.ID,
		Category:     req.Category,
		Level:        level,
		AdvertiserID: req.AdvertiserID,
		CampaignID:   req.CampaignID,
		StartDate:    startDate.UTC(),
		EndDate:      endDate.UTC(),
		CreatedBy:    metadata.ActorID,
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("RULE_CREATION_FAILED", "Rule creation failed", err)
	}

	return &dto.CreateExclusivityRuleResponse{
		Message: "Exclusivity rule created successfully",
		Rule:    ToExclusivityRuleDTO(*rule, show.UUID.String()),
	}, nil
}

// ListRules returns a page of exclusivity rules matching the filter
func (s *ExclusivityFlowImpl) ListRules(ctx context.Context, req *dto.ListExclusivityRulesRequest) (*dto.ListExclusivityRulesResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.ExclusivityRuleFilter{
		Category: req.Category,
		IsActive: req.Active,
	}
	if req.Level != nil {
		level := models.ExclusivityLevel(*req.Level)
		filter.Level = &level
	}

	showUUIDs := make(map[uint]string)
	if req.ShowUUID != nil {
		show, err := getShow(ctx, s.showRepo, *req.ShowUUID)
		if err != nil {
			return nil, NewBusinessError("SHOW_LOOKUP_FAILED", "Failed to lookup show", err)
		}
		filter.ShowID = &show.ID
		showUUIDs[show.ID] = show.UUID.String()
	}

	total, err := s.ruleRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("RULE_LIST_FAILED", "Failed to count rules", err)
	}

	rules, err := s.ruleRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("RULE_LIST_FAILED", "Failed to list rules", err)
	}

	items := make([]dto.ExclusivityRuleDTO, 0, len(rules))
	for _, rule := range rules {
		showUUID, ok := showUUIDs[rule.ShowID]
		if !ok {
			show, err := s.showRepo.ByID(ctx, rule.ShowID)
			if err != nil {
				return nil, NewBusinessError("SHOW_LOOKUP_FAILED", "Failed to lookup show", err)
			}
			if show != nil {
				showUUID = show.UUID.String()
			}
			showUUIDs[rule.ShowID] = showUUID
		}
		items = append(items, ToExclusivityRuleDTO(*rule, showUUID))
	}

	return &dto.ListExclusivityRulesResponse{
		Message: "Exclusivity rules retrieved successfully",
		Items:   items,
		Pagination: dto.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// DeactivateRule turns a rule off without deleting it, keeping its history
func (s *ExclusivityFlowImpl) DeactivateRule(ctx context.Context, req *dto.DeactivateExclusivityRuleRequest, metadata *ActorMetadata) (*dto.DeactivateExclusivityRuleResponse, error) {
	rule, err := s.ruleRepo.ByUUID(ctx, req.RuleUUID)
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to lookup rule", err)
	}
	if rule == nil {
		return nil, NewBusinessError("RULE_NOT_FOUND", "Rule not found", ErrExclusivityRuleNotFound)
	}

	if err := s.ruleRepo.SetActive(ctx, rule.ID, false); err != nil {
		return nil, NewBusinessError("RULE_DEACTIVATION_FAILED", "Rule deactivation failed", err)
	}

	return &dto.DeactivateExclusivityRuleResponse{
		Message: "Exclusivity rule deactivated",
	}, nil
}

// checkExclusivityConflict reports whether an active rule blocks the given
// category on the show at the given time. A rule held by the same advertiser
// does not block. Network-level rules on sibling shows in the same network
// apply as well.
func checkExclusivityConflict(ctx context.Context, ruleRepo repository.ExclusivityRuleRepository, showRepo repository.ShowRepository, show models.Show, category string, advertiserID *string, at time.Time) error {
	for _, level := range []models.ExclusivityLevel{models.ExclusivityLevelEpisode, models.ExclusivityLevelShow} {
		rules, err := ruleRepo.FindActiveOverlapping(ctx, show.ID, category, level, at, at)
		if err != nil {
			return err
		}
		if rule := firstBlockingRule(rules, advertiserID); rule != nil {
			return fmt.Errorf("%w: category %q blocked at %s level", ErrExclusivityConflict, category, level)
		}
	}

	if show.Network == nil || *show.Network == "" {
		return nil
	}

	siblings, err := showRepo.ByFilter(ctx, models.ShowFilter{Network: show.Network}, "", 0, 0)
	if err != nil {
		return err
	}

	for _, sibling := range siblings {
		rules, err := ruleRepo.FindActiveOverlapping(ctx, sibling.ID, category, models.ExclusivityLevelNetwork, at, at)
		if err != nil {
			return err
		}
		if rule := firstBlockingRule(rules, advertiserID); rule != nil {
			return fmt.Errorf("%w: category %q blocked at network level by show %q", ErrExclusivityConflict, category, sibling.Name)
		}
	}

	return nil
}

// firstBlockingRule returns the first rule not held by the given advertiser
func firstBlockingRule(rules []*models.ExclusivityRule, advertiserID *string) *models.ExclusivityRule {
	for _, rule := range rules {
		if rule.AdvertiserID != nil && advertiserID != nil && *rule.AdvertiserID == *advertiserID {
			continue
		}
		return rule
	}
	return nil
}
