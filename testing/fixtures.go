// Package testing provides test utilities and database setup for testing the inventory system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestShow creates a show with the default spot configuration
func (tf *TestFixtures) CreateTestShow() (*models.Show, error) {
	return tf.CreateTestShowInNetwork(nil)
}

// CreateTestShowInNetwork creates a show, optionally attached to a network
func (tf *TestFixtures) CreateTestShowInNetwork(network *string) (*models.Show, error) {
	show := &models.Show{
		OrganizationID:    1,
		Name:              fmt.Sprintf("Test Show %d", rand.Intn(100000)),
		Network:           network,
		SpotConfiguration: models.DefaultSpotConfiguration,
		IsActive:          utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(show).Error; err != nil {
		return nil, fmt.Errorf("failed to create test show: %w", err)
	}

	return show, nil
}

// CreateTestEpisode creates an episode for the given show
func (tf *TestFixtures) CreateTestEpisode(show *models.Show, airDate time.Time, durationSeconds int) (*models.Episode, error) {
	episode := &models.Episode{
		ShowID:          show.ID,
		Title:           fmt.Sprintf("Episode %d", rand.Intn(100000)),
		AirDate:         airDate.UTC(),
		DurationSeconds: durationSeconds,
	}

	if err := tf.DB.DB.Create(episode).Error; err != nil {
		return nil, fmt.Errorf("failed to create test episode: %w", err)
	}

	episode.Show = show
	return episode, nil
}

// CreateTestLedgerEntry creates a ledger entry with all slots available
func (tf *TestFixtures) CreateTestLedgerEntry(episode *models.Episode, placement models.PlacementType, totalSlots int) (*models.SlotLedgerEntry, error) {
	entry := &models.SlotLedgerEntry{
		EpisodeID:     episode.ID,
		PlacementType: placement,
		TotalSlots:    totalSlots,
		Available:     totalSlots,
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ledger entry: %w", err)
	}

	return entry, nil
}

// CreateTestReservation creates a pending reservation on the given episode
func (tf *TestFixtures) CreateTestReservation(episode *models.Episode, placement models.PlacementType, slotCount int, expiresAt time.Time) (*models.Reservation, error) {
	reservation := &models.Reservation{
		EpisodeID:     episode.ID,
		PlacementType: placement,
		SlotCount:     slotCount,
		OrderID:       fmt.Sprintf("order-%d", rand.Intn(100000)),
		Status:        models.ReservationStatusReserved,
		HoldType:      models.HoldTypeSoft,
		ReservedBy:    "test-actor",
		ReservedAt:    utils.UTCNow(),
		ExpiresAt:     expiresAt.UTC(),
	}

	if err := tf.DB.DB.Create(reservation).Error; err != nil {
		return nil, fmt.Errorf("failed to create test reservation: %w", err)
	}

	return reservation, nil
}

// CreateTestExclusivityRule creates an active exclusivity rule on the given show
func (tf *TestFixtures) CreateTestExclusivityRule(show *models.Show, category string, level models.ExclusivityLevel, start, end time.Time) (*models.ExclusivityRule, error) {
	rule := &models.ExclusivityRule{
		ShowID:    show.ID,
		Category:  category,
		Level:     level,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		IsActive:  utils.ToPtr(true),
		CreatedBy: "test-actor",
	}

	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test exclusivity rule: %w", err)
	}

	return rule, nil
}

// CreateEpisodeWithInventory is shorthand for a show, an episode, and a fully
// available ledger entry for the given placement.
func (tf *TestFixtures) CreateEpisodeWithInventory(placement models.PlacementType, totalSlots int) (*models.Episode, *models.SlotLedgerEntry, error) {
	show, err := tf.CreateTestShow()
	if err != nil {
		return nil, nil, err
	}

	episode, err := tf.CreateTestEpisode(show, utils.UTCNow().Add(7*24*time.Hour), 1800)
	if err != nil {
		return nil, nil, err
	}

	entry, err := tf.CreateTestLedgerEntry(episode, placement, totalSlots)
	if err != nil {
		return nil, nil, err
	}

	return episode, entry, nil
}
