// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	testingutil "github.com/ebfarnell/podcastflow-pro-sub003/testing"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementType(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, models.PlacementPreRoll.Valid())
		assert.True(t, models.PlacementMidRoll.Valid())
		assert.True(t, models.PlacementPostRoll.Valid())
		assert.False(t, models.PlacementType("banner").Valid())
		assert.False(t, models.PlacementType("").Valid())
	})

	t.Run("Scan", func(t *testing.T) {
		var p models.PlacementType
		require.NoError(t, p.Scan("mid_roll"))
		assert.Equal(t, models.PlacementMidRoll, p)

		require.NoError(t, p.Scan([]byte("post_roll")))
		assert.Equal(t, models.PlacementPostRoll, p)

		assert.Error(t, p.Scan(42))
	})

	t.Run("Value", func(t *testing.T) {
		v, err := models.PlacementPreRoll.Value()
		require.NoError(t, err)
		assert.Equal(t, "pre_roll", v)
	})

	t.Run("GetDisplayName", func(t *testing.T) {
		assert.Equal(t, "Pre-Roll", models.PlacementPreRoll.GetDisplayName())
		assert.Equal(t, "Mid-Roll", models.PlacementMidRoll.GetDisplayName())
		assert.Equal(t, "Post-Roll", models.PlacementPostRoll.GetDisplayName())
	})
}

func TestSpotConfiguration(t *testing.T) {
	config := models.SpotConfiguration{
		{MaxDurationSeconds: 1200, PreRollSlots: 1, MidRollSlots: 1, PostRollSlots: 1},
		{MaxDurationSeconds: 3600, PreRollSlots: 1, MidRollSlots: 2, PostRollSlots: 1},
		{MaxDurationSeconds: 0, PreRollSlots: 2, MidRollSlots: 4, PostRollSlots: 2},
	}

	t.Run("SlotsForShortEpisode", func(t *testing.T) {
		assert.Equal(t, 1, config.SlotsFor(900, models.PlacementPreRoll))
		assert.Equal(t, 1, config.SlotsFor(900, models.PlacementMidRoll))
	})

	t.Run("SlotsForThresholdBoundary", func(t *testing.T) {
		// Exactly at the threshold matches the rule
		assert.Equal(t, 1, config.SlotsFor(1200, models.PlacementMidRoll))
		// One second over falls to the next rule
		assert.Equal(t, 2, config.SlotsFor(1201, models.PlacementMidRoll))
	})

	t.Run("SlotsForCatchAll", func(t *testing.T) {
		assert.Equal(t, 4, config.SlotsFor(7200, models.PlacementMidRoll))
		assert.Equal(t, 2, config.SlotsFor(7200, models.PlacementPostRoll))
	})

	t.Run("SlotsForUnknownPlacement", func(t *testing.T) {
		assert.Equal(t, 0, config.SlotsFor(900, models.PlacementType("banner")))
	})

	t.Run("SlotsForEmptyConfiguration", func(t *testing.T) {
		empty := models.SpotConfiguration{}
		assert.Equal(t, 0, empty.SlotsFor(900, models.PlacementMidRoll))
	})

	t.Run("ScanRoundTrip", func(t *testing.T) {
		v, err := config.Value()
		require.NoError(t, err)

		var scanned models.SpotConfiguration
		require.NoError(t, scanned.Scan(v))
		assert.Equal(t, config, scanned)
	})
}

func TestReservationStatusTransitions(t *testing.T) {
	t.Run("ReservedCanReachAllTerminalStates", func(t *testing.T) {
		r := &models.Reservation{Status: models.ReservationStatusReserved}
		assert.True(t, r.CanTransitionTo(models.ReservationStatusConfirmed))
		assert.True(t, r.CanTransitionTo(models.ReservationStatusReleased))
		assert.True(t, r.CanTransitionTo(models.ReservationStatusExpired))
	})

	t.Run("TerminalStatesAreFinal", func(t *testing.T) {
		for _, status := range []models.ReservationStatus{
			models.ReservationStatusConfirmed,
			models.ReservationStatusReleased,
			models.ReservationStatusExpired,
		} {
			r := &models.Reservation{Status: status}
			assert.False(t, r.CanTransitionTo(models.ReservationStatusReserved))
			assert.False(t, r.CanTransitionTo(models.ReservationStatusConfirmed))
			assert.False(t, r.CanTransitionTo(models.ReservationStatusReleased))
			assert.False(t, r.CanTransitionTo(models.ReservationStatusExpired))
			assert.True(t, r.IsTerminal())
		}
	})

	t.Run("IsPendingApproval", func(t *testing.T) {
		r := &models.Reservation{
			Status:         models.ReservationStatusReserved,
			ApprovalStatus: models.ApprovalStatusPending,
		}
		assert.True(t, r.IsPendingApproval())

		r.ApprovalStatus = models.ApprovalStatusApproved
		assert.False(t, r.IsPendingApproval())
	})

	t.Run("GetStatusDisplayName", func(t *testing.T) {
		r := &models.Reservation{Status: models.ReservationStatusReserved}
		assert.Equal(t, "Reserved", r.GetStatusDisplayName())

		r.Status = models.ReservationStatus("bogus")
		assert.Equal(t, "Unknown", r.GetStatusDisplayName())
	})
}

func TestSlotLedgerEntry(t *testing.T) {
	t.Run("Balanced", func(t *testing.T) {
		entry := &models.SlotLedgerEntry{TotalSlots: 4, Available: 2, Reserved: 1, Booked: 1}
		assert.True(t, entry.Balanced())

		entry.Reserved = 2
		assert.False(t, entry.Balanced())
	})

	t.Run("Snapshot", func(t *testing.T) {
		entry := &models.SlotLedgerEntry{TotalSlots: 4, Available: 2, Reserved: 1, Booked: 1}
		snapshot := entry.Snapshot()
		assert.Equal(t, 4, snapshot.TotalSlots)
		assert.Equal(t, 2, snapshot.Available)
		assert.Equal(t, 1, snapshot.Reserved)
		assert.Equal(t, 1, snapshot.Booked)
	})
}

func TestExclusivityRuleOverlaps(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	rule := &models.ExclusivityRule{StartDate: start, EndDate: end}

	t.Run("InsideWindow", func(t *testing.T) {
		at := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		assert.True(t, rule.Overlaps(at, at))
	})

	t.Run("WindowEdges", func(t *testing.T) {
		assert.True(t, rule.Overlaps(start, start))
		assert.True(t, rule.Overlaps(end, end))
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		before := start.Add(-24 * time.Hour)
		after := end.Add(24 * time.Hour)
		assert.False(t, rule.Overlaps(before, before))
		assert.False(t, rule.Overlaps(after, after))
	})

	t.Run("PartialOverlap", func(t *testing.T) {
		assert.True(t, rule.Overlaps(start.Add(-24*time.Hour), start.Add(24*time.Hour)))
		assert.True(t, rule.Overlaps(end.Add(-24*time.Hour), end.Add(24*time.Hour)))
	})
}

func TestModelPersistence(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("ShowDefaults", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)
			assert.NotZero(t, show.ID)
			assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", show.UUID.String())
			assert.True(t, utils.IsTrue(show.IsActive))
			assert.NotEmpty(t, show.SpotConfiguration)
		})

		t.Run("EpisodeAirDateStoredUTC", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			loc := time.FixedZone("UTC+4", 4*3600)
			airDate := time.Date(2026, 9, 10, 12, 0, 0, 0, loc)
			episode, err := fixtures.CreateTestEpisode(show, airDate, 1800)
			require.NoError(t, err)

			var loaded models.Episode
			require.NoError(t, testDB.DB.First(&loaded, episode.ID).Error)
			assert.True(t, loaded.AirDate.Equal(airDate))
		})

		t.Run("DuplicateEpisodePerAirDateRejected", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			airDate := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)
			_, err = fixtures.CreateTestEpisode(show, airDate, 1800)
			require.NoError(t, err)

			_, err = fixtures.CreateTestEpisode(show, airDate, 2400)
			assert.Error(t, err)
		})

		t.Run("ReservationDefaults", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)

			reservation, err := fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)
			assert.NotZero(t, reservation.ID)
			assert.Equal(t, models.ReservationStatusReserved, reservation.Status)
			assert.Equal(t, models.ApprovalStatusPending, reservation.ApprovalStatus)
			assert.Equal(t, models.HoldTypeSoft, reservation.HoldType)
			assert.False(t, reservation.ReservedAt.IsZero())
		})

		t.Run("DuplicateLedgerEntryRejected", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 1)
			require.NoError(t, err)

			_, err = fixtures.CreateTestLedgerEntry(episode, models.PlacementPreRoll, 1)
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
