// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
	testingutil "github.com/ebfarnell/podcastflow-pro-sub003/testing"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewShowRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByUUID", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, show.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, show.ID, found.ID)
			assert.Equal(t, show.Name, found.Name)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, "4d0ff49a-7d87-44ae-a4a2-fa4111a87b2e")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByFilterNetwork", func(t *testing.T) {
			network := "Acme Audio"
			_, err := fixtures.CreateTestShowInNetwork(&network)
			require.NoError(t, err)
			_, err = fixtures.CreateTestShowInNetwork(&network)
			require.NoError(t, err)

			shows, err := repo.ByFilter(ctx, models.ShowFilter{Network: &network}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, shows, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestEpisodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewEpisodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByShowAndAirDate", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			airDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
			episode, err := fixtures.CreateTestEpisode(show, airDate, 1800)
			require.NoError(t, err)

			found, err := repo.ByShowAndAirDate(ctx, show.ID, airDate)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, episode.ID, found.ID)
		})

		t.Run("ByShowAndAirDateMissing", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			found, err := repo.ByShowAndAirDate(ctx, show.ID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSlotLedgerRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSlotLedgerRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("EnsureEntryIsIdempotent", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)
			episode, err := fixtures.CreateTestEpisode(show, utils.UTCNow().Add(24*time.Hour), 1800)
			require.NoError(t, err)

			entry, err := repo.EnsureEntry(ctx, episode.ID, models.PlacementMidRoll, 2)
			require.NoError(t, err)
			assert.Equal(t, 2, entry.TotalSlots)
			assert.Equal(t, 2, entry.Available)

			// Mutate, then ensure again: the existing row must win
			require.NoError(t, repo.Reserve(ctx, episode.ID, models.PlacementMidRoll, 1))
			again, err := repo.EnsureEntry(ctx, episode.ID, models.PlacementMidRoll, 5)
			require.NoError(t, err)
			assert.Equal(t, entry.ID, again.ID)
			assert.Equal(t, 2, again.TotalSlots)
			assert.Equal(t, 1, again.Available)
		})

		t.Run("ReserveGuardsAvailability", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 2)
			require.NoError(t, err)

			require.NoError(t, repo.Reserve(ctx, episode.ID, models.PlacementPreRoll, 2))

			err = repo.Reserve(ctx, episode.ID, models.PlacementPreRoll, 1)
			assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)

			entry, err := repo.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
			require.NoError(t, err)
			assert.Equal(t, 0, entry.Available)
			assert.Equal(t, 2, entry.Reserved)
			assert.True(t, entry.Balanced())
		})

		t.Run("ConfirmMovesReservedToBooked", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 3)
			require.NoError(t, err)

			require.NoError(t, repo.Reserve(ctx, episode.ID, models.PlacementMidRoll, 2))
			require.NoError(t, repo.Confirm(ctx, episode.ID, models.PlacementMidRoll, 2))

			entry, err := repo.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementMidRoll)
			require.NoError(t, err)
			assert.Equal(t, 1, entry.Available)
			assert.Equal(t, 0, entry.Reserved)
			assert.Equal(t, 2, entry.Booked)
			assert.True(t, entry.Balanced())
		})

		t.Run("ConfirmUnderflowRejected", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 3)
			require.NoError(t, err)

			err = repo.Confirm(ctx, episode.ID, models.PlacementMidRoll, 1)
			assert.ErrorIs(t, err, repository.ErrLedgerUnderflow)
		})

		t.Run("ReleaseFromReserved", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPostRoll, 2)
			require.NoError(t, err)

			require.NoError(t, repo.Reserve(ctx, episode.ID, models.PlacementPostRoll, 2))
			require.NoError(t, repo.Release(ctx, episode.ID, models.PlacementPostRoll, 1, false))

			entry, err := repo.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPostRoll)
			require.NoError(t, err)
			assert.Equal(t, 1, entry.Available)
			assert.Equal(t, 1, entry.Reserved)
			assert.True(t, entry.Balanced())
		})

		t.Run("ReleaseFromBooked", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPostRoll, 2)
			require.NoError(t, err)

			require.NoError(t, repo.Reserve(ctx, episode.ID, models.PlacementPostRoll, 1))
			require.NoError(t, repo.Confirm(ctx, episode.ID, models.PlacementPostRoll, 1))
			require.NoError(t, repo.Release(ctx, episode.ID, models.PlacementPostRoll, 1, true))

			entry, err := repo.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPostRoll)
			require.NoError(t, err)
			assert.Equal(t, 2, entry.Available)
			assert.Equal(t, 0, entry.Booked)
			assert.True(t, entry.Balanced())
		})

		t.Run("ReleaseUnderflowRejected", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 1)
			require.NoError(t, err)

			err = repo.Release(ctx, episode.ID, models.PlacementPreRoll, 1, false)
			assert.ErrorIs(t, err, repository.ErrLedgerUnderflow)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestReservationRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewReservationRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByUUID", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)
			reservation, err := fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, reservation.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, reservation.ID, found.ID)
		})

		t.Run("FindExpired", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 4)
			require.NoError(t, err)

			expired, err := fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(-time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(time.Hour))
			require.NoError(t, err)

			found, err := repo.FindExpired(ctx, utils.UTCNow(), 10)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, expired.ID, found[0].ID)
		})

		t.Run("FindExpiredSkipsTerminal", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 4)
			require.NoError(t, err)

			reservation, err := fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(-time.Hour))
			require.NoError(t, err)

			ok, err := repo.MarkTerminalIfReserved(ctx, reservation.ID, models.ReservationStatusConfirmed, nil)
			require.NoError(t, err)
			require.True(t, ok)

			found, err := repo.FindExpired(ctx, utils.UTCNow(), 10)
			require.NoError(t, err)
			assert.Empty(t, found)
		})

		t.Run("MarkTerminalIfReservedLosesSecondRace", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 2)
			require.NoError(t, err)
			reservation, err := fixtures.CreateTestReservation(episode, models.PlacementPreRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)

			ok, err := repo.MarkTerminalIfReserved(ctx, reservation.ID, models.ReservationStatusConfirmed, map[string]any{
				"approval_status": models.ApprovalStatusApproved,
			})
			require.NoError(t, err)
			assert.True(t, ok)

			// A concurrent expiration attempt must not win
			ok, err = repo.MarkTerminalIfReserved(ctx, reservation.ID, models.ReservationStatusExpired, nil)
			require.NoError(t, err)
			assert.False(t, ok)

			found, err := repo.ByUUID(ctx, reservation.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.ReservationStatusConfirmed, found.Status)
		})

		t.Run("CountPendingByOrder", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPostRoll, 4)
			require.NoError(t, err)

			first, err := fixtures.CreateTestReservation(episode, models.PlacementPostRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)
			second, err := fixtures.CreateTestReservation(episode, models.PlacementPostRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)

			orderID := "order-count-pending"
			require.NoError(t, testDB.DB.Model(&models.Reservation{}).
				Where("id IN ?", []uint{first.ID, second.ID}).
				Update("order_id", orderID).Error)

			count, err := repo.CountPendingByOrder(ctx, orderID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			ok, err := repo.MarkTerminalIfReserved(ctx, first.ID, models.ReservationStatusConfirmed, map[string]any{
				"approval_status": models.ApprovalStatusApproved,
			})
			require.NoError(t, err)
			require.True(t, ok)

			count, err = repo.CountPendingByOrder(ctx, orderID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestExclusivityRuleRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewExclusivityRuleRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("FindActiveOverlapping", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
			rule, err := fixtures.CreateTestExclusivityRule(show, "automotive", models.ExclusivityLevelShow, start, end)
			require.NoError(t, err)

			at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
			rules, err := repo.FindActiveOverlapping(ctx, show.ID, "automotive", models.ExclusivityLevelShow, at, at)
			require.NoError(t, err)
			require.Len(t, rules, 1)
			assert.Equal(t, rule.ID, rules[0].ID)

			// Different category does not match
			rules, err = repo.FindActiveOverlapping(ctx, show.ID, "insurance", models.ExclusivityLevelShow, at, at)
			require.NoError(t, err)
			assert.Empty(t, rules)

			// Out of window does not match
			outside := end.Add(48 * time.Hour)
			rules, err = repo.FindActiveOverlapping(ctx, show.ID, "automotive", models.ExclusivityLevelShow, outside, outside)
			require.NoError(t, err)
			assert.Empty(t, rules)
		})

		t.Run("SetActiveRemovesFromLookup", func(t *testing.T) {
			show, err := fixtures.CreateTestShow()
			require.NoError(t, err)

			start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
			rule, err := fixtures.CreateTestExclusivityRule(show, "finance", models.ExclusivityLevelShow, start, end)
			require.NoError(t, err)

			require.NoError(t, repo.SetActive(ctx, rule.ID, false))

			at := time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)
			rules, err := repo.FindActiveOverlapping(ctx, show.ID, "finance", models.ExclusivityLevelShow, at, at)
			require.NoError(t, err)
			assert.Empty(t, rules)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestChangeLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewChangeLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ListByReservationOrdered", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)
			reservation, err := fixtures.CreateTestReservation(episode, models.PlacementMidRoll, 1, utils.UTCNow().Add(48*time.Hour))
			require.NoError(t, err)

			for i, changeType := range []string{models.ChangeTypeHoldCreated, models.ChangeTypeHoldApproved} {
				entry := &models.InventoryChangeLog{
					EpisodeID:     episode.ID,
					PlacementType: models.PlacementMidRoll,
					ReservationID: &reservation.ID,
					ChangeType:    changeType,
					CreatedAt:     utils.UTCNow().Add(time.Duration(i) * time.Second),
				}
				require.NoError(t, repo.Save(ctx, entry))
			}

			logs, err := repo.ListByReservation(ctx, reservation.ID)
			require.NoError(t, err)
			require.Len(t, logs, 2)
			assert.Equal(t, models.ChangeTypeHoldCreated, logs[0].ChangeType)
			assert.Equal(t, models.ChangeTypeHoldApproved, logs[1].ChangeType)
		})

		t.Run("ListByEpisodePaged", func(t *testing.T) {
			episode, _, err := fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 2)
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				entry := &models.InventoryChangeLog{
					EpisodeID:     episode.ID,
					PlacementType: models.PlacementPreRoll,
					ChangeType:    models.ChangeTypeHoldCreated,
					CreatedAt:     utils.UTCNow().Add(time.Duration(i) * time.Second),
				}
				require.NoError(t, repo.Save(ctx, entry))
			}

			logs, err := repo.ListByEpisode(ctx, episode.ID, 3, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 3)

			logs, err = repo.ListByEpisode(ctx, episode.ID, 3, 3)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		return nil
	})
	require.NoError(t, err)
}
