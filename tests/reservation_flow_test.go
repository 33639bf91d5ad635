// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"sync"
	"testing"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/dto"
	"github.com/ebfarnell/podcastflow-pro-sub003/app/services"
	businessflow "github.com/ebfarnell/podcastflow-pro-sub003/business_flow"
	"github.com/ebfarnell/podcastflow-pro-sub003/config"
	"github.com/ebfarnell/podcastflow-pro-sub003/models"
	"github.com/ebfarnell/podcastflow-pro-sub003/repository"
	testingutil "github.com/ebfarnell/podcastflow-pro-sub003/testing"
	"github.com/ebfarnell/podcastflow-pro-sub003/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowHarness struct {
	flow      businessflow.ReservationFlow
	publisher *services.MockEventPublisher
	fixtures  *testingutil.TestFixtures
	ledgers   repository.SlotLedgerRepository
	logs      repository.ChangeLogRepository
}

func newFlowHarness(testDB *testingutil.TestDB) *flowHarness {
	publisher := services.NewMockEventPublisher()
	ledgers := repository.NewSlotLedgerRepository(testDB.DB)
	logs := repository.NewChangeLogRepository(testDB.DB)

	flow := businessflow.NewReservationFlow(
		repository.NewShowRepository(testDB.DB),
		repository.NewEpisodeRepository(testDB.DB),
		ledgers,
		repository.NewReservationRepository(testDB.DB),
		repository.NewExclusivityRuleRepository(testDB.DB),
		logs,
		testDB.DB,
		publisher,
		config.InventoryConfig{DefaultHoldTTL: 48 * time.Hour, MaxHoldCount: 10},
	)

	return &flowHarness{
		flow:      flow,
		publisher: publisher,
		fixtures:  testingutil.NewTestFixtures(testDB),
		ledgers:   ledgers,
		logs:      logs,
	}
}

func holdRequest(episode *models.Episode, placement models.PlacementType) *dto.CreateHoldRequest {
	return &dto.CreateHoldRequest{
		EpisodeUUID:   episode.UUID.String(),
		PlacementType: placement.String(),
		OrderID:       "order-1",
	}
}

func testActor() *businessflow.ActorMetadata {
	return businessflow.NewActorMetadata("seller-1", "127.0.0.1", "go-test")
}

func TestCreateHold(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("HappyPath", func(t *testing.T) {
			show, err := h.fixtures.CreateTestShow()
			require.NoError(t, err)
			// 1800s with the default configuration yields two mid-rolls
			episode, err := h.fixtures.CreateTestEpisode(show, utils.UTCNow().Add(7*24*time.Hour), 1800)
			require.NoError(t, err)

			resp, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementMidRoll), testActor())
			require.NoError(t, err)
			assert.Equal(t, "reserved", resp.Reservation.Status)
			assert.Equal(t, "pending", resp.Reservation.ApprovalStatus)
			assert.Equal(t, episode.UUID.String(), resp.Reservation.EpisodeUUID)
			assert.True(t, resp.ExpiresAt.After(utils.UTCNow().Add(47*time.Hour)))

			// Ledger row is created on demand from the spot configuration
			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementMidRoll)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, 2, entry.TotalSlots)
			assert.Equal(t, 1, entry.Available)
			assert.Equal(t, 1, entry.Reserved)
			assert.True(t, entry.Balanced())

			// Change log records the hold with before and after counters
			logs, err := h.logs.ListByEpisode(ctx, episode.ID, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, logs)
			assert.Equal(t, models.ChangeTypeHoldCreated, logs[0].ChangeType)
			assert.NotEmpty(t, logs[0].CountersBefore)
			assert.NotEmpty(t, logs[0].CountersAfter)

			require.NotEmpty(t, h.publisher.Events)
			last := h.publisher.Events[len(h.publisher.Events)-1]
			assert.Equal(t, services.EventHoldCreated, last.Type)
		})

		t.Run("NoOversell", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 1)
			require.NoError(t, err)

			_, err = h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
			require.NoError(t, err)

			_, err = h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
			require.Error(t, err)
			assert.True(t, businessflow.IsInsufficientCapacity(err))

			// Failed hold must leave the ledger untouched
			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
			require.NoError(t, err)
			assert.Equal(t, 0, entry.Available)
			assert.Equal(t, 1, entry.Reserved)
			assert.True(t, entry.Balanced())
		})

		t.Run("UnknownEpisode", func(t *testing.T) {
			req := &dto.CreateHoldRequest{
				EpisodeUUID:   "0b0e33bd-34a4-4f32-9ad9-540fd2c4ee87",
				PlacementType: "mid_roll",
				OrderID:       "order-x",
			}
			_, err := h.flow.CreateHold(ctx, req, testActor())
			assert.True(t, businessflow.IsEpisodeNotFound(err))
		})

		t.Run("InvalidHoldCount", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)

			req := holdRequest(episode, models.PlacementMidRoll)
			req.SlotCount = utils.ToPtr(50)
			_, err = h.flow.CreateHold(ctx, req, testActor())
			assert.Error(t, err)
		})

		t.Run("ExclusivityConflictBlocks", func(t *testing.T) {
			show, err := h.fixtures.CreateTestShow()
			require.NoError(t, err)
			episode, err := h.fixtures.CreateTestEpisode(show, utils.UTCNow().Add(7*24*time.Hour), 1800)
			require.NoError(t, err)

			_, err = h.fixtures.CreateTestExclusivityRule(show, "automotive", models.ExclusivityLevelShow,
				utils.UTCNow().Add(-24*time.Hour), utils.UTCNow().Add(30*24*time.Hour))
			require.NoError(t, err)

			req := holdRequest(episode, models.PlacementMidRoll)
			req.Category = utils.ToPtr("automotive")
			req.AdvertiserID = utils.ToPtr("adv-2")
			_, err = h.flow.CreateHold(ctx, req, testActor())
			require.Error(t, err)
			assert.True(t, businessflow.IsExclusivityConflict(err))
		})

		t.Run("ExclusivityHolderNotBlocked", func(t *testing.T) {
			show, err := h.fixtures.CreateTestShow()
			require.NoError(t, err)
			episode, err := h.fixtures.CreateTestEpisode(show, utils.UTCNow().Add(7*24*time.Hour), 1800)
			require.NoError(t, err)

			rule, err := h.fixtures.CreateTestExclusivityRule(show, "finance", models.ExclusivityLevelShow,
				utils.UTCNow().Add(-24*time.Hour), utils.UTCNow().Add(30*24*time.Hour))
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(rule).Update("advertiser_id", "adv-1").Error)

			req := holdRequest(episode, models.PlacementMidRoll)
			req.Category = utils.ToPtr("finance")
			req.AdvertiserID = utils.ToPtr("adv-1")
			_, err = h.flow.CreateHold(ctx, req, testActor())
			assert.NoError(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestApproveAndRejectHold(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ApproveMovesSlotsToBooked", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)

			created, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementMidRoll), testActor())
			require.NoError(t, err)

			resp, err := h.flow.ApproveHold(ctx, &dto.ApproveHoldRequest{ReservationUUID: created.Reservation.UUID}, testActor())
			require.NoError(t, err)
			assert.Equal(t, "confirmed", resp.Reservation.Status)
			assert.Equal(t, "approved", resp.Reservation.ApprovalStatus)
			assert.True(t, resp.OrderFullyApproved)

			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementMidRoll)
			require.NoError(t, err)
			assert.Equal(t, 0, entry.Reserved)
			assert.Equal(t, 1, entry.Booked)
			assert.True(t, entry.Balanced())

			last := h.publisher.Events[len(h.publisher.Events)-1]
			assert.Equal(t, services.EventOrderFullyApproved, last.Type)
		})

		t.Run("OrderNotFullyApprovedWhileHoldsPend", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPostRoll, 2)
			require.NoError(t, err)

			req := holdRequest(episode, models.PlacementPostRoll)
			req.OrderID = "order-partial"
			first, err := h.flow.CreateHold(ctx, req, testActor())
			require.NoError(t, err)
			_, err = h.flow.CreateHold(ctx, req, testActor())
			require.NoError(t, err)

			resp, err := h.flow.ApproveHold(ctx, &dto.ApproveHoldRequest{ReservationUUID: first.Reservation.UUID}, testActor())
			require.NoError(t, err)
			assert.False(t, resp.OrderFullyApproved)
		})

		t.Run("ApproveTwiceRejected", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)

			created, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementMidRoll), testActor())
			require.NoError(t, err)

			approve := &dto.ApproveHoldRequest{ReservationUUID: created.Reservation.UUID}
			_, err = h.flow.ApproveHold(ctx, approve, testActor())
			require.NoError(t, err)

			_, err = h.flow.ApproveHold(ctx, approve, testActor())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTransition(err))
		})

		t.Run("RejectRestoresCapacity", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 1)
			require.NoError(t, err)

			created, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
			require.NoError(t, err)

			resp, err := h.flow.RejectHold(ctx, &dto.RejectHoldRequest{
				ReservationUUID: created.Reservation.UUID,
				Reason:          utils.ToPtr("advertiser pulled the order"),
			}, testActor())
			require.NoError(t, err)
			assert.Equal(t, "released", resp.Reservation.Status)
			assert.Equal(t, "rejected", resp.Reservation.ApprovalStatus)
			require.NotNil(t, resp.Reservation.RejectionReason)

			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
			require.NoError(t, err)
			assert.Equal(t, 1, entry.Available)
			assert.Equal(t, 0, entry.Reserved)

			// Freed capacity is immediately reservable again
			_, err = h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
			assert.NoError(t, err)
		})

		t.Run("UnknownReservation", func(t *testing.T) {
			_, err := h.flow.ApproveHold(ctx, &dto.ApproveHoldRequest{
				ReservationUUID: "6c2e2a57-3df0-4f66-b6ce-10101f639e0c",
			}, testActor())
			assert.True(t, businessflow.IsReservationNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSweepExpired(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ExpiredHoldsReleased", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 2)
			require.NoError(t, err)

			req := holdRequest(episode, models.PlacementMidRoll)
			req.TTLHours = utils.ToPtr(1)
			created, err := h.flow.CreateHold(ctx, req, testActor())
			require.NoError(t, err)

			// Force the hold past its deadline
			require.NoError(t, testDB.DB.Model(&models.Reservation{}).
				Where("uuid = ?", created.Reservation.UUID).
				Update("expires_at", utils.UTCNow().Add(-time.Minute)).Error)

			swept, err := h.flow.SweepExpired(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, 1, swept)

			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementMidRoll)
			require.NoError(t, err)
			assert.Equal(t, 2, entry.Available)
			assert.Equal(t, 0, entry.Reserved)
			assert.True(t, entry.Balanced())

			last := h.publisher.Events[len(h.publisher.Events)-1]
			assert.Equal(t, services.EventHoldExpired, last.Type)
		})

		t.Run("SweepIsIdempotent", func(t *testing.T) {
			swept, err := h.flow.SweepExpired(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, 0, swept)
		})

		t.Run("ApprovedHoldsNotSwept", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 1)
			require.NoError(t, err)

			created, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
			require.NoError(t, err)
			_, err = h.flow.ApproveHold(ctx, &dto.ApproveHoldRequest{ReservationUUID: created.Reservation.UUID}, testActor())
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Model(&models.Reservation{}).
				Where("uuid = ?", created.Reservation.UUID).
				Update("expires_at", utils.UTCNow().Add(-time.Minute)).Error)

			swept, err := h.flow.SweepExpired(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, 0, swept)

			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
			require.NoError(t, err)
			assert.Equal(t, 1, entry.Booked)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListHoldsAndLedger(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ListFiltersByOrder", func(t *testing.T) {
			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementMidRoll, 4)
			require.NoError(t, err)

			for _, orderID := range []string{"order-a", "order-a", "order-b"} {
				req := holdRequest(episode, models.PlacementMidRoll)
				req.OrderID = orderID
				_, err := h.flow.CreateHold(ctx, req, testActor())
				require.NoError(t, err)
			}

			resp, err := h.flow.ListHolds(ctx, &dto.ListHoldsRequest{OrderID: utils.ToPtr("order-a")})
			require.NoError(t, err)
			assert.Equal(t, int64(2), resp.Pagination.Total)
			assert.Len(t, resp.Items, 2)
		})

		t.Run("ListPagination", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPostRoll, 5)
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				_, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPostRoll), testActor())
				require.NoError(t, err)
			}

			resp, err := h.flow.ListHolds(ctx, &dto.ListHoldsRequest{Page: 2, PageSize: 2})
			require.NoError(t, err)
			assert.Equal(t, int64(5), resp.Pagination.Total)
			assert.Len(t, resp.Items, 2)
		})

		t.Run("LedgerSynthesizesUntouchedPlacements", func(t *testing.T) {
			show, err := h.fixtures.CreateTestShow()
			require.NoError(t, err)
			episode, err := h.fixtures.CreateTestEpisode(show, utils.UTCNow().Add(7*24*time.Hour), 1800)
			require.NoError(t, err)

			// Touch one placement only
			_, err = h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementMidRoll), testActor())
			require.NoError(t, err)

			resp, err := h.flow.GetLedger(ctx, &dto.GetLedgerRequest{EpisodeUUID: episode.UUID.String()})
			require.NoError(t, err)
			require.Len(t, resp.Entries, 3)

			byPlacement := make(map[string]dto.LedgerEntryDTO, len(resp.Entries))
			for _, entry := range resp.Entries {
				byPlacement[entry.PlacementType] = entry
			}

			assert.Equal(t, 1, byPlacement["mid_roll"].Reserved)
			assert.Equal(t, 1, byPlacement["mid_roll"].Available)

			// Untouched placements report full availability from the spot configuration
			assert.Equal(t, 1, byPlacement["pre_roll"].TotalSlots)
			assert.Equal(t, 1, byPlacement["pre_roll"].Available)
			assert.Equal(t, 0, byPlacement["pre_roll"].Reserved)
			assert.Equal(t, 1, byPlacement["post_roll"].Available)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPreRollLifecycle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, 2)
		require.NoError(t, err)

		counters := func() *models.SlotLedgerEntry {
			entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.True(t, entry.Balanced())
			return entry
		}

		holdA, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
		require.NoError(t, err)
		entry := counters()
		assert.Equal(t, 1, entry.Available)
		assert.Equal(t, 1, entry.Reserved)

		holdB, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
		require.NoError(t, err)
		entry = counters()
		assert.Equal(t, 0, entry.Available)
		assert.Equal(t, 2, entry.Reserved)

		_, err = h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
		require.Error(t, err)
		assert.True(t, businessflow.IsInsufficientCapacity(err))

		_, err = h.flow.ApproveHold(ctx, &dto.ApproveHoldRequest{ReservationUUID: holdA.Reservation.UUID}, testActor())
		require.NoError(t, err)
		entry = counters()
		assert.Equal(t, 1, entry.Booked)
		assert.Equal(t, 1, entry.Reserved)

		_, err = h.flow.RejectHold(ctx, &dto.RejectHoldRequest{
			ReservationUUID: holdB.Reservation.UUID,
			Reason:          utils.ToPtr("advertiser pulled out"),
		}, testActor())
		require.NoError(t, err)
		entry = counters()
		assert.Equal(t, 1, entry.Available)
		assert.Equal(t, 0, entry.Reserved)
		assert.Equal(t, 1, entry.Booked)

		holdD, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
		require.NoError(t, err)
		assert.Equal(t, "reserved", holdD.Reservation.Status)
		entry = counters()
		assert.Equal(t, 0, entry.Available)
		assert.Equal(t, 1, entry.Reserved)
		assert.Equal(t, 1, entry.Booked)

		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentHoldsNoOversell(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newFlowHarness(testDB)
		ctx := testingutil.CreateTestContext()

		const attempts = 6
		const capacity = 2

		episode, _, err := h.fixtures.CreateEpisodeWithInventory(models.PlacementPreRoll, capacity)
		require.NoError(t, err)

		results := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.flow.CreateHold(ctx, holdRequest(episode, models.PlacementPreRoll), testActor())
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded, rejected := 0, 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			require.True(t, businessflow.IsInsufficientCapacity(err), "unexpected error: %v", err)
			rejected++
		}
		assert.Equal(t, capacity, succeeded)
		assert.Equal(t, attempts-capacity, rejected)

		entry, err := h.ledgers.ByEpisodeAndPlacement(ctx, episode.ID, models.PlacementPreRoll)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, entry.Balanced())
		assert.Equal(t, 0, entry.Available)
		assert.Equal(t, capacity, entry.Reserved)

		return nil
	})
	require.NoError(t, err)
}
