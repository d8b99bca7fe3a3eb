package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "reservation-events"

func newTestRepo() *PostgresReservationRepository {
	return NewPostgresReservationRepository(testDB, NewPostgresOutboxRepository(testDB), testTopic)
}

// claim runs the full lock, check, insert, commit sequence
func claim(ctx context.Context, repo ReservationRepository, req domain.ClaimRequest) (int64, error) {
	tx, err := repo.BeginClaim(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	found, err := tx.LockSeat(ctx, req.SeatID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, domain.ErrSeatNotFound
	}

	taken, err := tx.HasActiveReservation(ctx, req.SeatID)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, domain.ErrSeatAlreadyReserved
	}

	id, err := tx.InsertReservation(ctx, domain.NewReservation(req))
	if err != nil {
		return 0, err
	}
	return id, tx.Commit(ctx)
}

func TestClassifyError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrReferentialViolation},
		{"active seat unique", &pgconn.PgError{Code: "23505", ConstraintName: activeSeatIndex}, domain.ErrDuplicateActiveReservation},
		{"plain error", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyError(tt.in), tt.want)
		})
	}

	other23505 := &pgconn.PgError{Code: "23505", ConstraintName: "outbox_pkey"}
	assert.NotErrorIs(t, classifyError(other23505), domain.ErrDuplicateActiveReservation)
}

func TestPostgresReservationRepository_ClaimAndList(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{42, 7}, [2]int64{43, 7})
	ctx := context.Background()
	repo := newTestRepo()

	id, err := claim(ctx, repo, domain.ClaimRequest{EventID: 7, SeatID: 42, UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	byEvent, err := repo.ListByEvent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	assert.Equal(t, int64(42), byEvent[0].SeatID)
	assert.Equal(t, int64(3), byEvent[0].UserID)
	assert.Equal(t, domain.ReservationStatusActive, byEvent[0].Status)

	byUser, err := repo.ListByUser(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, int64(7), byUser[0].EventID)

	empty, err := repo.ListByUser(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPostgresReservationRepository_SeatStates(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10})
	ctx := context.Background()
	repo := newTestRepo()

	_, err := claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 99, UserID: 5})
	assert.ErrorIs(t, err, domain.ErrSeatNotFound)

	_, err = claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 5})
	require.NoError(t, err)

	_, err = claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 6})
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyReserved)
}

func TestPostgresReservationRepository_ReferentialViolation(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10})
	ctx := context.Background()
	repo := newTestRepo()

	// Seat 1 belongs to event 10, not 11.
	_, err := claim(ctx, repo, domain.ClaimRequest{EventID: 11, SeatID: 1, UserID: 5})
	assert.ErrorIs(t, err, domain.ErrReferentialViolation)

	list, err := repo.ListByEvent(ctx, 11)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 5})
	assert.NoError(t, err)
}

func TestPostgresReservationRepository_RollbackLeavesNoRow(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10})
	ctx := context.Background()
	repo := newTestRepo()

	tx, err := repo.BeginClaim(ctx)
	require.NoError(t, err)
	found, err := tx.LockSeat(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	_, err = tx.InsertReservation(ctx, domain.NewReservation(domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 5}))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx))

	list, err := repo.ListByEvent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	stats, err := NewPostgresOutboxRepository(testDB).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Pending)

	_, err = claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 6})
	assert.NoError(t, err)
}

func TestPostgresReservationRepository_DuplicateActiveIndex(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10})
	ctx := context.Background()
	repo := newTestRepo()

	_, err := claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 5})
	require.NoError(t, err)

	// Insert without taking the lock or checking first.
	tx, err := repo.BeginClaim(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	_, err = tx.InsertReservation(ctx, domain.NewReservation(domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 6}))
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveReservation)
}

func TestPostgresReservationRepository_MutualExclusion(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10}, [2]int64{2, 10})
	ctx := context.Background()
	repo := newTestRepo()

	const n = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		rejected int
		others   []error
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: user})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, domain.ErrSeatAlreadyReserved):
				rejected++
			default:
				others = append(others, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, winners)
	assert.Equal(t, n-1, rejected)

	list, err := repo.ListByEvent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostgresReservationRepository_Delete(t *testing.T) {
	skipIfNoIntegration(t)
	resetTables(t, [2]int64{1, 10})
	ctx := context.Background()
	repo := newTestRepo()

	id, err := claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 5})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	for i := 0; i < 2; i++ {
		deleted, err = repo.Delete(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	}

	id2, err := claim(ctx, repo, domain.ClaimRequest{EventID: 10, SeatID: 1, UserID: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	stats, err := NewPostgresOutboxRepository(testDB).Stats(ctx)
	require.NoError(t, err)
	// confirmed, cancelled, confirmed
	assert.Equal(t, int64(3), stats.Pending)
}
