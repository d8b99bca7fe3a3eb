package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationQueryService_List(t *testing.T) {
	repo := &MockReservationRepository{
		ListByUserFunc: func(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
			assert.Equal(t, int64(3), userID)
			return []*domain.Reservation{{ID: 1, EventID: 7, SeatID: 42, UserID: 3}}, nil
		},
		ListByEventFunc: func(ctx context.Context, eventID int64) ([]*domain.Reservation, error) {
			return nil, errors.New("pool closed")
		},
	}
	svc := NewReservationQueryService(repo, nil, logger.NewNop())

	list, err := svc.ListForUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].SeatID)

	_, err = svc.ListForEvent(context.Background(), 7)
	assert.ErrorContains(t, err, "pool closed")
}

func TestReservationQueryService_Cancel(t *testing.T) {
	storeDown := errors.New("connection refused")

	tests := []struct {
		name          string
		deleted       bool
		repoErr       error
		wantErr       error
		wantCancelled int
	}{
		{name: "deleted", deleted: true, wantCancelled: 1},
		{name: "not found", deleted: false, wantErr: domain.ErrReservationNotFound},
		{name: "store error", repoErr: storeDown, wantErr: storeDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockReservationRepository{
				DeleteFunc: func(ctx context.Context, id int64) (bool, error) {
					assert.Equal(t, int64(5), id)
					return tt.deleted, tt.repoErr
				},
			}
			rec := newFakeRecorder()
			svc := NewReservationQueryService(repo, rec, logger.NewNop())

			err := svc.Cancel(context.Background(), 5)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCancelled, rec.cancelled)
			if tt.repoErr != nil {
				assert.False(t, domain.IsNotFoundError(err))
			}
		})
	}
}
