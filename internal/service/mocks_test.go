package service

import (
	"context"
	"sync"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockReservationRepository is a mock implementation of ReservationRepository
type MockReservationRepository struct {
	BeginClaimFunc  func(ctx context.Context) (repository.ClaimTx, error)
	ListByUserFunc  func(ctx context.Context, userID int64) ([]*domain.Reservation, error)
	ListByEventFunc func(ctx context.Context, eventID int64) ([]*domain.Reservation, error)
	DeleteFunc      func(ctx context.Context, reservationID int64) (bool, error)

	beginCalls int
}

func (m *MockReservationRepository) BeginClaim(ctx context.Context) (repository.ClaimTx, error) {
	m.beginCalls++
	if m.BeginClaimFunc != nil {
		return m.BeginClaimFunc(ctx)
	}
	return nil, nil
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*domain.Reservation{}, nil
}

func (m *MockReservationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error) {
	if m.ListByEventFunc != nil {
		return m.ListByEventFunc(ctx, eventID)
	}
	return []*domain.Reservation{}, nil
}

func (m *MockReservationRepository) Delete(ctx context.Context, reservationID int64) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, reservationID)
	}
	return false, nil
}

// MockClaimTx records the steps of a claim transaction
type MockClaimTx struct {
	mock.Mock
}

func (m *MockClaimTx) LockSeat(ctx context.Context, seatID int64) (bool, error) {
	args := m.Called(ctx, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimTx) HasActiveReservation(ctx context.Context, seatID int64) (bool, error) {
	args := m.Called(ctx, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimTx) InsertReservation(ctx context.Context, res *domain.Reservation) (int64, error) {
	args := m.Called(ctx, res)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClaimTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockClaimTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockValidator is a mock implementation of ExistenceValidator
type MockValidator struct {
	Event domain.Verdict
	User  domain.Verdict

	eventCalls int
	userCalls  int
}

func (m *MockValidator) CheckEvent(ctx context.Context, eventID int64) domain.Verdict {
	m.eventCalls++
	return m.Event
}

func (m *MockValidator) CheckUser(ctx context.Context, userID int64) domain.Verdict {
	m.userCalls++
	return m.User
}

type claimRecord struct {
	state  domain.ClaimState
	reason domain.RejectReason
}

// fakeRecorder captures metrics calls
type fakeRecorder struct {
	mu        sync.Mutex
	claims    []claimRecord
	verdicts  map[string][]domain.Verdict
	cancelled int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{verdicts: make(map[string][]domain.Verdict)}
}

func (r *fakeRecorder) ClaimFinished(ctx context.Context, state domain.ClaimState, reason domain.RejectReason, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims = append(r.claims, claimRecord{state, reason})
}

func (r *fakeRecorder) VerdictObserved(ctx context.Context, collaborator string, v domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts[collaborator] = append(r.verdicts[collaborator], v)
}

func (r *fakeRecorder) ReservationCancelled(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled++
}
