package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/seat-reservation/internal/di"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/handler"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type stubEngine struct{}

func (stubEngine) Reserve(ctx context.Context, req domain.ClaimRequest) (*domain.ClaimResult, error) {
	if req.SeatID == 13 {
		return nil, domain.Rejected(domain.ClaimStateChecking, domain.ReasonSeatAlreadyReserved, nil)
	}
	return &domain.ClaimResult{ReservationID: 1, Status: domain.ClaimStatusConfirmed}, nil
}

type stubQueries struct{}

func (stubQueries) ListForUser(ctx context.Context, userID int64) ([]*domain.Reservation, error) {
	return nil, nil
}

func (stubQueries) ListForEvent(ctx context.Context, eventID int64) ([]*domain.Reservation, error) {
	return []*domain.Reservation{{ID: 1, EventID: eventID, SeatID: 42, UserID: 3}}, nil
}

func (stubQueries) Cancel(ctx context.Context, reservationID int64) error {
	if reservationID == 404 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	container := &di.Container{
		HealthHandler:      handler.NewHealthHandler(nil, nil, nil, nil),
		ReservationHandler: handler.NewReservationHandler(stubEngine{}, stubQueries{}, logger.NewNop()),
	}
	router := setupRouter(container, "reservation-service", logger.NewNop())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"reserve", http.MethodPost, "/api/v1/reservations/reserve", `{"event_id":7,"seat_id":42,"user_id":3}`, http.StatusCreated, `{"reservation_id":1,"status":"confirmed"}`},
		{"reserve taken", http.MethodPost, "/api/v1/reservations/reserve", `{"event_id":7,"seat_id":13,"user_id":3}`, http.StatusBadRequest, `{"detail":"Seat already reserved"}`},
		{"list user", http.MethodGet, "/api/v1/reservations/user/3", "", http.StatusOK, `[]`},
		{"list event", http.MethodGet, "/api/v1/reservations/event/7", "", http.StatusOK, `[{"reservation_id":1,"seat_id":42,"user_id":3}]`},
		{"cancel", http.MethodDelete, "/api/v1/reservations/1", "", http.StatusOK, `{"status":"cancelled"}`},
		{"cancel missing", http.MethodDelete, "/api/v1/reservations/404", "", http.StatusNotFound, `{"detail":"Reservation not found"}`},
		{"unversioned path", http.MethodPost, "/reservations/reserve", `{}`, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
