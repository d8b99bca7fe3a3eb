package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/dto"
	"github.com/prohmpiriya/seat-reservation/internal/service"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/response"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Client-facing error details
const (
	DetailInvalidEvent        = "Invalid event_id"
	DetailInvalidUser         = "Invalid user_id"
	DetailSeatNotFound        = "Seat not found"
	DetailSeatAlreadyReserved = "Seat already reserved"
	DetailInvalidEventOrUser  = "Invalid event_id or user_id"
	DetailReservationFailed   = "Reservation failed"
	DetailReservationNotFound = "Reservation not found"
	DetailInvalidRequestBody  = "Invalid request body"
	DetailInvalidReservation  = "Invalid reservation_id"
	DetailInternal            = "Internal server error"
)

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	engine  service.AllocationEngine
	queries service.ReservationQueryService
	log     *logger.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(engine service.AllocationEngine, queries service.ReservationQueryService, log *logger.Logger) *ReservationHandler {
	if log == nil {
		log = logger.Get()
	}
	return &ReservationHandler{
		engine:  engine,
		queries: queries,
		log:     log.Named("reservation-handler"),
	}
}

// RegisterRoutes mounts the reservation routes on rg
func (h *ReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reservations := rg.Group("/reservations")
	reservations.POST("/reserve", h.Reserve)
	reservations.GET("/user/:user_id", h.ListForUser)
	reservations.GET("/event/:event_id", h.ListForEvent)
	reservations.DELETE("/:reservation_id", h.Cancel)
}

// Reserve handles POST /reservations/reserve
func (h *ReservationHandler) Reserve(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.reserve")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, DetailInvalidRequestBody)
		return
	}

	claim := req.ToClaim()
	span.SetAttributes(
		attribute.Int64("event_id", claim.EventID),
		attribute.Int64("seat_id", claim.SeatID),
		attribute.Int64("user_id", claim.UserID),
	)

	result, err := h.engine.Reserve(ctx, claim)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("reservation_id", result.ReservationID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.ReserveResponse{
		ReservationID: result.ReservationID,
		Status:        result.Status,
	})
}

// ListForUser handles GET /reservations/user/:user_id
func (h *ReservationHandler) ListForUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id", DetailInvalidUser)
	if !ok {
		return
	}

	list, err := h.queries.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "failed to list reservations for user", err)
		return
	}
	response.OK(c, dto.FromUserReservations(list))
}

// ListForEvent handles GET /reservations/event/:event_id
func (h *ReservationHandler) ListForEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event_id", DetailInvalidEvent)
	if !ok {
		return
	}

	list, err := h.queries.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		h.internalError(c, "failed to list reservations for event", err)
		return
	}
	response.OK(c, dto.FromEventReservations(list))
}

// Cancel handles DELETE /reservations/:reservation_id
func (h *ReservationHandler) Cancel(c *gin.Context) {
	reservationID, ok := pathID(c, "reservation_id", DetailInvalidReservation)
	if !ok {
		return
	}

	err := h.queries.Cancel(c.Request.Context(), reservationID)
	switch {
	case err == nil:
		response.OK(c, dto.CancelResponse{Status: "cancelled"})
	case domain.IsNotFoundError(err):
		response.NotFound(c, DetailReservationNotFound)
	default:
		h.internalError(c, "failed to cancel reservation", err)
	}
}

// handleClaimError maps a claim outcome to a status and detail
func (h *ReservationHandler) handleClaimError(c *gin.Context, err error) {
	var claimErr *domain.ClaimError
	if errors.As(err, &claimErr) && claimErr.State == domain.ClaimStateFailed {
		response.InternalError(c, DetailReservationFailed)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidEvent):
		response.BadRequest(c, DetailInvalidEvent)
	case errors.Is(err, domain.ErrInvalidUser):
		response.BadRequest(c, DetailInvalidUser)
	case errors.Is(err, domain.ErrSeatNotFound):
		response.BadRequest(c, DetailSeatNotFound)
	case errors.Is(err, domain.ErrSeatAlreadyReserved):
		response.BadRequest(c, DetailSeatAlreadyReserved)
	case errors.Is(err, domain.ErrReferentialViolation):
		response.BadRequest(c, DetailInvalidEventOrUser)
	default:
		response.InternalError(c, DetailReservationFailed)
	}
}

func (h *ReservationHandler) internalError(c *gin.Context, msg string, err error) {
	h.log.WithContext(c.Request.Context()).Error(msg, zap.Error(err))
	response.InternalError(c, DetailInternal)
}

// pathID parses an integer path parameter, writing a 400 when it is not one
func pathID(c *gin.Context, name, detail string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.Detail(c, http.StatusBadRequest, detail)
		return 0, false
	}
	return id, true
}
