package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	billing "smartpark-iot/internal/billing/domain"
	"smartpark-iot/internal/observability/metrics"
	parking "smartpark-iot/internal/parking/domain"
)

// SlotReserver is the part of the parking session a payment needs.
type SlotReserver interface {
	Slot(id string) (parking.ParkingSlot, error)
	ReserveSlot(ctx context.Context, id string) bool
}

// CreatePaymentRequest is a payment for a number of hours on one slot.
// Amount is accepted for compatibility and ignored; the server computes it.
type CreatePaymentRequest struct {
	SlotID    string `json:"slotId"`
	SlotLabel string `json:"slotLabel"`
	SlotType  string `json:"slotType"`
	Hours     int    `json:"hours"`
	Amount    int    `json:"amount"`
	UserID    string `json:"-"`
	UserEmail string `json:"-"`
}

// PaymentService records simulated payments and holds the paid slot.
type PaymentService struct {
	repo   billing.Repository
	slots  SlotReserver
	rate   int
	logger *log.Logger
	now    func() time.Time
}

// NewPaymentService constructs a service. A non-positive rate uses PricePerHour.
func NewPaymentService(repo billing.Repository, slots SlotReserver, rate int, logger *log.Logger) (*PaymentService, error) {
	if repo == nil {
		return nil, errors.New("payment service: nil repo")
	}
	if slots == nil {
		return nil, errors.New("payment service: nil slot reserver")
	}
	if logger == nil {
		return nil, errors.New("payment service: nil logger")
	}
	if rate <= 0 {
		rate = billing.PricePerHour
	}
	return &PaymentService{
		repo:   repo,
		slots:  slots,
		rate:   rate,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Rate returns the hourly price.
func (s *PaymentService) Rate() int {
	return s.rate
}

// Create charges hours × rate, stores an active paid reservation and reserves the slot.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*billing.Receipt, error) {
	if req.SlotID == "" {
		return nil, fmt.Errorf("%w: slotId is required", billing.ErrInvalidPayment)
	}
	if req.Hours < 1 || req.Hours > billing.MaxHours {
		return nil, fmt.Errorf("%w: hours must be between 1 and %d", billing.ErrInvalidPayment, billing.MaxHours)
	}
	slot, err := s.slots.Slot(req.SlotID)
	if err != nil {
		if errors.Is(err, parking.ErrSlotNotFound) {
			return nil, billing.ErrSlotNotFound
		}
		return nil, err
	}

	now := s.now()
	reservation := billing.Reservation{
		ID:              uuid.NewString(),
		SlotID:          slot.ID,
		SlotLabel:       slot.Label,
		SlotType:        string(slot.Type),
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		ReservationDate: now,
		Status:          billing.ReservationActive,
		DurationHours:   req.Hours,
		Amount:          req.Hours * s.rate,
		PaymentStatus:   billing.PaymentCompleted,
		CreatedAt:       now,
	}
	if err := s.repo.Save(ctx, reservation); err != nil {
		return nil, fmt.Errorf("payment service: save reservation: %w", err)
	}
	s.slots.ReserveSlot(ctx, slot.ID)

	metrics.ObservePayment(reservation.Amount)
	s.logger.Printf("payment created: id=%s slot=%s hours=%d amount=%d", reservation.ID, slot.ID, req.Hours, reservation.Amount)
	receipt := billing.ReceiptFor(reservation, s.rate)
	return &receipt, nil
}

// Receipt loads the receipt of a paid reservation.
func (s *PaymentService) Receipt(ctx context.Context, id string) (*billing.Receipt, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.PaymentStatus != billing.PaymentCompleted {
		return nil, billing.ErrNotFound
	}
	receipt := billing.ReceiptFor(*reservation, s.rate)
	return &receipt, nil
}
