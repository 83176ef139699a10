package billing

import (
	"context"
	"errors"
	"strings"
	"time"
)

// PricePerHour is the parking rate in rupees.
const PricePerHour = 50

// MaxHours is the longest period one payment can cover.
const MaxHours = 12

var (
	// ErrNotFound indicates no reservation matched.
	ErrNotFound = errors.New("billing: reservation not found")
	// ErrInvalidPayment indicates a malformed payment request.
	ErrInvalidPayment = errors.New("billing: invalid payment")
	// ErrSlotNotFound indicates the payment names an unknown slot.
	ErrSlotNotFound = errors.New("billing: slot not found")
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// PaymentStatus is the payment state of a reservation.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Reservation is one booked and possibly paid parking period.
type Reservation struct {
	ID              string            `json:"id"`
	SlotID          string            `json:"slotId"`
	SlotLabel       string            `json:"slotLabel"`
	SlotType        string            `json:"slotType"`
	UserID          string            `json:"userId,omitempty"`
	UserEmail       string            `json:"userEmail,omitempty"`
	ReservationDate time.Time         `json:"reservationDate"`
	CheckInTime     *time.Time        `json:"checkInTime,omitempty"`
	CheckOutTime    *time.Time        `json:"checkOutTime,omitempty"`
	Status          ReservationStatus `json:"status"`
	DurationHours   int               `json:"durationHours"`
	Amount          int               `json:"amount"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Filter selects reservations for the report. Empty fields match everything.
type Filter struct {
	Search        string
	Status        ReservationStatus
	PaymentStatus PaymentStatus
}

// Matches reports whether r passes the filter. Search is a case-insensitive
// substring match on slot label, user email and id.
func (f Filter) Matches(r Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && r.PaymentStatus != f.PaymentStatus {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.SlotLabel), term) ||
		strings.Contains(strings.ToLower(r.UserEmail), term) ||
		strings.Contains(strings.ToLower(r.ID), term)
}

// Summary aggregates a reservation list.
type Summary struct {
	Completed    int `json:"completed"`
	Active       int `json:"active"`
	TotalRevenue int `json:"totalRevenue"`
}

// Summarize counts completed and active reservations and sums paid amounts.
func Summarize(list []Reservation) Summary {
	var s Summary
	for _, r := range list {
		switch r.Status {
		case ReservationCompleted:
			s.Completed++
		case ReservationActive:
			s.Active++
		}
		if r.PaymentStatus == PaymentCompleted {
			s.TotalRevenue += r.Amount
		}
	}
	return s
}

// Receipt is the payment confirmation returned to the payer.
type Receipt struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	SlotLabel string    `json:"slotLabel"`
	SlotType  string    `json:"slotType"`
	Hours     int       `json:"hours"`
	Amount    int       `json:"amount"`
	Rate      int       `json:"rate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReceiptStatusPaid marks a settled receipt.
const ReceiptStatusPaid = "paid"

// ReceiptFor derives the receipt of a paid reservation. The rate is the one the
// reservation was charged at; fallbackRate applies only when that cannot be derived.
func ReceiptFor(r Reservation, fallbackRate int) Receipt {
	rate := fallbackRate
	if r.DurationHours > 0 && r.Amount > 0 {
		rate = r.Amount / r.DurationHours
	}
	return Receipt{
		ID:        r.ID,
		SlotID:    r.SlotID,
		SlotLabel: r.SlotLabel,
		SlotType:  r.SlotType,
		Hours:     r.DurationHours,
		Amount:    r.Amount,
		Rate:      rate,
		Status:    ReceiptStatusPaid,
		CreatedAt: r.CreatedAt,
	}
}

// Repository persists reservations.
type Repository interface {
	Save(ctx context.Context, r Reservation) error
	Get(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]Reservation, error)
}
