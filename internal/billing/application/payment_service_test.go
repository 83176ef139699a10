package application

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	billing "smartpark-iot/internal/billing/domain"
	"smartpark-iot/internal/billing/infrastructure/memory"
	parking "smartpark-iot/internal/parking/domain"
)

type fakeSlots struct {
	slots    map[string]parking.ParkingSlot
	reserved []string
}

func (f *fakeSlots) Slot(id string) (parking.ParkingSlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return parking.ParkingSlot{}, parking.ErrSlotNotFound
	}
	return slot, nil
}

func (f *fakeSlots) ReserveSlot(_ context.Context, id string) bool {
	if _, ok := f.slots[id]; !ok {
		return false
	}
	f.reserved = append(f.reserved, id)
	return true
}

func newPaymentFixture(t *testing.T) (*PaymentService, *memory.ReservationRepository, *fakeSlots) {
	t.Helper()
	repo := memory.NewReservationRepository()
	slots := &fakeSlots{slots: map[string]parking.ParkingSlot{
		"slot-4": {ID: "slot-4", Label: "A-004", Type: parking.TypeStandard, Status: parking.StatusFree},
	}}
	service, err := NewPaymentService(repo, slots, 0, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return service, repo, slots
}

func TestPaymentCreate_ServerComputesAmount(t *testing.T) {
	service, repo, slots := newPaymentFixture(t)

	receipt, err := service.Create(context.Background(), CreatePaymentRequest{
		SlotID: "slot-4", SlotLabel: "spoofed", Hours: 3, Amount: 1, UserEmail: "kim@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.Amount != 150 || receipt.Rate != billing.PricePerHour || receipt.Status != billing.ReceiptStatusPaid {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.SlotLabel != "A-004" || receipt.SlotType != "standard" {
		t.Fatalf("receipt must use registry slot details, got %+v", receipt)
	}
	if len(slots.reserved) != 1 || slots.reserved[0] != "slot-4" {
		t.Fatalf("expected slot-4 reserved, got %v", slots.reserved)
	}

	stored, err := repo.Get(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != billing.ReservationActive || stored.PaymentStatus != billing.PaymentCompleted || stored.UserEmail != "kim@example.com" {
		t.Fatalf("unexpected reservation %+v", stored)
	}

	loaded, err := service.Receipt(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if *loaded != *receipt {
		t.Fatalf("receipt mismatch: %+v vs %+v", loaded, receipt)
	}
}

func TestPaymentCreate_Validation(t *testing.T) {
	service, _, slots := newPaymentFixture(t)
	cases := []struct {
		req  CreatePaymentRequest
		want error
	}{
		{CreatePaymentRequest{Hours: 1}, billing.ErrInvalidPayment},
		{CreatePaymentRequest{SlotID: "slot-4", Hours: 0}, billing.ErrInvalidPayment},
		{CreatePaymentRequest{SlotID: "slot-4", Hours: billing.MaxHours + 1}, billing.ErrInvalidPayment},
		{CreatePaymentRequest{SlotID: "slot-4", Hours: math.MaxInt64/billing.PricePerHour + 1}, billing.ErrInvalidPayment},
		{CreatePaymentRequest{SlotID: "slot-99", Hours: 1}, billing.ErrSlotNotFound},
	}
	for _, tc := range cases {
		if _, err := service.Create(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("req %+v: expected %v, got %v", tc.req, tc.want, err)
		}
	}
	if len(slots.reserved) != 0 {
		t.Fatalf("invalid payments must not reserve slots")
	}
}

func TestPaymentCreate_MaxHours(t *testing.T) {
	service, _, _ := newPaymentFixture(t)
	receipt, err := service.Create(context.Background(), CreatePaymentRequest{SlotID: "slot-4", Hours: billing.MaxHours})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if receipt.Amount != billing.MaxHours*billing.PricePerHour {
		t.Fatalf("unexpected amount %d", receipt.Amount)
	}
}

func TestReceipt_RateAfterPriceChange(t *testing.T) {
	service, repo, slots := newPaymentFixture(t)
	receipt, err := service.Create(context.Background(), CreatePaymentRequest{SlotID: "slot-4", Hours: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repriced, err := NewPaymentService(repo, slots, 80, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	loaded, err := repriced.Receipt(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if loaded.Rate != billing.PricePerHour || loaded.Rate*loaded.Hours != loaded.Amount {
		t.Fatalf("receipt must keep the charged rate, got %+v", loaded)
	}
}

func TestReceipt_PendingNotFound(t *testing.T) {
	repo := memory.NewReservationRepository(billing.Reservation{ID: "res-003", PaymentStatus: billing.PaymentPending})
	service, err := NewPaymentService(repo, &fakeSlots{}, 0, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := service.Receipt(context.Background(), "res-003"); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.Receipt(context.Background(), "nope"); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
