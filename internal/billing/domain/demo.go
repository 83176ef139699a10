package billing

import "time"

// DemoReservations returns the sample report rows shown before any payment exists.
func DemoReservations(now time.Time) []Reservation {
	now = now.UTC()
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	return []Reservation{
		{
			ID: "res-001", SlotID: "slot-1", SlotLabel: "A-001", SlotType: "standard",
			UserEmail: "john@example.com", ReservationDate: now,
			CheckInTime: at(-2 * time.Hour), CheckOutTime: at(-time.Hour),
			Status: ReservationCompleted, DurationHours: 2, Amount: 500,
			PaymentStatus: PaymentCompleted, CreatedAt: now,
		},
		{
			ID: "res-002", SlotID: "slot-5", SlotLabel: "A-005", SlotType: "ev",
			UserEmail: "jane@example.com", ReservationDate: now,
			CheckInTime: at(0),
			Status:      ReservationActive, DurationHours: 3, Amount: 750,
			PaymentStatus: PaymentCompleted, CreatedAt: now,
		},
		{
			ID: "res-003", SlotID: "slot-12", SlotLabel: "A-012", SlotType: "disabled",
			UserEmail: "mike@example.com", ReservationDate: now.Add(24 * time.Hour),
			Status: ReservationActive, DurationHours: 1, Amount: 250,
			PaymentStatus: PaymentPending, CreatedAt: now,
		},
		{
			ID: "res-004", SlotID: "slot-18", SlotLabel: "A-018", SlotType: "standard",
			UserEmail: "sarah@example.com", ReservationDate: now.Add(-24 * time.Hour),
			CheckInTime: at(-24 * time.Hour), CheckOutTime: at(-23 * time.Hour),
			Status: ReservationCompleted, DurationHours: 1, Amount: 250,
			PaymentStatus: PaymentCompleted, CreatedAt: now,
		},
		{
			ID: "res-005", SlotID: "slot-25", SlotLabel: "A-025", SlotType: "standard",
			UserEmail: "alex@example.com", ReservationDate: now,
			Status: ReservationActive, DurationHours: 2, Amount: 500,
			PaymentStatus: PaymentCompleted, CreatedAt: now,
		},
	}
}
