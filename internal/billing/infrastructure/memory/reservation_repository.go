package memory

import (
	"context"
	"sort"
	"sync"

	billing "smartpark-iot/internal/billing/domain"
)

// ReservationRepository is an in-memory reservation store.
type ReservationRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]billing.Reservation
}

// NewReservationRepository constructs a repository holding seed.
func NewReservationRepository(seed ...billing.Reservation) *ReservationRepository {
	repo := &ReservationRepository{byID: make(map[string]billing.Reservation)}
	for _, r := range seed {
		_ = repo.Save(context.Background(), r)
	}
	return repo
}

// Save inserts or replaces a reservation.
func (r *ReservationRepository) Save(_ context.Context, reservation billing.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[reservation.ID]; !exists {
		r.order = append(r.order, reservation.ID)
	}
	r.byID[reservation.ID] = reservation
	return nil
}

// Get returns a reservation or ErrNotFound.
func (r *ReservationRepository) Get(_ context.Context, id string) (*billing.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reservation, ok := r.byID[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return &reservation, nil
}

// List returns matching reservations, newest first. Ties keep insertion order.
func (r *ReservationRepository) List(_ context.Context, filter billing.Filter) ([]billing.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]billing.Reservation, 0, len(r.order))
	for _, id := range r.order {
		reservation := r.byID[id]
		if filter.Matches(reservation) {
			out = append(out, reservation)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
