package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepo interface {
	SaveBooking(ctx context.Context, booking *Booking) error
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	ListBookings(ctx context.Context) ([]*Booking, error)
}

// KVBookingRepo stores each booking under "booking:<id>" in a KVStore.
type KVBookingRepo struct {
	store KVStore
}

func NewKVBookingRepo(store KVStore) *KVBookingRepo {
	return &KVBookingRepo{store: store}
}

func (r *KVBookingRepo) SaveBooking(ctx context.Context, booking *Booking) error {
	if booking == nil || booking.BookingID == "" {
		return fmt.Errorf("booking has no id")
	}
	raw, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to marshal booking %s: %w", booking.BookingID, err)
	}
	return r.store.Set(ctx, BookingKey(booking.BookingID), raw)
}

func (r *KVBookingRepo) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	raw, err := r.store.Get(ctx, BookingKey(bookingID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	var b Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking %s: %w", bookingID, err)
	}
	return &b, nil
}

func (r *KVBookingRepo) ListBookings(ctx context.Context) ([]*Booking, error) {
	raws, err := r.store.GetByPrefix(ctx, BookingKeyPrefix)
	if err != nil {
		return nil, err
	}

	bookings := make([]*Booking, 0, len(raws))
	for _, raw := range raws {
		var b Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking record: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}
