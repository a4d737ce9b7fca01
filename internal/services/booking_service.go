package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/notifier"
)

type BookingOptions struct {
	// StrictSlotConflicts rejects creations that overlap a non-rejected
	// booking. Off by default: conflicts are advisory only.
	StrictSlotConflicts bool
	// StrictTransitions only allows decisions on pending bookings.
	StrictTransitions bool
}

type BookingService struct {
	bookingRepo models.BookingRepo
	catalog     *models.FacilityCatalog
	notifier    notifier.Notifier
	logger      *slog.Logger
	opts        BookingOptions

	now   func() time.Time
	newID func(time.Time) string
}

func NewBookingService(
	bookingRepo models.BookingRepo,
	catalog *models.FacilityCatalog,
	n notifier.Notifier,
	logger *slog.Logger,
	opts BookingOptions,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		catalog:     catalog,
		notifier:    n,
		logger:      logger,
		opts:        opts,
		now:         time.Now,
		newID:       GenerateBookingID,
	}
}

// ListPublicBookings returns the occupied ranges of a facility-day.
func (bs *BookingService) ListPublicBookings(ctx context.Context, locationID, date string) ([]models.PublicBooking, error) {
	locationID = strings.TrimSpace(locationID)
	date = strings.TrimSpace(date)
	if locationID == "" || date == "" {
		return nil, helpers.NewValidationError("location_id and date are required")
	}

	all, err := bs.listAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicBooking, 0)
	for _, b := range bookingsFor(locationID, date, all) {
		out = append(out, b.Public())
	}
	return out, nil
}

func (bs *BookingService) Availability(ctx context.Context, locationID, date string) ([]models.SlotAvailability, error) {
	if _, ok := bs.catalog.Get(locationID); !ok {
		return nil, helpers.NewNotFoundError("Facility not found")
	}
	if err := models.Validate.Var(date, "required,datetime=2006-01-02"); err != nil {
		return nil, helpers.NewValidationError("invalid date")
	}

	all, err := bs.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return ListAvailableSlots(locationID, date, all), nil
}

func (bs *BookingService) CreateBooking(ctx context.Context, req *models.BookingRequest, identity *helpers.Identity) (*models.Booking, error) {
	if err := Authorize(identity, ""); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, helpers.NewValidationError("missing field")
	}
	req.Sanitize()

	// Field errors take precedence over the catalog lookup.
	if err := models.Validate.Struct(req); err != nil {
		return nil, validationMessage(err)
	}
	facility, ok := bs.catalog.Get(req.LocationID)
	if !ok {
		return nil, helpers.NewValidationError("unknown location")
	}

	attendees, err := ValidateBookingRequest(req, facility.Capacity)
	if err != nil {
		return nil, err
	}
	if req.LocationName == "" {
		req.LocationName = facility.Name
	}

	if bs.opts.StrictSlotConflicts {
		all, err := bs.listAll(ctx)
		if err != nil {
			return nil, err
		}
		if taken := ConflictingSlots(req.LocationID, req.Date, req.StartTime, req.EndTime, all); len(taken) > 0 {
			return nil, helpers.NewConflictError("Requested time overlaps an existing booking: " + strings.Join(taken, ", "))
		}
	}

	now := bs.now()
	booking := NewBooking(req, attendees, identity, bs.newID(now), now)

	if err := bs.bookingRepo.SaveBooking(ctx, booking); err != nil {
		return nil, helpers.NewUpstreamError("failed to save booking", err)
	}

	bs.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.BookingID,
		"user_id", booking.UserID,
		"location_id", booking.LocationID,
		"date", booking.Date,
	)

	subject, body := SubmissionMessage(booking)
	bs.notify(ctx, booking.UserEmail, subject, body)

	return booking, nil
}

// ListUserBookings returns the caller's bookings, newest first.
func (bs *BookingService) ListUserBookings(ctx context.Context, identity *helpers.Identity) ([]*models.Booking, error) {
	if err := Authorize(identity, ""); err != nil {
		return nil, err
	}

	all, err := bs.listAll(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]*models.Booking, 0)
	for _, b := range all {
		if identity.IsOwner(b.UserID) {
			mine = append(mine, b)
		}
	}
	sortNewestFirst(mine)
	return mine, nil
}

// ListAllBookings returns every booking, newest first. Admin only.
func (bs *BookingService) ListAllBookings(ctx context.Context, identity *helpers.Identity) ([]*models.Booking, error) {
	if err := Authorize(identity, helpers.RoleAdmin); err != nil {
		return nil, err
	}

	all, err := bs.listAll(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)
	return all, nil
}

// UpdateBookingStatus records an administrator decision. The read and the
// write are not atomic; concurrent decisions on one booking are last write
// wins.
func (bs *BookingService) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus, notes string, admin *helpers.Identity) (*models.Booking, error) {
	if err := Authorize(admin, helpers.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.IsDecision() {
		return nil, helpers.NewValidationError("invalid status")
	}

	existing, err := bs.bookingRepo.GetBooking(ctx, strings.TrimSpace(bookingID))
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, helpers.NewNotFoundError("Booking not found")
	}
	if err != nil {
		return nil, helpers.NewUpstreamError("failed to load booking", err)
	}

	if bs.opts.StrictTransitions && existing.Status != models.BookingPending {
		return nil, helpers.NewConflictError("Booking already " + string(existing.Status))
	}

	updated, err := TransitionStatus(existing, status, strings.TrimSpace(notes), admin, bs.now())
	if err != nil {
		return nil, err
	}

	if err := bs.bookingRepo.SaveBooking(ctx, updated); err != nil {
		return nil, helpers.NewUpstreamError("failed to save booking", err)
	}

	bs.logger.InfoContext(ctx, "booking status changed",
		"booking_id", updated.BookingID,
		"from", existing.Status,
		"to", updated.Status,
		"admin_id", admin.UserID,
	)

	subject, body := DecisionMessage(updated)
	bs.notify(ctx, updated.UserEmail, subject, body)

	return updated, nil
}

func (bs *BookingService) listAll(ctx context.Context) ([]*models.Booking, error) {
	all, err := bs.bookingRepo.ListBookings(ctx)
	if err != nil {
		return nil, helpers.NewUpstreamError("failed to load bookings", err)
	}
	return all, nil
}

func (bs *BookingService) notify(ctx context.Context, to, subject, body string) {
	if to == "" {
		bs.logger.WarnContext(ctx, "notification skipped, no recipient", "subject", subject)
		return
	}
	if err := bs.notifier.Notify(ctx, to, subject, body); err != nil {
		bs.logger.WarnContext(ctx, "notification failed", "to", to, "subject", subject, "error", err)
	}
}

func sortNewestFirst(bookings []*models.Booking) {
	slices.SortStableFunc(bookings, func(a, b *models.Booking) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
