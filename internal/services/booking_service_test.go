package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type bookingFixture struct {
	svc      *BookingService
	repo     *models.KVBookingRepo
	notifier *notifier.RecordingNotifier
}

func newBookingFixture(t *testing.T, opts BookingOptions) *bookingFixture {
	t.Helper()
	catalog, err := models.LoadFacilityCatalog("")
	require.NoError(t, err)

	repo := models.NewKVBookingRepo(models.NewMemoryKVStore())
	rec := &notifier.RecordingNotifier{}
	svc := NewBookingService(repo, catalog, rec, discardLogger(), opts)

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return &bookingFixture{svc: svc, repo: repo, notifier: rec}
}

type failingRepo struct{}

func (failingRepo) SaveBooking(ctx context.Context, b *models.Booking) error {
	return errors.New("connection refused")
}

func (failingRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return nil, errors.New("connection refused")
}

func TestCreateBookingRoundTrip(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	created, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)
	assert.Regexp(t, `^BK-\d{8}-[A-Z0-9]{5}$`, created.BookingID)
	assert.Equal(t, models.BookingPending, created.Status)

	stored, err := f.repo.GetBooking(ctx, created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, created.BookingID, stored.BookingID)
	assert.Equal(t, 300, stored.ExpectedAttendees)
	assert.Equal(t, "user-1", stored.UserID)

	msgs := f.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user@university.edu", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, created.BookingID)
}

func TestCreateBookingRejections(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, validRequest(), nil)
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))

	req := validRequest()
	req.ExpectedAttendees = "301"
	_, err = f.svc.CreateBooking(ctx, req, testUser)
	assert.Equal(t, "exceeds capacity", helpers.PublicMessage(err))

	req = validRequest()
	req.LocationID = "moon-base"
	_, err = f.svc.CreateBooking(ctx, req, testUser)
	assert.Equal(t, "unknown location", helpers.PublicMessage(err))

	all, err := f.repo.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.notifier.Messages())
}

func TestCreateBookingReportsFieldErrorsBeforeUnknownLocation(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.BookingRequest)
		want   string
	}{
		{
			name: "missing purpose",
			mutate: func(r *models.BookingRequest) {
				r.LocationID = "moon-base"
				r.Purpose = ""
			},
			want: "missing field",
		},
		{
			name: "malformed date",
			mutate: func(r *models.BookingRequest) {
				r.LocationID = "moon-base"
				r.Date = "01/06/2024"
			},
			want: "invalid date",
		},
		{
			name: "empty location",
			mutate: func(r *models.BookingRequest) {
				r.LocationID = "   "
			},
			want: "missing field",
		},
		{
			name: "unknown location with valid fields",
			mutate: func(r *models.BookingRequest) {
				r.LocationID = "moon-base"
			},
			want: "unknown location",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := f.svc.CreateBooking(ctx, req, testUser)
			require.Error(t, err)
			assert.True(t, helpers.IsKind(err, helpers.KindValidation))
			assert.Equal(t, tt.want, helpers.PublicMessage(err))
		})
	}
}

func TestCreateBookingFillsLocationName(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	req := validRequest()
	req.LocationName = ""

	created, err := f.svc.CreateBooking(context.Background(), req, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Indoor Stadium", created.LocationName)
}

func TestCreateBookingSurvivesNotifierFailure(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	f.notifier.Err = errors.New("smtp down")

	created, err := f.svc.CreateBooking(context.Background(), validRequest(), testUser)
	require.NoError(t, err)
	assert.NotEmpty(t, created.BookingID)
}

func TestOverlapIsAdvisoryByDefault(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	public, err := f.svc.ListPublicBookings(ctx, "indoor-stadium", "2025-03-01")
	require.NoError(t, err)
	assert.Len(t, public, 2)
}

func TestStrictSlotConflicts(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{StrictSlotConflicts: true})
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	overlap := validRequest()
	overlap.StartTime, overlap.EndTime = "11:00", "13:00"
	_, err = f.svc.CreateBooking(ctx, overlap, testUser)
	assert.True(t, helpers.IsKind(err, helpers.KindConflict))

	adjacent := validRequest()
	adjacent.StartTime, adjacent.EndTime = "12:00", "14:00"
	_, err = f.svc.CreateBooking(ctx, adjacent, testUser)
	assert.NoError(t, err)
}

func TestAvailabilityScenario(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	req := validRequest()
	req.StartTime, req.EndTime = "10:00", "11:00"
	created, err := f.svc.CreateBooking(ctx, req, testUser)
	require.NoError(t, err)

	slotState := func() map[string]bool {
		slots, err := f.svc.Availability(ctx, "indoor-stadium", "2025-03-01")
		require.NoError(t, err)
		out := map[string]bool{}
		for _, s := range slots {
			out[s.Time] = s.Booked
		}
		return out
	}

	state := slotState()
	assert.True(t, state["10:00"])
	assert.False(t, state["11:00"])

	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingRejected, "Closed", testAdmin)
	require.NoError(t, err)
	assert.False(t, slotState()["10:00"])

	_, err = f.svc.Availability(ctx, "moon-base", "2025-03-01")
	assert.True(t, helpers.IsKind(err, helpers.KindNotFound))
	_, err = f.svc.Availability(ctx, "indoor-stadium", "tomorrow")
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))
}

func TestListPublicBookings(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	created, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	other := validRequest()
	other.Date = "2025-03-02"
	_, err = f.svc.CreateBooking(ctx, other, testUser)
	require.NoError(t, err)

	public, err := f.svc.ListPublicBookings(ctx, "indoor-stadium", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, created.BookingID, public[0].ID)
	assert.Equal(t, "10:00", public[0].StartTime)

	empty, err := f.svc.ListPublicBookings(ctx, "auditorium", "2025-03-01")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = f.svc.ListPublicBookings(ctx, "", "2025-03-01")
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))
}

func TestListUserAndAllBookings(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()
	other := &helpers.Identity{UserID: "user-2", Email: "other@university.edu", Role: helpers.RoleUser}

	first, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, validRequest(), other)
	require.NoError(t, err)
	second, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	mine, err := f.svc.ListUserBookings(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.BookingID, mine[0].BookingID)
	assert.Equal(t, first.BookingID, mine[1].BookingID)

	all, err := f.svc.ListAllBookings(ctx, testAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, second.BookingID, all[0].BookingID)

	_, err = f.svc.ListAllBookings(ctx, testUser)
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
	_, err = f.svc.ListUserBookings(ctx, nil)
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))
}

func TestUpdateBookingStatus(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{})
	ctx := context.Background()

	created, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	updated, err := f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingApproved, "  Enjoy  ", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, updated.Status)
	assert.Equal(t, "Enjoy", updated.AdminNotes)
	assert.Equal(t, "admin-1", updated.UpdatedBy)

	stored, err := f.repo.GetBooking(ctx, created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, stored.Status)
	require.NotNil(t, stored.UpdatedAt)

	// Deciding twice notifies twice.
	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingApproved, "Enjoy", testAdmin)
	require.NoError(t, err)
	msgs := f.notifier.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Booking APPROVED - "+created.BookingID, msgs[1].Subject)
	assert.Equal(t, msgs[1].Subject, msgs[2].Subject)

	_, err = f.svc.UpdateBookingStatus(ctx, "BK-00000000-XXXXX", models.BookingApproved, "", testAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindNotFound))

	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingStatus("cancelled"), "", testAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))

	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingRejected, "", testUser)
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
	stored, err = f.repo.GetBooking(ctx, created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, stored.Status)
}

func TestStrictTransitions(t *testing.T) {
	f := newBookingFixture(t, BookingOptions{StrictTransitions: true})
	ctx := context.Background()

	created, err := f.svc.CreateBooking(ctx, validRequest(), testUser)
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingRejected, "Full", testAdmin)
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(ctx, created.BookingID, models.BookingApproved, "", testAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindConflict))
	assert.Equal(t, 409, helpers.StatusCode(err))
	assert.Equal(t, "Booking already rejected", helpers.PublicMessage(err))
}

func TestStoreFailuresAreUpstream(t *testing.T) {
	catalog, err := models.LoadFacilityCatalog("")
	require.NoError(t, err)
	svc := NewBookingService(failingRepo{}, catalog, &notifier.RecordingNotifier{}, discardLogger(), BookingOptions{})
	ctx := context.Background()

	_, err = svc.CreateBooking(ctx, validRequest(), testUser)
	assert.True(t, helpers.IsKind(err, helpers.KindUpstream))
	assert.Equal(t, 500, helpers.StatusCode(err))

	_, err = svc.ListAllBookings(ctx, testAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindUpstream))

	_, err = svc.UpdateBookingStatus(ctx, "BK-1", models.BookingApproved, "", testAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindUpstream))
}
