package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUser  = &helpers.Identity{UserID: "user-1", Email: "user@university.edu", Role: helpers.RoleUser}
	testAdmin = &helpers.Identity{UserID: "admin-1", Email: "admin@university.edu", Role: helpers.RoleAdmin}
)

func validRequest() *models.BookingRequest {
	return &models.BookingRequest{
		LocationID:        "indoor-stadium",
		LocationName:      "Indoor Stadium",
		Date:              "2025-03-01",
		StartTime:         "10:00",
		EndTime:           "12:00",
		Purpose:           "Basketball tournament",
		OrganizerName:     "Ada",
		OrganizerContact:  "0240000000",
		ExpectedAttendees: "300",
	}
}

func TestGenerateBookingID(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^BK-20250301-[A-Z0-9]{5}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateBookingID(now)
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestValidateBookingRequest(t *testing.T) {
	n, err := ValidateBookingRequest(validRequest(), 300)
	require.NoError(t, err)
	assert.Equal(t, 300, n)

	tests := []struct {
		name   string
		mutate func(r *models.BookingRequest)
		want   string
	}{
		{"over capacity", func(r *models.BookingRequest) { r.ExpectedAttendees = "301" }, "exceeds capacity"},
		{"missing purpose", func(r *models.BookingRequest) { r.Purpose = "" }, "missing field"},
		{"missing attendees", func(r *models.BookingRequest) { r.ExpectedAttendees = "" }, "missing field"},
		{"end equals start", func(r *models.BookingRequest) { r.EndTime = "10:00" }, "end before start"},
		{"end before start", func(r *models.BookingRequest) { r.StartTime = "14:00" }, "end before start"},
		{"zero attendees", func(r *models.BookingRequest) { r.ExpectedAttendees = "0" }, "invalid attendee count"},
		{"text attendees", func(r *models.BookingRequest) { r.ExpectedAttendees = "many" }, "invalid attendee count"},
		{"bad date", func(r *models.BookingRequest) { r.Date = "01/03/2025" }, "invalid date"},
		{"off-catalog slot", func(r *models.BookingRequest) { r.StartTime = "10:30" }, "invalid time slot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := ValidateBookingRequest(req, 300)
			require.Error(t, err)
			assert.True(t, helpers.IsKind(err, helpers.KindValidation))
			assert.Equal(t, tt.want, helpers.PublicMessage(err))
		})
	}
}

func TestListAvailableSlots(t *testing.T) {
	bookings := []*models.Booking{
		{BookingID: "a", LocationID: "auditorium", Date: "2025-03-01", StartTime: "10:00", EndTime: "11:00", Status: models.BookingPending},
		{BookingID: "b", LocationID: "auditorium", Date: "2025-03-01", StartTime: "14:00", EndTime: "16:00", Status: models.BookingRejected},
		{BookingID: "c", LocationID: "auditorium", Date: "2025-03-02", StartTime: "08:00", EndTime: "22:00", Status: models.BookingApproved},
		{BookingID: "d", LocationID: "student-center", Date: "2025-03-01", StartTime: "08:00", EndTime: "22:00", Status: models.BookingApproved},
	}

	slots := ListAvailableSlots("auditorium", "2025-03-01", bookings)
	require.Len(t, slots, len(models.TimeSlots))

	booked := map[string]bool{}
	for _, s := range slots {
		booked[s.Time] = s.Booked
	}
	assert.True(t, booked["10:00"])
	assert.False(t, booked["11:00"], "end slot is exclusive")
	assert.False(t, booked["09:00"])
	assert.False(t, booked["14:00"], "rejected bookings free their slots")
	assert.False(t, booked["15:00"])
}

func TestConflictingSlots(t *testing.T) {
	bookings := []*models.Booking{
		{LocationID: "auditorium", Date: "2025-03-01", StartTime: "10:00", EndTime: "12:00", Status: models.BookingApproved},
	}

	assert.Equal(t, []string{"11:00"}, ConflictingSlots("auditorium", "2025-03-01", "11:00", "13:00", bookings))
	assert.Empty(t, ConflictingSlots("auditorium", "2025-03-01", "12:00", "14:00", bookings))
	assert.Empty(t, ConflictingSlots("auditorium", "2025-03-01", "bad", "14:00", bookings))
}

func TestNewBooking(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	req := validRequest()
	req.UserEmail = "someone-else@example.com"

	b := NewBooking(req, 300, testUser, "BK-20250301-ABCDE", now)
	assert.Equal(t, "BK-20250301-ABCDE", b.BookingID)
	assert.Equal(t, "user-1", b.UserID)
	assert.Equal(t, "user@university.edu", b.UserEmail)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, "", b.AdminNotes)
	assert.Equal(t, now, b.CreatedAt)
	assert.Nil(t, b.UpdatedAt)

	noEmail := &helpers.Identity{UserID: "user-2", Role: helpers.RoleUser}
	b = NewBooking(req, 300, noEmail, "BK-20250301-FGHIJ", now)
	assert.Equal(t, "someone-else@example.com", b.UserEmail)
}

func TestTransitionStatus(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	original := NewBooking(validRequest(), 300, testUser, "BK-20250301-ABCDE", now.Add(-time.Hour))

	approved, err := TransitionStatus(original, models.BookingApproved, "See you there", testAdmin, now)
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, approved.Status)
	assert.Equal(t, "See you there", approved.AdminNotes)
	assert.Equal(t, "admin-1", approved.UpdatedBy)
	require.NotNil(t, approved.UpdatedAt)
	assert.Equal(t, now, *approved.UpdatedAt)
	assert.Equal(t, models.BookingPending, original.Status, "input is not mutated")

	// A decided booking may be decided again.
	rejected, err := TransitionStatus(approved, models.BookingRejected, "Double booked", testAdmin, now)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRejected, rejected.Status)

	_, err = TransitionStatus(original, models.BookingPending, "", testAdmin, now)
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))

	_, err = TransitionStatus(nil, models.BookingApproved, "", testAdmin, now)
	assert.True(t, helpers.IsKind(err, helpers.KindNotFound))

	_, err = TransitionStatus(original, models.BookingApproved, "", testUser, now)
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(testUser, ""))
	assert.NoError(t, Authorize(testAdmin, helpers.RoleAdmin))

	err := Authorize(nil, "")
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))

	err = Authorize(&helpers.Identity{Role: helpers.RoleAdmin}, helpers.RoleAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))

	err = Authorize(testUser, helpers.RoleAdmin)
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
	assert.Equal(t, "Forbidden - Admin access required", helpers.PublicMessage(err))
}

func TestMessages(t *testing.T) {
	b := NewBooking(validRequest(), 120, testUser, "BK-20250301-ABCDE", time.Now())

	subject, body := SubmissionMessage(b)
	assert.Equal(t, "Booking Request Submitted - BK-20250301-ABCDE", subject)
	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "- Expected Attendees: 120")
	assert.Contains(t, body, "PENDING REVIEW")

	b.Status = models.BookingRejected
	b.AdminNotes = "Venue under maintenance"
	subject, body = DecisionMessage(b)
	assert.Equal(t, "Booking REJECTED - BK-20250301-ABCDE", subject)
	assert.Contains(t, body, "has been rejected!")
	assert.Contains(t, body, "Admin Notes:\nVenue under maintenance")

	b.Status = models.BookingApproved
	b.AdminNotes = ""
	_, body = DecisionMessage(b)
	assert.Contains(t, body, "15 minutes before")
	assert.NotContains(t, body, "Admin Notes")

	subject, body = WelcomeMessage("Kofi")
	assert.Equal(t, "Welcome to UniBook - Account Created", subject)
	assert.Contains(t, body, "Hi Kofi,")
}
