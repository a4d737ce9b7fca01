package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
)

const bookingIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateBookingID returns BK-<YYYYMMDD>-<5 base36 chars>. Uniqueness is
// not checked; the suffix space makes same-day collisions negligible.
func GenerateBookingID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = bookingIDAlphabet[rand.IntN(len(bookingIDAlphabet))]
	}
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), suffix)
}

// ListAvailableSlots reports, for every catalog slot, whether a
// non-rejected booking of the facility-day covers it.
func ListAvailableSlots(locationID, date string, bookings []*models.Booking) []models.SlotAvailability {
	sameDay := bookingsFor(locationID, date, bookings)

	slots := make([]models.SlotAvailability, 0, len(models.TimeSlots))
	for _, slot := range models.TimeSlots {
		v, _ := models.SlotValue(slot)
		slots = append(slots, models.SlotAvailability{Time: slot, Booked: anyCovers(sameDay, v)})
	}
	return slots
}

// ConflictingSlots lists the catalog slots in [start, end) that are already
// taken on the facility-day.
func ConflictingSlots(locationID, date, start, end string, bookings []*models.Booking) []string {
	from, err := models.SlotValue(start)
	if err != nil {
		return nil
	}
	to, err := models.SlotValue(end)
	if err != nil {
		return nil
	}

	var taken []string
	for _, s := range ListAvailableSlots(locationID, date, bookings) {
		v, _ := models.SlotValue(s.Time)
		if s.Booked && v >= from && v < to {
			taken = append(taken, s.Time)
		}
	}
	return taken
}

func bookingsFor(locationID, date string, bookings []*models.Booking) []*models.Booking {
	var out []*models.Booking
	for _, b := range bookings {
		if b.LocationID == locationID && b.Date == date && b.Status != models.BookingRejected {
			out = append(out, b)
		}
	}
	return out
}

func anyCovers(bookings []*models.Booking, slot int) bool {
	for _, b := range bookings {
		if b.Covers(slot) {
			return true
		}
	}
	return false
}

// ValidateBookingRequest checks a creation request against the facility
// capacity and returns the parsed attendee count. Overlap with existing
// bookings is not checked here.
func ValidateBookingRequest(req *models.BookingRequest, capacity int) (int, error) {
	if req == nil {
		return 0, helpers.NewValidationError("missing field")
	}

	if err := models.Validate.Struct(req); err != nil {
		return 0, validationMessage(err)
	}

	start, _ := models.SlotValue(req.StartTime)
	end, _ := models.SlotValue(req.EndTime)
	if end <= start {
		return 0, helpers.NewValidationError("end before start")
	}

	attendees, err := req.ExpectedAttendees.Int()
	if err != nil {
		return 0, helpers.NewValidationError("invalid attendee count")
	}

	if attendees > capacity {
		return 0, helpers.NewValidationError("exceeds capacity")
	}

	return attendees, nil
}

// validationMessage reports missing fields ahead of malformed ones.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return helpers.NewValidationError("invalid booking request")
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return helpers.NewValidationError("missing field")
		}
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			return helpers.NewValidationError("invalid date")
		case "timeslot":
			return helpers.NewValidationError("invalid time slot")
		}
	}
	return helpers.NewValidationError("invalid booking request")
}

// NewBooking builds a pending booking owned by identity.
func NewBooking(req *models.BookingRequest, attendees int, identity *helpers.Identity, bookingID string, now time.Time) *models.Booking {
	email := identity.Email
	if email == "" {
		email = req.UserEmail
	}
	return &models.Booking{
		BookingID:         bookingID,
		UserID:            identity.UserID,
		UserEmail:         email,
		LocationID:        req.LocationID,
		LocationName:      req.LocationName,
		Date:              req.Date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Purpose:           req.Purpose,
		OrganizerName:     req.OrganizerName,
		OrganizerContact:  req.OrganizerContact,
		ExpectedAttendees: attendees,
		Status:            models.BookingPending,
		AdminNotes:        "",
		CreatedAt:         now.UTC(),
	}
}

// TransitionStatus returns a copy of b carrying the administrator's
// decision. The current status is not consulted.
func TransitionStatus(b *models.Booking, status models.BookingStatus, notes string, admin *helpers.Identity, now time.Time) (*models.Booking, error) {
	if !status.IsDecision() {
		return nil, helpers.NewValidationError("invalid status")
	}
	if b == nil {
		return nil, helpers.NewNotFoundError("Booking not found")
	}
	if err := Authorize(admin, helpers.RoleAdmin); err != nil {
		return nil, err
	}

	updated := *b
	updatedAt := now.UTC()
	updated.Status = status
	updated.AdminNotes = notes
	updated.UpdatedAt = &updatedAt
	updated.UpdatedBy = admin.UserID
	return &updated, nil
}

// Authorize checks that identity is present and, when requiredRole is not
// empty, that it holds that role.
func Authorize(identity *helpers.Identity, requiredRole string) error {
	if identity == nil || identity.UserID == "" {
		return helpers.NewUnauthorizedError("Unauthorized - Invalid access token")
	}
	if requiredRole != "" && !identity.HasRole(requiredRole) {
		return helpers.NewForbiddenError("Forbidden - " + titleCase(requiredRole) + " access required")
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SubmissionMessage is the e-mail sent when a booking request is received.
func SubmissionMessage(b *models.Booking) (subject, body string) {
	subject = "Booking Request Submitted - " + b.BookingID

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", b.OrganizerName)
	sb.WriteString("Your booking request has been submitted successfully!\n\n")
	sb.WriteString("Booking Details:\n")
	fmt.Fprintf(&sb, "- Booking ID: %s\n", b.BookingID)
	fmt.Fprintf(&sb, "- Location: %s\n", b.LocationName)
	fmt.Fprintf(&sb, "- Date: %s\n", b.Date)
	fmt.Fprintf(&sb, "- Time: %s - %s\n", b.StartTime, b.EndTime)
	fmt.Fprintf(&sb, "- Purpose: %s\n", b.Purpose)
	fmt.Fprintf(&sb, "- Expected Attendees: %d\n\n", b.ExpectedAttendees)
	sb.WriteString("Status: PENDING REVIEW\n\n")
	sb.WriteString("Your booking is currently being reviewed by our administrators. ")
	sb.WriteString("You will receive another email once your booking has been approved or if any changes are needed.\n\n")
	sb.WriteString("Best regards,\nUniBook Team")
	return subject, sb.String()
}

// DecisionMessage is the e-mail sent after an approval or rejection.
func DecisionMessage(b *models.Booking) (subject, body string) {
	statusText := strings.ToUpper(string(b.Status))
	mark := "✗"
	if b.Status == models.BookingApproved {
		mark = "✓"
	}
	subject = fmt.Sprintf("Booking %s - %s", statusText, b.BookingID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", b.OrganizerName)
	fmt.Fprintf(&sb, "Your booking request has been %s!\n\n", strings.ToLower(statusText))
	fmt.Fprintf(&sb, "%s Booking Details:\n", mark)
	fmt.Fprintf(&sb, "- Booking ID: %s\n", b.BookingID)
	fmt.Fprintf(&sb, "- Location: %s\n", b.LocationName)
	fmt.Fprintf(&sb, "- Date: %s\n", b.Date)
	fmt.Fprintf(&sb, "- Time: %s - %s\n", b.StartTime, b.EndTime)
	fmt.Fprintf(&sb, "- Status: %s\n\n", statusText)
	if b.AdminNotes != "" {
		fmt.Fprintf(&sb, "Admin Notes:\n%s\n\n", b.AdminNotes)
	}
	if b.Status == models.BookingApproved {
		sb.WriteString("Please arrive at least 15 minutes before your scheduled time. ")
		sb.WriteString("If you need to cancel or make changes, please contact us immediately.\n\n")
	} else {
		sb.WriteString("If you have any questions about this decision, please contact our administrative office.\n\n")
	}
	sb.WriteString("Best regards,\nUniBook Team")
	return subject, sb.String()
}

// WelcomeMessage is the e-mail sent after signup.
func WelcomeMessage(name string) (subject, body string) {
	subject = "Welcome to UniBook - Account Created"
	body = fmt.Sprintf("Hi %s,\n\nYour UniBook account has been successfully created!\n\n"+
		"You can now login and start booking university facilities.\n\n"+
		"Best regards,\nUniBook Team", name)
	return subject, body
}
