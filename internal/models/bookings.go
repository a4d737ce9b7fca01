package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

// IsDecision reports whether s is a status an administrator may set.
func (s BookingStatus) IsDecision() bool {
	return s == BookingApproved || s == BookingRejected
}

const BookingKeyPrefix = "booking:"

func BookingKey(bookingID string) string {
	return BookingKeyPrefix + bookingID
}

// TimeSlots is the hourly slot catalog shared with clients.
var TimeSlots = []string{
	"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00", "19:00", "20:00", "21:00", "22:00",
}

// SlotValue converts "HH:MM" into its integer form, e.g. "09:00" -> 900.
func SlotValue(t string) (int, error) {
	v, err := strconv.Atoi(strings.Replace(strings.TrimSpace(t), ":", "", 1))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", t)
	}
	return v, nil
}

type Booking struct {
	BookingID         string        `json:"booking_id"`
	UserID            string        `json:"user_id"`
	UserEmail         string        `json:"user_email"`
	LocationID        string        `json:"location_id"`
	LocationName      string        `json:"location_name"`
	Date              string        `json:"date"`
	StartTime         string        `json:"start_time"`
	EndTime           string        `json:"end_time"`
	Purpose           string        `json:"purpose"`
	OrganizerName     string        `json:"organizer_name"`
	OrganizerContact  string        `json:"organizer_contact"`
	ExpectedAttendees int           `json:"expected_attendees"`
	Status            BookingStatus `json:"status"`
	AdminNotes        string        `json:"admin_notes"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         *time.Time    `json:"updated_at,omitempty"`
	UpdatedBy         string        `json:"updated_by,omitempty"`
}

// Covers reports whether the booking occupies the given slot on its
// facility-day. Rejected bookings occupy nothing.
func (b *Booking) Covers(slot int) bool {
	if b.Status == BookingRejected {
		return false
	}
	start, err := SlotValue(b.StartTime)
	if err != nil {
		return false
	}
	end, err := SlotValue(b.EndTime)
	if err != nil {
		return false
	}
	return slot >= start && slot < end
}

func (b *Booking) Public() PublicBooking {
	return PublicBooking{
		ID:         b.BookingID,
		LocationID: b.LocationID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     b.Status,
	}
}

// PublicBooking is the projection shown to anonymous callers.
type PublicBooking struct {
	ID         string        `json:"id"`
	LocationID string        `json:"location_id"`
	Date       string        `json:"date"`
	StartTime  string        `json:"start_time"`
	EndTime    string        `json:"end_time"`
	Status     BookingStatus `json:"status"`
}

type SlotAvailability struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

// AttendeeCount accepts both JSON numbers and numeric strings, the web form
// sends the latter.
type AttendeeCount string

func (a *AttendeeCount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AttendeeCount(strings.TrimSpace(s))
		return nil
	}
	*a = AttendeeCount(strings.TrimSpace(string(data)))
	return nil
}

// Int parses the count; only positive integers are accepted.
func (a AttendeeCount) Int() (int, error) {
	n, err := strconv.Atoi(string(a))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid attendee count %q", string(a))
	}
	return n, nil
}

type BookingRequest struct {
	LocationID        string        `json:"location_id" validate:"required"`
	LocationName      string        `json:"location_name"`
	Date              string        `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string        `json:"start_time" validate:"required,timeslot"`
	EndTime           string        `json:"end_time" validate:"required,timeslot"`
	Purpose           string        `json:"purpose" validate:"required"`
	OrganizerName     string        `json:"organizer_name" validate:"required"`
	OrganizerContact  string        `json:"organizer_contact" validate:"required"`
	ExpectedAttendees AttendeeCount `json:"expected_attendees" validate:"required"`
	UserEmail         string        `json:"user_email"`
}

func (r *BookingRequest) Sanitize() {
	r.LocationID = strings.TrimSpace(r.LocationID)
	r.LocationName = strings.TrimSpace(r.LocationName)
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.OrganizerName = strings.TrimSpace(r.OrganizerName)
	r.OrganizerContact = strings.TrimSpace(r.OrganizerContact)
	r.UserEmail = strings.TrimSpace(r.UserEmail)
}

type StatusUpdateRequest struct {
	Status     BookingStatus `json:"status"`
	AdminNotes string        `json:"admin_notes"`
}
