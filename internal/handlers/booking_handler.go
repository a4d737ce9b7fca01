package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/middleware"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/services"
)

// ListPublicBookings serves the occupied ranges of one facility-day to
// anonymous callers.
func ListPublicBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListPublicBookings(c.Request.Context(), c.Query("location_id"), c.Query("date"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, helpers.NewValidationError("invalid request payload"))
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), &req, middleware.CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":    true,
			"booking_id": booking.BookingID,
			"message":    "Booking request submitted successfully",
			"data":       booking,
		})
	}
}

func ListUserBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListUserBookings(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func ListAllBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListAllBookings(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func UpdateBookingStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.StatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, helpers.NewValidationError("invalid request payload"))
			return
		}
		if req.Status == models.BookingRejected && strings.TrimSpace(req.AdminNotes) == "" {
			abortWithError(c, helpers.NewValidationError("admin notes are required when rejecting a booking"))
			return
		}

		booking, err := bs.UpdateBookingStatus(c.Request.Context(), c.Param("id"), req.Status, req.AdminNotes, middleware.CurrentUser(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Booking "+string(booking.Status)))
	}
}
