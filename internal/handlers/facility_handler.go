package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/services"
)

func ListFacilities(fs *services.FacilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		facilities := fs.ListFacilities()
		c.JSON(http.StatusOK, models.ListResponse(facilities, len(facilities)))
	}
}

func GetFacility(fs *services.FacilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		facility, err := fs.GetFacility(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(facility, ""))
	}
}

// FacilityAvailability reports which hourly slots of a day are taken.
func FacilityAvailability(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		slots, err := bs.Availability(c.Request.Context(), c.Param("id"), c.Query("date"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"location_id": c.Param("id"),
			"date":        c.Query("date"),
			"slots":       slots,
		}, ""))
	}
}
