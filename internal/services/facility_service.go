package services

import (
	"context"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
)

type FacilityService struct {
	catalog *models.FacilityCatalog
}

// NewFacilityService resolves the catalog's image ids into Cloudinary
// delivery URLs once, at startup. cld may be nil, in which case facilities
// are served without image URLs.
func NewFacilityService(ctx context.Context, catalog *models.FacilityCatalog, cld *cloudinary.Cloudinary, logger *slog.Logger) *FacilityService {
	if cld != nil {
		for _, f := range catalog.All() {
			if f.Image == "" {
				continue
			}
			url, err := helpers.FacilityImageURL(cld, f.Image)
			if err != nil {
				logger.WarnContext(ctx, "failed to resolve facility image", "facility_id", f.ID, "error", err)
				continue
			}
			catalog.SetImageURL(f.ID, url)
		}
	}
	return &FacilityService{catalog: catalog}
}

func (fs *FacilityService) ListFacilities() []models.Facility {
	return fs.catalog.All()
}

func (fs *FacilityService) GetFacility(id string) (*models.Facility, error) {
	f, ok := fs.catalog.Get(helpers.StringTrim(id))
	if !ok {
		return nil, helpers.NewNotFoundError("Facility not found")
	}
	return &f, nil
}
