package services

import (
	"context"

	"github.com/bmcgrane302/properview/internal/models"
)

// IListingService is the public, read-only view of the property catalogue.
type IListingService interface {
	BrowseListings(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	GetListing(ctx context.Context, id string) (*models.Property, error)
}

// listingService implements IListingService.
type listingService struct {
	properties IPropertyService
}

// NewListingService creates a new ListingService.
func NewListingService(properties IPropertyService) IListingService {
	return &listingService{properties: properties}
}

// BrowseListings returns active properties matching filter. Status and agent constraints
// supplied by the caller are replaced, so buyers only ever see active listings.
func (s *listingService) BrowseListings(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	active := models.PropertyStatusActive
	filter.Status = &active
	filter.AgentID = nil
	return s.properties.ListProperties(ctx, filter)
}

// GetListing returns a single property by id. Non-active properties are still returned
// so shared links keep working after a sale.
func (s *listingService) GetListing(ctx context.Context, id string) (*models.Property, error) {
	return s.properties.FindPropertyByID(ctx, id)
}
