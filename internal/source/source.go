// Package source loads per-region availability snapshots.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"availability-notifier/internal/models"
)

const (
	availabilityObject = "availability.json"
	locationsObject    = "locations.json"
)

// Source returns the current snapshot for a region.
type Source interface {
	GetAvailability(ctx context.Context, region string) ([]models.LocationAvailability, error)
	GetLocations(ctx context.Context, region string) ([]models.Location, error)
}

func objectKey(region, name string) string {
	return region + "/" + name
}

func decodeAvailability(r io.Reader) ([]models.LocationAvailability, error) {
	var out []models.LocationAvailability
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", availabilityObject, err)
	}
	return out, nil
}

func decodeLocations(r io.Reader) ([]models.Location, error) {
	var out []models.Location
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", locationsObject, err)
	}
	return out, nil
}
