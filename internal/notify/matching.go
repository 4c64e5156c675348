// Package notify runs the match, aggregate, dispatch and retire pipeline.
package notify

import (
	"availability-notifier/internal/models"
)

// SumSlots totals the slot counts of a location's times. Slots without a
// count add UnknownSlotCount and set unknown.
func SumSlots(times []models.TimeSlot) (sum int, unknown bool) {
	for _, t := range times {
		if !t.Known() {
			sum += models.UnknownSlotCount
			unknown = true
			continue
		}
		sum += *t.Slots
	}
	return sum, unknown
}

// IsEligible reports whether loc should notify given its current times.
// No times means no availability. An unknown count is always enough.
// Without a threshold any availability entry is enough; with one the
// total must be strictly greater.
func IsEligible(loc models.Location, times []models.TimeSlot) bool {
	if len(times) == 0 {
		return false
	}
	sum, unknown := SumSlots(times)
	if unknown || loc.Threshold == nil {
		return true
	}
	return sum > *loc.Threshold
}

// Match returns the eligible locations in the order they appear in locations.
// Only the first availability entry for a location is considered.
func Match(locations []models.Location, availability []models.LocationAvailability) []models.EligibleLocation {
	if len(locations) == 0 || len(availability) == 0 {
		return nil
	}

	byLocation := make(map[string][]models.TimeSlot, len(availability))
	for _, a := range availability {
		if a.LocationID == "" {
			continue
		}
		if _, seen := byLocation[a.LocationID]; !seen {
			byLocation[a.LocationID] = a.Times
		}
	}

	var eligible []models.EligibleLocation
	for _, loc := range locations {
		times, ok := byLocation[loc.ID]
		if !ok || !IsEligible(loc, times) {
			continue
		}
		eligible = append(eligible, models.EligibleLocation{
			ID:   loc.ID,
			Name: loc.Name,
			URL:  loc.URL,
		})
	}
	return eligible
}
