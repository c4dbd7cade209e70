package pipeline

import (
	"strings"

	"github.com/theirongolddev/gadash/internal/model"
)

// FilterByCheckin returns rentals with the given checkin type (case-insensitive).
// An empty checkin keeps every rental.
func FilterByCheckin(rentals []model.Rental, checkin string) []model.Rental {
	if checkin == "" {
		return rentals
	}
	var result []model.Rental
	for _, r := range rentals {
		if strings.EqualFold(r.CheckinType, checkin) {
			result = append(result, r)
		}
	}
	return result
}

// FilterByBrand returns listings whose model key contains the substring.
func FilterByBrand(listings []model.CarListing, brand string) []model.CarListing {
	var result []model.CarListing
	for _, l := range listings {
		if containsIgnoreCase(l.ModelKey, brand) {
			result = append(result, l)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
