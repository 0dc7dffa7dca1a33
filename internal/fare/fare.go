// Package fare prices seats from leg distance and itinerary length.
package fare

import (
	"math"

	"github.com/sabscarpenter/skytravel/internal/models"
)

const (
	// BaseRate is the economy price per km for a direct itinerary.
	BaseRate = 0.10
	// LegDiscount is subtracted from the rate for every extra leg.
	LegDiscount = 0.03
	// MinRateMultiplier floors the rate for very long itineraries.
	MinRateMultiplier = 0.01

	// WindowAisleSurcharge applies to economy window and aisle seats.
	WindowAisleSurcharge = 10
	// BagFee is charged per extra bag at checkout.
	BagFee = 25
)

var classMultiplier = map[models.FareClass]int{
	models.FareClassEconomy:  1,
	models.FareClassBusiness: 2,
	models.FareClassFirst:    3,
}

// Rate returns the per-km economy rate for an itinerary with the given
// number of legs. legs below 1 count as a direct flight.
func Rate(legs int) float64 {
	if legs < 1 {
		legs = 1
	}
	rate := BaseRate - LegDiscount*float64(legs-1)
	if rate <= 0 {
		return MinRateMultiplier
	}
	return rate
}

// PricePerSeat is the base price of a seat of the given class on a leg.
// Business and first are whole multiples of the rounded economy price.
func PricePerSeat(distanceKm, legs int, class models.FareClass) int {
	if distanceKm < 0 {
		distanceKm = 0
	}
	base := int(math.Round(float64(distanceKm) * Rate(legs)))
	m, ok := classMultiplier[class]
	if !ok {
		m = 1
	}
	return base * m
}

// SeatPrice is PricePerSeat plus the economy window/aisle surcharge.
func SeatPrice(distanceKm, legs int, class models.FareClass, position models.SeatPosition) int {
	price := PricePerSeat(distanceKm, legs, class)
	if class == models.FareClassEconomy && position != models.SeatPositionMiddle {
		price += WindowAisleSurcharge
	}
	return price
}

// BagsPrice is the checkout fee for extra bags.
func BagsPrice(bags int) int {
	if bags < 0 {
		return 0
	}
	return bags * BagFee
}
