package models

import (
	"fmt"
	"strings"
)

// FareClass is the cabin a seat belongs to
type FareClass string

const (
	FareClassEconomy  FareClass = "economy"
	FareClassBusiness FareClass = "business"
	FareClassFirst    FareClass = "first"
)

// FareClasses lists the cabins in seat-map order, front to back.
var FareClasses = []FareClass{FareClassFirst, FareClassBusiness, FareClassEconomy}

var fareClassTokens = map[string]FareClass{
	"economy":  FareClassEconomy,
	"business": FareClassBusiness,
	"first":    FareClassFirst,
	"e":        FareClassEconomy,
	"b":        FareClassBusiness,
	"f":        FareClassFirst,
}

// ParseFareClass maps a client token (long or single-letter form, any case)
// to its canonical fare class.
func ParseFareClass(token string) (FareClass, error) {
	class, ok := fareClassTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return "", fmt.Errorf("unknown fare class %q", token)
	}
	return class, nil
}

// Code is the single-letter form stored on ticket rows.
func (c FareClass) Code() string {
	switch c {
	case FareClassFirst:
		return "f"
	case FareClassBusiness:
		return "b"
	default:
		return "e"
	}
}

// SeatPosition is the location of a seat within its row
type SeatPosition string

const (
	SeatPositionWindow SeatPosition = "window"
	SeatPositionAisle  SeatPosition = "aisle"
	SeatPositionMiddle SeatPosition = "middle"
)

// SeatStatus is the availability of a seat as seen by one traveler
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusOccupied  SeatStatus = "occupied"
)

// FlightLeg is one flight of an itinerary as returned to clients
type FlightLeg struct {
	FlightNumber    string `json:"flightNumber"`
	Carrier         string `json:"carrier"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	OriginCity      string `json:"originCity"`
	DestinationCity string `json:"destinationCity"`
	DepartureTime   string `json:"departureTime"`
	ArrivalTime     string `json:"arrivalTime"`
	AircraftModel   string `json:"aircraftModel"`
	DistanceKm      int    `json:"distanceKm"`
	EconomyPrice    int    `json:"economyPrice"`
}

// ItineraryView is a ranked itinerary as returned to clients
type ItineraryView struct {
	TotalDuration string      `json:"totalDuration"`
	Legs          []FlightLeg `json:"legs"`
}

// RoundTripResponse is returned when the search carries a return date
type RoundTripResponse struct {
	Outbound []ItineraryView `json:"outbound"`
	Return   []ItineraryView `json:"return"`
}

// AircraftConfiguration describes an aircraft model's cabins
type AircraftConfiguration struct {
	Model         string `json:"model"`
	TotalSeats    int    `json:"totalSeats"`
	EconomySeats  int    `json:"economySeats"`
	BusinessSeats int    `json:"businessSeats"`
	FirstSeats    int    `json:"firstSeats"`
	Layout        string `json:"layout"`
}

// SeatView is one seat of a flight's seat map
type SeatView struct {
	Code     string       `json:"code"`
	Row      int          `json:"row"`
	Letter   string       `json:"letter"`
	Class    FareClass    `json:"class"`
	Position SeatPosition `json:"position"`
	Price    int          `json:"price"`
	Status   SeatStatus   `json:"status"`
}

// SeatMapResponse is the seat map of a flight for the requesting traveler
type SeatMapResponse struct {
	FlightNumber string     `json:"flightNumber"`
	Layout       string     `json:"layout"`
	Seats        []SeatView `json:"seats"`
}
