package models

import "time"

// SeatTicket is one seat of a reservation request
type SeatTicket struct {
	FlightNumber string `json:"flight"`
	SeatCode     string `json:"seat"`
	Class        string `json:"class"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ExtraBags    int    `json:"bags"`
}

// ReserveSeatsRequest holds seats on one flight for the requesting traveler.
// FlightNumber falls back to the first ticket's flight when empty. Legs is the
// number of flights in the chosen itinerary and drives the fare.
type ReserveSeatsRequest struct {
	FlightNumber string       `json:"flightNumber,omitempty"`
	Legs         int          `json:"legs"`
	Tickets      []SeatTicket `json:"seats"`
}

// ReserveSeatsResponse is returned when every requested seat is held
type ReserveSeatsResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ConflictResponse names every seat that could not be held
type ConflictResponse struct {
	Error string   `json:"error"`
	Seats []string `json:"seats"`
}

// OccupiedSeatsResponse lists seats unavailable to the requesting traveler
type OccupiedSeatsResponse struct {
	Occupied []string `json:"occupied"`
}

// FinalizeTicket converts one live hold into a ticket
type FinalizeTicket struct {
	FlightNumber string `json:"flight"`
	SeatCode     string `json:"seat"`
	ExtraBags    int    `json:"bags"`
}
