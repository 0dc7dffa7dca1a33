package models

import "fmt"

// Direction tags a booking segment with the trip it belongs to
type Direction string

const (
	DirectionOneWay   Direction = "oneway"
	DirectionOutbound Direction = "outbound"
	DirectionReturn   Direction = "return"
)

// SegmentsRequest carries the itineraries picked from a search. Return is
// omitted for one-way trips.
type SegmentsRequest struct {
	Outbound *ItineraryView `json:"outbound"`
	Return   *ItineraryView `json:"return,omitempty"`
}

// BookingSegment is one leg that needs seat selection
type BookingSegment struct {
	ID           string    `json:"id"`
	Direction    Direction `json:"direction"`
	SegmentIndex int       `json:"segmentIndex"`
	Legs         int       `json:"legs"`
	Flight       FlightLeg `json:"flight"`
}

// Segments flattens the chosen itineraries into the ordered list of legs
// the traveler must pick seats for. inbound may be nil for one-way trips.
func Segments(outbound, inbound *ItineraryView) []BookingSegment {
	var segments []BookingSegment

	add := func(it *ItineraryView, dir Direction) {
		if it == nil {
			return
		}
		for i, leg := range it.Legs {
			segments = append(segments, BookingSegment{
				ID:           fmt.Sprintf("%s-%d", leg.FlightNumber, len(segments)),
				Direction:    dir,
				SegmentIndex: i,
				Legs:         len(it.Legs),
				Flight:       leg,
			})
		}
	}

	if inbound == nil {
		add(outbound, DirectionOneWay)
		return segments
	}
	add(outbound, DirectionOutbound)
	add(inbound, DirectionReturn)
	return segments
}
