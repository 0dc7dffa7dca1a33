package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	outbound := &ItineraryView{Legs: []FlightLeg{
		{FlightNumber: "AZ100", Origin: "FCO", Destination: "MXP"},
		{FlightNumber: "AZ200", Origin: "MXP", Destination: "CDG"},
	}}
	inbound := &ItineraryView{Legs: []FlightLeg{
		{FlightNumber: "AZ300", Origin: "CDG", Destination: "FCO"},
	}}

	t.Run("one way", func(t *testing.T) {
		segments := Segments(outbound, nil)

		require.Len(t, segments, 2)
		for i, s := range segments {
			assert.Equal(t, DirectionOneWay, s.Direction)
			assert.Equal(t, i, s.SegmentIndex)
			assert.Equal(t, 2, s.Legs)
		}
		assert.Equal(t, "AZ100-0", segments[0].ID)
		assert.Equal(t, "AZ200-1", segments[1].ID)
	})

	t.Run("round trip", func(t *testing.T) {
		segments := Segments(outbound, inbound)

		require.Len(t, segments, 3)
		assert.Equal(t, DirectionOutbound, segments[0].Direction)
		assert.Equal(t, DirectionOutbound, segments[1].Direction)
		assert.Equal(t, DirectionReturn, segments[2].Direction)
		assert.Equal(t, 0, segments[2].SegmentIndex)
		assert.Equal(t, 1, segments[2].Legs)
		assert.Equal(t, "AZ300-2", segments[2].ID)
	})

	t.Run("nothing chosen", func(t *testing.T) {
		assert.Empty(t, Segments(nil, nil))
	})
}
