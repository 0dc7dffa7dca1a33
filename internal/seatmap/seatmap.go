// Package seatmap expands an aircraft's cabin configuration into the seat
// codes shared by pricing, availability and holds.
package seatmap

import (
	"fmt"

	"github.com/sabscarpenter/skytravel/internal/models"
)

// Configuration is an aircraft model's layout and seat count per cabin
type Configuration struct {
	Model    string
	Layout   string
	First    int
	Business int
	Economy  int
}

// Capacity is the total number of seats across cabins.
func (c Configuration) Capacity() int {
	return c.First + c.Business + c.Economy
}

func (c Configuration) seats(class models.FareClass) int {
	switch class {
	case models.FareClassFirst:
		return c.First
	case models.FareClassBusiness:
		return c.Business
	default:
		return c.Economy
	}
}

// Seat is one generated seat
type Seat struct {
	Code     string
	Row      int
	Letter   string
	Class    models.FareClass
	Position models.SeatPosition
}

// Build emits seats row-major, cabin by cabin from first to economy. Row
// numbers run continuously across cabins starting at 1; the last row of a
// cabin may be partial.
func Build(cfg Configuration) ([]Seat, error) {
	if _, err := ParseLayout(cfg.Layout); err != nil {
		return nil, err
	}

	var seats []Seat
	row := 1
	for _, class := range models.FareClasses {
		count := cfg.seats(class)
		pattern := ClassLayout(cfg.Layout, class)
		if count <= 0 || pattern == "" {
			continue
		}

		layout, err := ParseLayout(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s cabin: %w", class, err)
		}

		for placed := 0; placed < count; row++ {
			for i, letter := range layout.Letters {
				if placed == count {
					break
				}
				seats = append(seats, Seat{
					Code:     fmt.Sprintf("%d%s", row, letter),
					Row:      row,
					Letter:   letter,
					Class:    class,
					Position: layout.Position(i),
				})
				placed++
			}
		}
	}

	return seats, nil
}

// Index maps seat codes to seats.
func Index(seats []Seat) map[string]Seat {
	idx := make(map[string]Seat, len(seats))
	for _, s := range seats {
		idx[s.Code] = s
	}
	return idx
}
