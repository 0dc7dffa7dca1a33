package seatmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sabscarpenter/skytravel/internal/models"
)

// classLayouts maps a full-aircraft layout to the narrower layout each
// premium cabin uses. An empty entry means the cabin is not offered.
var classLayouts = map[string]map[models.FareClass]string{
	"2-2": {
		models.FareClassFirst:    "",
		models.FareClassBusiness: "",
	},
	"3-3": {
		models.FareClassFirst:    "",
		models.FareClassBusiness: "2-2",
	},
	"3-3-3": {
		models.FareClassFirst:    "1-2-1",
		models.FareClassBusiness: "2-2-2",
	},
	"3-4-3": {
		models.FareClassFirst:    "1-2-1",
		models.FareClassBusiness: "2-2-2",
	},
}

// layoutLetters are the seat letters used by each known layout, left to right.
var layoutLetters = map[string][]string{
	"1-1":   {"A", "K"},
	"2-2":   {"A", "B", "J", "K"},
	"3-3":   {"A", "B", "C", "H", "J", "K"},
	"1-2-1": {"A", "E", "F", "K"},
	"2-2-2": {"A", "B", "E", "F", "J", "K"},
	"3-3-3": {"A", "B", "C", "D", "E", "F", "H", "J", "K"},
	"3-4-3": {"A", "B", "C", "D", "E", "F", "G", "H", "J", "K"},
}

// ClassLayout returns the layout a cabin uses on an aircraft whose full
// layout is aircraftLayout. Economy always uses the full layout.
func ClassLayout(aircraftLayout string, class models.FareClass) string {
	if class == models.FareClassEconomy {
		return aircraftLayout
	}
	if byClass, ok := classLayouts[aircraftLayout]; ok {
		return byClass[class]
	}
	return "1-1"
}

// Layout is a parsed layout string such as "3-4-3"
type Layout struct {
	Pattern string
	Groups  []int
	Letters []string
}

// ParseLayout parses a dash-separated group pattern. Known patterns use the
// conventional letter sets; anything else is lettered A, B, C... skipping I.
func ParseLayout(pattern string) (Layout, error) {
	parts := strings.Split(strings.TrimSpace(pattern), "-")
	groups := make([]int, 0, len(parts))
	width := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return Layout{}, fmt.Errorf("invalid layout %q", pattern)
		}
		groups = append(groups, n)
		width += n
	}

	letters, ok := layoutLetters[pattern]
	if !ok {
		letters = sequentialLetters(width)
	}
	if len(letters) != width {
		return Layout{}, fmt.Errorf("layout %q has %d seats per row but %d letters", pattern, width, len(letters))
	}

	return Layout{Pattern: pattern, Groups: groups, Letters: letters}, nil
}

func sequentialLetters(n int) []string {
	letters := make([]string, 0, n)
	for c := 'A'; len(letters) < n && c <= 'Z'; c++ {
		if c == 'I' {
			continue
		}
		letters = append(letters, string(c))
	}
	return letters
}

// AislePositions returns, for each aisle, the number of seats to its left.
func (l Layout) AislePositions() []int {
	var positions []int
	sum := 0
	for _, g := range l.Groups[:len(l.Groups)-1] {
		sum += g
		positions = append(positions, sum)
	}
	return positions
}

// Position classifies the seat at index i of the row.
func (l Layout) Position(i int) models.SeatPosition {
	if i == 0 || i == len(l.Letters)-1 {
		return models.SeatPositionWindow
	}
	for _, p := range l.AislePositions() {
		if i == p-1 || i == p {
			return models.SeatPositionAisle
		}
	}
	return models.SeatPositionMiddle
}
