package domain

import "strings"

// Side is one of the two directional faces a brick may connect on
type Side string

const (
	SideWest Side = "west"
	SideEast Side = "east"
)

// ParseSide converts a string to a Side. Matching is case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "west":
		return SideWest, nil
	case "east":
		return SideEast, nil
	default:
		return "", NewError(ErrInvalidArgument, "choose west or east for side parameter")
	}
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == SideWest {
		return SideEast
	}
	return SideWest
}

// Valid reports whether s is west or east
func (s Side) Valid() bool {
	return s == SideWest || s == SideEast
}

func (s Side) String() string {
	return string(s)
}
