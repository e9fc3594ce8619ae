package soil

import (
	"fmt"
	"strings"
)

// Type is a soil classification label.
type Type string

const (
	Sand     Type = "SAND"
	Silt     Type = "SILT"
	Clay     Type = "CLAY"
	Gravel   Type = "GRAVEL"
	Boulders Type = "BOULDERS"
)

// Types is the closed label set, in the order the soil_types table is seeded.
var Types = []Type{Sand, Silt, Clay, Gravel, Boulders}

// ParseType maps a stored label name onto the closed set.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown soil type %q", name)
}
