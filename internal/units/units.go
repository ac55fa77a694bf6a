// Package units provides shared constants and validation for distance units
package units

// Unit constants
const (
	Meters     = "m"
	Kilometers = "km"
	Feet       = "ft"
	Miles      = "mi"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Kilometers, Feet, Miles}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, km, ft, mi"
}

// ConvertDistance converts a distance from meters to the target units.
// Site coordinates and spacing figures are stored in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Kilometers:
		return meters * 0.001
	case Feet:
		return meters * 3.28084 // meters to feet
	case Miles:
		return meters * 0.000621371 // meters to miles
	case Meters:
		return meters // no conversion needed
	default:
		return meters // default to meters if unknown unit
	}
}
