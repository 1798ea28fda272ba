package enums

// DetectionCategory is the closed set of object classes the detector emits.
type DetectionCategory string

const (
	DetectionCategoryAnimal  DetectionCategory = "animal"
	DetectionCategoryPerson  DetectionCategory = "person"
	DetectionCategoryVehicle DetectionCategory = "vehicle"
	DetectionCategoryUnknown DetectionCategory = "unknown"
)

var validDetectionCategories = []DetectionCategory{
	DetectionCategoryAnimal,
	DetectionCategoryPerson,
	DetectionCategoryVehicle,
	DetectionCategoryUnknown,
}

// String returns the literal string for the category.
func (d DetectionCategory) String() string {
	return string(d)
}

// IsValid reports whether the category is known.
func (d DetectionCategory) IsValid() bool {
	for _, candidate := range validDetectionCategories {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDetectionCategory maps raw detector output onto the closed set.
// Anything unrecognized degrades to unknown rather than erroring.
func ParseDetectionCategory(value string) DetectionCategory {
	for _, candidate := range validDetectionCategories {
		if string(candidate) == value {
			return candidate
		}
	}
	return DetectionCategoryUnknown
}

// DetectionCategoryFromNumber maps the detector's numeric class labels
// (1 animal, 2 person, 3 vehicle) onto the closed set. Unrecognized numbers
// degrade to unknown.
func DetectionCategoryFromNumber(value int) DetectionCategory {
	switch value {
	case 1:
		return DetectionCategoryAnimal
	case 2:
		return DetectionCategoryPerson
	case 3:
		return DetectionCategoryVehicle
	default:
		return DetectionCategoryUnknown
	}
}
