package domain

import (
	"fmt"
	"strings"
)

// Category selects the season reset rule for a crop.
type Category int

const (
	CategoryStandard Category = iota
	CategoryWinter
)

func (c Category) String() string {
	if c == CategoryWinter {
		return "winter"
	}
	return "standard"
}

// PolicyKind selects the daily GDD accounting rule for a crop.
type PolicyKind int

const (
	PolicyUnset PolicyKind = iota
	PolicyNone
	PolicyGeneric
	PolicyWinterGrain
	PolicyCornModified
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyNone:
		return "none"
	case PolicyGeneric:
		return "generic"
	case PolicyWinterGrain:
		return "winter_grain"
	case PolicyCornModified:
		return "corn_modified"
	default:
		return "unset"
	}
}

// GDDPolicy is the resolved GDD accounting rule. Base is the base temperature the
// policy accumulates against; for corn it is the true (positive) base.
type GDDPolicy struct {
	Kind PolicyKind
	Base float64
}

// winterGrainClasses are the crop classes for irrigated and non-irrigated winter grain.
var winterGrainClasses = map[int]bool{13: true, 14: true}

// Crop holds one crop type's parameters.
type Crop struct {
	Number      int
	Name        string
	ClassNumber int
	CurveNumber int
	CurveName   string
	CurveType   int

	// TBase is the base temperature as stored in the parameter tables. A negative
	// value flags the modified corn method.
	TBase         float64
	GDDTriggerDOY int

	IrrigationFlag              int
	DaysAfterPlantingIrrigation int
	KcMax                       float64
	T30ForStart                 float64
	CGDDForEFC                  float64
	CGDDForTermination          float64
	KillingFrostTemperature     float64

	Category Category
	Policy   GDDPolicy
}

// ResolveCrop sets the crop's Category and Policy from its raw parameters.
// It must be called whenever the raw parameters change.
func ResolveCrop(c *Crop) {
	winterClass := winterGrainClasses[c.ClassNumber]
	name := strings.ToUpper(strings.TrimSpace(c.CurveName))

	c.Category = CategoryStandard
	if winterClass || strings.Contains(name, "WINTER") {
		c.Category = CategoryWinter
	}

	switch {
	case c.CurveNumber <= 0:
		c.Policy = GDDPolicy{Kind: PolicyNone}
	case winterClass || name == "WINTER WHEAT":
		c.Policy = GDDPolicy{Kind: PolicyWinterGrain, Base: c.TBase}
	case c.TBase < 0:
		c.Policy = GDDPolicy{Kind: PolicyCornModified, Base: -c.TBase}
	default:
		c.Policy = GDDPolicy{Kind: PolicyGeneric, Base: c.TBase}
	}
}

// Clone returns a copy of the crop that can be modified independently.
func (c *Crop) Clone() *Crop {
	cp := *c
	return &cp
}

func (c *Crop) String() string {
	return fmt.Sprintf("crop %d %s (class %d, curve %d %s, %s/%s)",
		c.Number, c.Name, c.ClassNumber, c.CurveNumber, c.CurveName, c.Category, c.Policy.Kind)
}
