package query

// Every criteria field is optional. A nil pointer means "no constraint on
// this dimension", never "match NULL".

// Range is an inclusive numeric window. Either bound may be omitted. A Min
// greater than Max is not rejected; the query simply matches nothing.
type Range struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// IsSet reports whether at least one bound is supplied.
func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Location holds the investigation-level filters shared by every report kind.
type Location struct {
	NZGDID *int `yaml:"nzgd_id"`

	// Case-sensitive substring of the investigation's original reference.
	OriginalReference *string `yaml:"original_reference"`

	// Exact geography names.
	Region   *string `yaml:"region"`
	District *string `yaml:"district"`
	City     *string `yaml:"city"`
	Suburb   *string `yaml:"suburb"`
}

// PenetrationTestCriteria filters SPT boreholes.
type PenetrationTestCriteria struct {
	BoreholeID *int  `yaml:"borehole_id"`
	Efficiency Range `yaml:"efficiency"`
	Diameter   Range `yaml:"diameter"`

	// Bounds on the deepest measurement of the borehole.
	MeasurementDepth Range `yaml:"measurement_depth"`

	Location `yaml:",inline"`
}

// ConeTestCriteria filters CPT soundings.
type ConeTestCriteria struct {
	CPTID *int `yaml:"cpt_id"`

	// Bounds on the precomputed maximum depth of the sounding.
	MeasurementDepth Range `yaml:"measurement_depth"`

	Location `yaml:",inline"`
}

// VelocityProfileCriteria filters shear-wave velocity profiles.
type VelocityProfileCriteria struct {
	ProfileID *int `yaml:"profile_id"`

	Location `yaml:",inline"`
}
