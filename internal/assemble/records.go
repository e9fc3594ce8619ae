package assemble

import (
	"github.com/EmpoweredVote/geodata/internal/soil"
	"gorm.io/datatypes"
)

// Investigation is an investigation record with geography ids replaced by
// their names.
type Investigation struct {
	NZGDID            int            `json:"nzgd_id"`
	OriginalReference string         `json:"original_reference"`
	InvestigationDate datatypes.Date `json:"investigation_date"`
	PublishedDate     datatypes.Date `json:"published_date"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Region            string         `json:"region"`
	District          string         `json:"district"`
	City              string         `json:"city"`
	Suburb            string         `json:"suburb"`
}

type SPTMeasurement struct {
	Depth float64 `json:"depth"`
	N     int     `json:"n_value"`
}

// SoilLayer is a classified interval with its bottom already resolved.
type SoilLayer struct {
	ID     int     `json:"id"`
	Top    float64 `json:"top_depth"`
	Bottom float64 `json:"bottom_depth"`
	// BottomInclusive is set when Bottom was taken from the deepest
	// measurement, so that measurement still falls inside the layer.
	BottomInclusive bool        `json:"bottom_inclusive,omitempty"`
	Types           []soil.Type `json:"soil_types"`
}

// PenetrationReport is an assembled SPT borehole. Soil indexes SoilLayers:
// each interval's Layer field is a position in that slice.
type PenetrationReport struct {
	BoreholeID    int              `json:"borehole_id"`
	Investigation Investigation    `json:"investigation"`
	BoreholeFile  string           `json:"borehole_file"`
	Efficiency    float64          `json:"efficiency"`
	Diameter      float64          `json:"borehole_diameter"`
	Measurements  []SPTMeasurement `json:"measurements"`
	SoilLayers    []SoilLayer      `json:"soil_layers"`
	Soil          *soil.Index      `json:"soil_index"`
}

type CPTMeasurement struct {
	Depth float64 `json:"depth"`
	Qc    float64 `json:"qc"`
	Fs    float64 `json:"fs"`
	U2    float64 `json:"u2"`
}

// ConeReport is an assembled CPT sounding.
type ConeReport struct {
	CPTID         int              `json:"cpt_id"`
	Investigation Investigation    `json:"investigation"`
	CPTFile       string           `json:"cpt_file"`
	Measurements  []CPTMeasurement `json:"measurements"`
}

type VsMeasurement struct {
	Depth float64 `json:"depth"`
	Vs    float64 `json:"vs"`
}

// VelocityProfile is an assembled shear-wave velocity profile.
type VelocityProfile struct {
	ProfileID     int             `json:"profile_id"`
	Investigation Investigation   `json:"investigation"`
	ProfileFile   string          `json:"profile_file"`
	Measurements  []VsMeasurement `json:"measurements"`
}
