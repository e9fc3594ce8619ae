package schema

import (
	"gorm.io/datatypes"
)

// Geography lookup tables. Each is a flat (id, name) list; the only link
// between them is the investigation record that references all four.
//
// Relations are declared on the parent as has-many (or has-one) so that
// migration puts every foreign key on the child table. Children carry only
// the key column.

type Region struct {
	RegionID int    `gorm:"column:region_id;primaryKey" json:"region_id"`
	Name     string `gorm:"column:name;not null" json:"name"`

	Investigations []InvestigationRecord `gorm:"foreignKey:RegionID;references:RegionID" json:"-"`
}

type District struct {
	DistrictID int    `gorm:"column:district_id;primaryKey" json:"district_id"`
	Name       string `gorm:"column:name;not null" json:"name"`

	Investigations []InvestigationRecord `gorm:"foreignKey:DistrictID;references:DistrictID" json:"-"`
}

type City struct {
	CityID int    `gorm:"column:city_id;primaryKey" json:"city_id"`
	Name   string `gorm:"column:name;not null" json:"name"`

	Investigations []InvestigationRecord `gorm:"foreignKey:CityID;references:CityID" json:"-"`
}

type Suburb struct {
	SuburbID int    `gorm:"column:suburb_id;primaryKey" json:"suburb_id"`
	Name     string `gorm:"column:name;not null" json:"name"`

	Investigations []InvestigationRecord `gorm:"foreignKey:SuburbID;references:SuburbID" json:"-"`
}

// InvestigationRecord is one physical site investigation in the national
// database. Reports of every kind hang off it.
type InvestigationRecord struct {
	NZGDID            int            `gorm:"column:nzgd_id;primaryKey" json:"nzgd_id"`
	OriginalReference string         `gorm:"column:original_reference;not null" json:"original_reference"`
	InvestigationDate datatypes.Date `gorm:"column:investigation_date" json:"investigation_date"`
	PublishedDate     datatypes.Date `gorm:"column:published_date" json:"published_date"`
	Latitude          float64        `gorm:"column:latitude" json:"latitude"`
	Longitude         float64        `gorm:"column:longitude" json:"longitude"`
	RegionID          int            `gorm:"column:region_id;not null;index" json:"region_id"`
	DistrictID        int            `gorm:"column:district_id;not null;index" json:"district_id"`
	CityID            int            `gorm:"column:city_id;not null;index" json:"city_id"`
	SuburbID          int            `gorm:"column:suburb_id;not null;index" json:"suburb_id"`

	SPTReports       []SPTReport       `gorm:"foreignKey:NZGDID;references:NZGDID" json:"-"`
	CPTReports       []CPTReport       `gorm:"foreignKey:NZGDID;references:NZGDID" json:"-"`
	VelocityProfiles []VelocityProfile `gorm:"foreignKey:NZGDID;references:NZGDID" json:"-"`
}

// SPTReport is a standard penetration test borehole.
type SPTReport struct {
	BoreholeID       int     `gorm:"column:borehole_id;primaryKey" json:"borehole_id"`
	NZGDID           int     `gorm:"column:nzgd_id;not null;index" json:"nzgd_id"`
	BoreholeFile     string  `gorm:"column:borehole_file" json:"borehole_file"`
	Efficiency       float64 `gorm:"column:efficiency" json:"efficiency"`
	BoreholeDiameter float64 `gorm:"column:borehole_diameter" json:"borehole_diameter"`

	Measurements []SPTMeasurement `gorm:"foreignKey:BoreholeID;references:BoreholeID" json:"-"`
	SoilLayers   []SoilLayer      `gorm:"foreignKey:ReportID;references:BoreholeID" json:"-"`
}

type SPTMeasurement struct {
	ID         int     `gorm:"column:id;primaryKey" json:"id"`
	BoreholeID int     `gorm:"column:borehole_id;not null;index" json:"borehole_id"`
	Depth      float64 `gorm:"column:depth" json:"depth"`
	N          int     `gorm:"column:n" json:"n"`
}

// SoilLayer is a classified depth interval in an SPT borehole log.
// BottomDepth is nullable; see assemble for how a missing bottom is resolved.
type SoilLayer struct {
	MeasurementID int      `gorm:"column:measurement_id;primaryKey" json:"measurement_id"`
	ReportID      int      `gorm:"column:report_id;not null;index" json:"report_id"`
	TopDepth      float64  `gorm:"column:top_depth" json:"top_depth"`
	BottomDepth   *float64 `gorm:"column:bottom_depth" json:"bottom_depth,omitempty"`

	Labels []SoilLayerSoilType `gorm:"foreignKey:SoilLayerID;references:MeasurementID" json:"-"`
}

// SoilType is one label of the closed soil classification set.
type SoilType struct {
	ID   int    `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;not null;uniqueIndex" json:"name"`

	Layers []SoilLayerSoilType `gorm:"foreignKey:SoilTypeID;references:ID" json:"-"`
}

// SoilLayerSoilType is the junction between layers and their labels.
type SoilLayerSoilType struct {
	SoilLayerID int `gorm:"column:soil_layer_id;primaryKey" json:"soil_layer_id"`
	SoilTypeID  int `gorm:"column:soil_type_id;primaryKey" json:"soil_type_id"`
}

// CPTReport is a cone penetration test sounding.
type CPTReport struct {
	CPTID   int    `gorm:"column:cpt_id;primaryKey" json:"cpt_id"`
	NZGDID  int    `gorm:"column:nzgd_id;not null;index" json:"nzgd_id"`
	CPTFile string `gorm:"column:cpt_file" json:"cpt_file"`

	Measurements []CPTMeasurement `gorm:"foreignKey:CPTID;references:CPTID" json:"-"`
	MaxDepth     *CPTMaxDepth     `gorm:"foreignKey:CPTID;references:CPTID;constraint:OnDelete:CASCADE" json:"-"`
}

type CPTMeasurement struct {
	MeasurementID int     `gorm:"column:measurement_id;primaryKey" json:"measurement_id"`
	CPTID         int     `gorm:"column:cpt_id;not null;index" json:"cpt_id"`
	Depth         float64 `gorm:"column:depth" json:"depth"`
	Qc            float64 `gorm:"column:qc" json:"qc"`
	Fs            float64 `gorm:"column:fs" json:"fs"`
	U2            float64 `gorm:"column:u2" json:"u2"`
}

// CPTMaxDepth caches the deepest measurement of a cone test so depth
// filters do not have to aggregate cpt_measurements. It is maintained by
// ingest and must equal MAX(cpt_measurements.depth) for the report.
type CPTMaxDepth struct {
	CPTID    int     `gorm:"column:cpt_id;primaryKey;autoIncrement:false" json:"cpt_id"`
	MaxDepth float64 `gorm:"column:max_depth;not null" json:"max_depth"`
}

// VelocityProfile is a shear-wave velocity profile.
type VelocityProfile struct {
	ProfileID   int    `gorm:"column:profile_id;primaryKey" json:"profile_id"`
	NZGDID      int    `gorm:"column:nzgd_id;not null;index" json:"nzgd_id"`
	ProfileFile string `gorm:"column:profile_file" json:"profile_file"`

	Measurements []VsMeasurement `gorm:"foreignKey:ProfileID;references:ProfileID" json:"-"`
}

type VsMeasurement struct {
	MeasurementID int     `gorm:"column:measurement_id;primaryKey" json:"measurement_id"`
	ProfileID     int     `gorm:"column:profile_id;not null;index" json:"profile_id"`
	Depth         float64 `gorm:"column:depth" json:"depth"`
	Vs            float64 `gorm:"column:vs" json:"vs"`
}

func (Region) TableName() string              { return TableRegions }
func (District) TableName() string            { return TableDistricts }
func (City) TableName() string                { return TableCities }
func (Suburb) TableName() string              { return TableSuburbs }
func (InvestigationRecord) TableName() string { return TableInvestigations }
func (SPTReport) TableName() string           { return TableSPTReports }
func (SPTMeasurement) TableName() string      { return TableSPTMeasurements }
func (SoilLayer) TableName() string           { return TableSoilLayers }
func (SoilType) TableName() string            { return TableSoilTypes }
func (SoilLayerSoilType) TableName() string   { return TableSoilLayerSoilTypes }
func (CPTReport) TableName() string           { return TableCPTReports }
func (CPTMeasurement) TableName() string      { return TableCPTMeasurements }
func (CPTMaxDepth) TableName() string         { return TableCPTMaxDepths }
func (VelocityProfile) TableName() string     { return TableVelocityProfiles }
func (VsMeasurement) TableName() string       { return TableVsMeasurements }

// Table names, shared with the query builder so joins and models agree.
const (
	TableRegions            = "regions"
	TableDistricts          = "districts"
	TableCities             = "cities"
	TableSuburbs            = "suburbs"
	TableInvestigations     = "investigation_records"
	TableSPTReports         = "spt_reports"
	TableSPTMeasurements    = "spt_measurements"
	TableSoilLayers         = "soil_layers"
	TableSoilTypes          = "soil_types"
	TableSoilLayerSoilTypes = "soil_layer_soil_types"
	TableCPTReports         = "cpt_reports"
	TableCPTMeasurements    = "cpt_measurements"
	TableCPTMaxDepths       = "cpt_max_depths"
	TableVelocityProfiles   = "velocity_profiles"
	TableVsMeasurements     = "vs_measurements"
)
