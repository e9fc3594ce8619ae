package query

import (
	"slices"

	"github.com/EmpoweredVote/geodata/internal/schema"
	"golang.org/x/text/unicode/norm"
)

// Qualified column names used across plans.
const (
	colInvestigationID = schema.TableInvestigations + ".nzgd_id"
	colOriginalRef     = schema.TableInvestigations + ".original_reference"
)

// geography describes one name lookup table hanging off the investigation.
type geography struct {
	table string
	key   string
}

var (
	regions   = geography{schema.TableRegions, "region_id"}
	districts = geography{schema.TableDistricts, "district_id"}
	cities    = geography{schema.TableCities, "city_id"}
	suburbs   = geography{schema.TableSuburbs, "suburb_id"}
)

// PenetrationTests plans a search over SPT boreholes.
//
// Depth bounds are applied to MAX(spt_measurements.depth) per borehole,
// since boreholes carry no precomputed maximum. The aggregation groups by
// borehole id, so the measurement join never fans out into duplicate rows.
func PenetrationTests(c PenetrationTestCriteria) *Plan {
	p := newPlan(schema.TableSPTReports, &schema.SPTReport{})
	owner := schema.TableSPTReports

	if c.BoreholeID != nil {
		p.add(StepWhere, owner+".borehole_id = ?", *c.BoreholeID)
	}
	addRange(p, owner+".efficiency", c.Efficiency)
	addRange(p, owner+".borehole_diameter", c.Diameter)
	addLocation(p, owner, c.Location)

	if c.MeasurementDepth.IsSet() {
		m := schema.TableSPTMeasurements
		p.add(StepJoin, "INNER JOIN "+m+" ON "+m+".borehole_id = "+owner+".borehole_id")
		p.add(StepGroup, owner+".borehole_id")
		if c.MeasurementDepth.Max != nil {
			p.add(StepHaving, "MAX("+m+".depth) <= ?", *c.MeasurementDepth.Max)
		}
		if c.MeasurementDepth.Min != nil {
			p.add(StepHaving, "MAX("+m+".depth) >= ?", *c.MeasurementDepth.Min)
		}
	}
	return p
}

// ConeTests plans a search over CPT soundings. Depth bounds read the
// cpt_max_depths summary row directly; no aggregation is needed because the
// summary holds exactly one row per sounding.
func ConeTests(c ConeTestCriteria) *Plan {
	p := newPlan(schema.TableCPTReports, &schema.CPTReport{})
	owner := schema.TableCPTReports

	if c.CPTID != nil {
		p.add(StepWhere, owner+".cpt_id = ?", *c.CPTID)
	}
	addLocation(p, owner, c.Location)

	if c.MeasurementDepth.IsSet() {
		md := schema.TableCPTMaxDepths
		p.add(StepJoin, "INNER JOIN "+md+" ON "+md+".cpt_id = "+owner+".cpt_id")
		addRange(p, md+".max_depth", c.MeasurementDepth)
	}
	return p
}

// VelocityProfiles plans a search over shear-wave velocity profiles.
func VelocityProfiles(c VelocityProfileCriteria) *Plan {
	p := newPlan(schema.TableVelocityProfiles, &schema.VelocityProfile{})
	owner := schema.TableVelocityProfiles

	if c.ProfileID != nil {
		p.add(StepWhere, owner+".profile_id = ?", *c.ProfileID)
	}
	addLocation(p, owner, c.Location)
	return p
}

func addRange(p *Plan, column string, r Range) {
	if r.Min != nil {
		p.add(StepWhere, column+" >= ?", *r.Min)
	}
	if r.Max != nil {
		p.add(StepWhere, column+" <= ?", *r.Max)
	}
}

// addLocation always joins the owning investigation. A geography table is
// joined only when its name filter is supplied; joining it unconditionally
// would drop reports whose investigation lacks a matching lookup row.
func addLocation(p *Plan, owner string, loc Location) {
	inv := schema.TableInvestigations
	p.add(StepJoin, "INNER JOIN "+inv+" ON "+colInvestigationID+" = "+owner+".nzgd_id")

	if loc.NZGDID != nil {
		p.add(StepWhere, colInvestigationID+" = ?", *loc.NZGDID)
	}
	if loc.OriginalReference != nil {
		p.add(StepContains, colOriginalRef, *loc.OriginalReference)
	}
	addGeography(p, regions, loc.Region)
	addGeography(p, districts, loc.District)
	addGeography(p, cities, loc.City)
	addGeography(p, suburbs, loc.Suburb)
}

// addGeography matches a name exactly as given and in both canonical
// Unicode forms, so a macron typed as a combining mark ("Ō" as O + U+0304)
// equals a stored precomposed name and the other way round.
func addGeography(p *Plan, g geography, name *string) {
	if name == nil {
		return
	}
	inv := schema.TableInvestigations
	p.add(StepJoin, "INNER JOIN "+g.table+" ON "+g.table+"."+g.key+" = "+inv+"."+g.key)
	p.add(StepWhere, g.table+".name IN ?", nameForms(*name))
}

// nameForms returns name, its NFC form and its NFD form without repeats.
func nameForms(name string) []string {
	forms := []string{name}
	for _, f := range []string{norm.NFC.String(name), norm.NFD.String(name)} {
		if !slices.Contains(forms, f) {
			forms = append(forms, f)
		}
	}
	return forms
}
