// Package assemble turns persisted rows into self-contained report records:
// measurement series sorted by depth, soil layers with resolved bottoms and
// an interval index, and the owning investigation with geography names.
package assemble

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/EmpoweredVote/geodata/internal/schema"
	"github.com/EmpoweredVote/geodata/internal/soil"
)

// GeographyLookup resolves a geography id to its name. ok is false when the
// table has no row with that id; err is reserved for storage failures.
type GeographyLookup interface {
	GeographyName(ctx context.Context, table string, id int) (name string, ok bool, err error)
}

// SoilLayerRow is a persisted layer together with its labels.
type SoilLayerRow struct {
	Layer schema.SoilLayer
	Types []soil.Type
}

// Assembler builds domain records. It never queries report data itself;
// callers hand it every row it needs.
type Assembler struct {
	geo GeographyLookup
}

func New(geo GeographyLookup) *Assembler {
	return &Assembler{geo: geo}
}

// Investigation substitutes geography names for ids. Any orphaned id fails
// with a *ReferenceError.
func (a *Assembler) Investigation(ctx context.Context, rec schema.InvestigationRecord) (Investigation, error) {
	out := Investigation{
		NZGDID:            rec.NZGDID,
		OriginalReference: rec.OriginalReference,
		InvestigationDate: rec.InvestigationDate,
		PublishedDate:     rec.PublishedDate,
		Latitude:          rec.Latitude,
		Longitude:         rec.Longitude,
	}

	lookups := []struct {
		table string
		id    int
		dst   *string
	}{
		{schema.TableRegions, rec.RegionID, &out.Region},
		{schema.TableDistricts, rec.DistrictID, &out.District},
		{schema.TableCities, rec.CityID, &out.City},
		{schema.TableSuburbs, rec.SuburbID, &out.Suburb},
	}
	for _, l := range lookups {
		name, ok, err := a.geo.GeographyName(ctx, l.table, l.id)
		if err != nil {
			return Investigation{}, fmt.Errorf("investigation %d: lookup %s %d: %w", rec.NZGDID, l.table, l.id, err)
		}
		if !ok {
			return Investigation{}, fmt.Errorf("investigation %d: %w", rec.NZGDID, &ReferenceError{Table: l.table, ID: l.id})
		}
		*l.dst = name
	}
	return out, nil
}

// PenetrationReport assembles an SPT borehole. inv must be the report's
// own investigation row.
func (a *Assembler) PenetrationReport(ctx context.Context, rep schema.SPTReport, inv schema.InvestigationRecord, rows []schema.SPTMeasurement, layers []SoilLayerRow) (*PenetrationReport, error) {
	investigation, err := a.Investigation(ctx, inv)
	if err != nil {
		return nil, err
	}

	sorted := make([]schema.SPTMeasurement, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	measurements := make([]SPTMeasurement, len(sorted))
	for i, m := range sorted {
		measurements[i] = SPTMeasurement{Depth: m.Depth, N: m.N}
	}

	var maxDepth *float64
	if n := len(measurements); n > 0 {
		maxDepth = &measurements[n-1].Depth
	}
	soilLayers := resolveLayers(rep.BoreholeID, layers, maxDepth)

	var entries []soil.Interval
	for i, l := range soilLayers {
		for _, t := range l.Types {
			entries = append(entries, soil.Interval{Top: l.Top, Bottom: l.Bottom, ClosedBottom: l.BottomInclusive, Type: t, Layer: i})
		}
	}

	return &PenetrationReport{
		BoreholeID:    rep.BoreholeID,
		Investigation: investigation,
		BoreholeFile:  rep.BoreholeFile,
		Efficiency:    rep.Efficiency,
		Diameter:      rep.BoreholeDiameter,
		Measurements:  measurements,
		SoilLayers:    soilLayers,
		Soil:          soil.NewIndex(entries),
	}, nil
}

// resolveLayers sorts layers by top depth and fills in missing bottoms: the
// next layer's top, else the deepest measurement, else the layer's own top.
// Stored bottoms are copied as they are. A filled-in bottom is never above
// its top, and one taken from the deepest measurement includes that depth.
func resolveLayers(boreholeID int, rows []SoilLayerRow, maxDepth *float64) []SoilLayer {
	sorted := make([]SoilLayerRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Layer.TopDepth < sorted[j].Layer.TopDepth
	})

	out := make([]SoilLayer, len(sorted))
	for i, r := range sorted {
		top := r.Layer.TopDepth
		var bottom float64
		inclusive := false
		switch {
		case r.Layer.BottomDepth != nil:
			bottom = *r.Layer.BottomDepth
		case i+1 < len(sorted):
			bottom = sorted[i+1].Layer.TopDepth
			log.Printf("[assemble] borehole %d layer %d: no bottom depth, using next layer top %.2f",
				boreholeID, r.Layer.MeasurementID, bottom)
		case maxDepth != nil && *maxDepth >= top:
			bottom = *maxDepth
			inclusive = true
			log.Printf("[assemble] borehole %d layer %d: no bottom depth, using deepest measurement %.2f",
				boreholeID, r.Layer.MeasurementID, bottom)
		default:
			bottom = top
			log.Printf("[assemble] borehole %d layer %d: no bottom depth, using zero-width layer at %.2f",
				boreholeID, r.Layer.MeasurementID, top)
		}

		types := make([]soil.Type, len(r.Types))
		copy(types, r.Types)
		out[i] = SoilLayer{ID: r.Layer.MeasurementID, Top: top, Bottom: bottom, BottomInclusive: inclusive, Types: types}
	}
	return out
}

// ConeReport assembles a CPT sounding.
func (a *Assembler) ConeReport(ctx context.Context, rep schema.CPTReport, inv schema.InvestigationRecord, rows []schema.CPTMeasurement) (*ConeReport, error) {
	investigation, err := a.Investigation(ctx, inv)
	if err != nil {
		return nil, err
	}

	sorted := make([]schema.CPTMeasurement, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	measurements := make([]CPTMeasurement, len(sorted))
	for i, m := range sorted {
		measurements[i] = CPTMeasurement{Depth: m.Depth, Qc: m.Qc, Fs: m.Fs, U2: m.U2}
	}

	return &ConeReport{
		CPTID:         rep.CPTID,
		Investigation: investigation,
		CPTFile:       rep.CPTFile,
		Measurements:  measurements,
	}, nil
}

// VelocityProfile assembles a shear-wave velocity profile.
func (a *Assembler) VelocityProfile(ctx context.Context, prof schema.VelocityProfile, inv schema.InvestigationRecord, rows []schema.VsMeasurement) (*VelocityProfile, error) {
	investigation, err := a.Investigation(ctx, inv)
	if err != nil {
		return nil, err
	}

	sorted := make([]schema.VsMeasurement, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	measurements := make([]VsMeasurement, len(sorted))
	for i, m := range sorted {
		measurements[i] = VsMeasurement{Depth: m.Depth, Vs: m.Vs}
	}

	return &VelocityProfile{
		ProfileID:     prof.ProfileID,
		Investigation: investigation,
		ProfileFile:   prof.ProfileFile,
		Measurements:  measurements,
	}, nil
}
