// Package search is the entry point for report queries. Each search runs one
// planned query for the matching reports, then fetches every report's child
// rows separately (one round trip per report and child table) and assembles
// the result before returning. Per-site report counts are small; large
// result sets pay for that N+1 pattern.
//
// Results carry no guaranteed order. Callers that need a stable order sort by
// report id.
package search

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/EmpoweredVote/geodata/internal/assemble"
	"github.com/EmpoweredVote/geodata/internal/metrics"
	"github.com/EmpoweredVote/geodata/internal/query"
	"github.com/EmpoweredVote/geodata/internal/schema"
	"github.com/EmpoweredVote/geodata/internal/soil"
	"gorm.io/gorm"
)

// Service runs searches against an injected connection.
type Service struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewService returns a Service reading from db. m may be nil.
func NewService(db *gorm.DB, m *metrics.Metrics) *Service {
	return &Service{db: db, metrics: m}
}

// SearchPenetrationTests returns every SPT borehole matching c.
func (s *Service) SearchPenetrationTests(ctx context.Context, c query.PenetrationTestCriteria) ([]*assemble.PenetrationReport, error) {
	plan := query.PenetrationTests(c)
	r := startRun(metrics.KindSPT, plan)
	tx := s.db.WithContext(ctx)

	var rows []schema.SPTReport
	if err := plan.Apply(tx).Find(&rows).Error; err != nil {
		return nil, s.fail(r, "query", fmt.Errorf("search spt reports: %w", err))
	}
	invs, err := investigations(tx, rows, func(row schema.SPTReport) int { return row.NZGDID })
	if err != nil {
		return nil, s.fail(r, "investigations", fmt.Errorf("load investigations: %w", err))
	}

	asm := assemble.New(newGeographyCache(tx))
	out := make([]*assemble.PenetrationReport, 0, len(rows))
	for _, row := range rows {
		inv, ok := invs[row.NZGDID]
		if !ok {
			err := &assemble.ReferenceError{Table: schema.TableInvestigations, ID: row.NZGDID}
			return nil, s.fail(r, "assemble", fmt.Errorf("spt report %d: %w", row.BoreholeID, err))
		}

		var measurements []schema.SPTMeasurement
		if err := tx.Where("borehole_id = ?", row.BoreholeID).Order("id").Find(&measurements).Error; err != nil {
			return nil, s.fail(r, "measurements", fmt.Errorf("spt report %d measurements: %w", row.BoreholeID, err))
		}
		layers, err := soilLayers(tx, row.BoreholeID)
		if err != nil {
			return nil, s.fail(r, "soil layers", fmt.Errorf("spt report %d soil layers: %w", row.BoreholeID, err))
		}

		rep, err := asm.PenetrationReport(ctx, row, inv, measurements, layers)
		if err != nil {
			return nil, s.fail(r, "assemble", fmt.Errorf("spt report %d: %w", row.BoreholeID, err))
		}
		out = append(out, rep)
	}

	s.done(r, len(out))
	return out, nil
}

// SearchConeTests returns every CPT sounding matching c.
func (s *Service) SearchConeTests(ctx context.Context, c query.ConeTestCriteria) ([]*assemble.ConeReport, error) {
	plan := query.ConeTests(c)
	r := startRun(metrics.KindCPT, plan)
	tx := s.db.WithContext(ctx)

	var rows []schema.CPTReport
	if err := plan.Apply(tx).Find(&rows).Error; err != nil {
		return nil, s.fail(r, "query", fmt.Errorf("search cpt reports: %w", err))
	}
	invs, err := investigations(tx, rows, func(row schema.CPTReport) int { return row.NZGDID })
	if err != nil {
		return nil, s.fail(r, "investigations", fmt.Errorf("load investigations: %w", err))
	}

	asm := assemble.New(newGeographyCache(tx))
	out := make([]*assemble.ConeReport, 0, len(rows))
	for _, row := range rows {
		inv, ok := invs[row.NZGDID]
		if !ok {
			err := &assemble.ReferenceError{Table: schema.TableInvestigations, ID: row.NZGDID}
			return nil, s.fail(r, "assemble", fmt.Errorf("cpt report %d: %w", row.CPTID, err))
		}

		var measurements []schema.CPTMeasurement
		if err := tx.Where("cpt_id = ?", row.CPTID).Order("measurement_id").Find(&measurements).Error; err != nil {
			return nil, s.fail(r, "measurements", fmt.Errorf("cpt report %d measurements: %w", row.CPTID, err))
		}

		rep, err := asm.ConeReport(ctx, row, inv, measurements)
		if err != nil {
			return nil, s.fail(r, "assemble", fmt.Errorf("cpt report %d: %w", row.CPTID, err))
		}
		out = append(out, rep)
	}

	s.done(r, len(out))
	return out, nil
}

// SearchVelocityProfiles returns every shear-wave velocity profile matching c.
func (s *Service) SearchVelocityProfiles(ctx context.Context, c query.VelocityProfileCriteria) ([]*assemble.VelocityProfile, error) {
	plan := query.VelocityProfiles(c)
	r := startRun(metrics.KindVs, plan)
	tx := s.db.WithContext(ctx)

	var rows []schema.VelocityProfile
	if err := plan.Apply(tx).Find(&rows).Error; err != nil {
		return nil, s.fail(r, "query", fmt.Errorf("search velocity profiles: %w", err))
	}
	invs, err := investigations(tx, rows, func(row schema.VelocityProfile) int { return row.NZGDID })
	if err != nil {
		return nil, s.fail(r, "investigations", fmt.Errorf("load investigations: %w", err))
	}

	asm := assemble.New(newGeographyCache(tx))
	out := make([]*assemble.VelocityProfile, 0, len(rows))
	for _, row := range rows {
		inv, ok := invs[row.NZGDID]
		if !ok {
			err := &assemble.ReferenceError{Table: schema.TableInvestigations, ID: row.NZGDID}
			return nil, s.fail(r, "assemble", fmt.Errorf("velocity profile %d: %w", row.ProfileID, err))
		}

		var measurements []schema.VsMeasurement
		if err := tx.Where("profile_id = ?", row.ProfileID).Order("measurement_id").Find(&measurements).Error; err != nil {
			return nil, s.fail(r, "measurements", fmt.Errorf("velocity profile %d measurements: %w", row.ProfileID, err))
		}

		prof, err := asm.VelocityProfile(ctx, row, inv, measurements)
		if err != nil {
			return nil, s.fail(r, "assemble", fmt.Errorf("velocity profile %d: %w", row.ProfileID, err))
		}
		out = append(out, prof)
	}

	s.done(r, len(out))
	return out, nil
}

func (s *Service) done(r *run, hits int) {
	r.logDone(hits)
	s.metrics.ObserveSearch(r.kind, hits, time.Since(r.start), nil)
}

func (s *Service) fail(r *run, operation string, err error) error {
	r.logError(operation, err)
	s.metrics.ObserveSearch(r.kind, 0, time.Since(r.start), err)
	return err
}

// investigations loads the investigation rows referenced by reports, keyed
// by id. A report whose investigation is missing has no entry.
func investigations[R any](tx *gorm.DB, reports []R, nzgdID func(R) int) (map[int]schema.InvestigationRecord, error) {
	out := make(map[int]schema.InvestigationRecord, len(reports))
	if len(reports) == 0 {
		return out, nil
	}
	ids := make([]int, 0, len(reports))
	for _, r := range reports {
		if id := nzgdID(r); !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	var rows []schema.InvestigationRecord
	if err := tx.Where("nzgd_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, inv := range rows {
		out[inv.NZGDID] = inv
	}
	return out, nil
}

// soilLayers loads a borehole's layers with their labels.
func soilLayers(tx *gorm.DB, boreholeID int) ([]assemble.SoilLayerRow, error) {
	var layers []schema.SoilLayer
	if err := tx.Where("report_id = ?", boreholeID).Order("measurement_id").Find(&layers).Error; err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, nil
	}

	ids := make([]int, len(layers))
	for i, l := range layers {
		ids[i] = l.MeasurementID
	}

	var labels []struct {
		SoilLayerID int    `gorm:"column:soil_layer_id"`
		Name        string `gorm:"column:name"`
	}
	j := schema.TableSoilLayerSoilTypes
	err := tx.Table(j).
		Select(j+".soil_layer_id, "+schema.TableSoilTypes+".name").
		Joins("INNER JOIN "+schema.TableSoilTypes+" ON "+schema.TableSoilTypes+".id = "+j+".soil_type_id").
		Where(j+".soil_layer_id IN ?", ids).
		Order(j + ".soil_layer_id").
		Order(schema.TableSoilTypes + ".id").
		Scan(&labels).Error
	if err != nil {
		return nil, err
	}

	types := make(map[int][]soil.Type, len(layers))
	for _, l := range labels {
		t, err := soil.ParseType(l.Name)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", l.SoilLayerID, err)
		}
		types[l.SoilLayerID] = append(types[l.SoilLayerID], t)
	}

	out := make([]assemble.SoilLayerRow, len(layers))
	for i, l := range layers {
		out[i] = assemble.SoilLayerRow{Layer: l, Types: types[l.MeasurementID]}
	}
	return out, nil
}
