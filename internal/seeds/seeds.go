// Package seeds loads the bundled demonstration dataset.
package seeds

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/EmpoweredVote/geodata/internal/schema"
	"github.com/EmpoweredVote/geodata/internal/soil"
	"github.com/goccy/go-yaml"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed data/demo.yaml
var demoYAML []byte

type dataset struct {
	Regions        []named         `yaml:"regions"`
	Districts      []named         `yaml:"districts"`
	Cities         []named         `yaml:"cities"`
	Suburbs        []named         `yaml:"suburbs"`
	Investigations []investigation `yaml:"investigations"`
	SPT            []sptReport     `yaml:"spt"`
	CPT            []cptReport     `yaml:"cpt"`
	Vs             []vsProfile     `yaml:"vs"`
}

type named struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type investigation struct {
	NZGDID            int     `yaml:"nzgd_id"`
	OriginalReference string  `yaml:"original_reference"`
	InvestigationDate string  `yaml:"investigation_date"`
	PublishedDate     string  `yaml:"published_date"`
	Latitude          float64 `yaml:"latitude"`
	Longitude         float64 `yaml:"longitude"`
	RegionID          int     `yaml:"region_id"`
	DistrictID        int     `yaml:"district_id"`
	CityID            int     `yaml:"city_id"`
	SuburbID          int     `yaml:"suburb_id"`
}

type sptReport struct {
	BoreholeID   int     `yaml:"borehole_id"`
	NZGDID       int     `yaml:"nzgd_id"`
	BoreholeFile string  `yaml:"borehole_file"`
	Efficiency   float64 `yaml:"efficiency"`
	Diameter     float64 `yaml:"diameter"`
	Measurements []struct {
		Depth float64 `yaml:"depth"`
		N     int     `yaml:"n"`
	} `yaml:"measurements"`
	Layers []struct {
		ID     int      `yaml:"id"`
		Top    float64  `yaml:"top"`
		Bottom *float64 `yaml:"bottom"`
		Types  []string `yaml:"types"`
	} `yaml:"layers"`
}

type cptReport struct {
	CPTID        int    `yaml:"cpt_id"`
	NZGDID       int    `yaml:"nzgd_id"`
	CPTFile      string `yaml:"cpt_file"`
	Measurements []struct {
		Depth float64 `yaml:"depth"`
		Qc    float64 `yaml:"qc"`
		Fs    float64 `yaml:"fs"`
		U2    float64 `yaml:"u2"`
	} `yaml:"measurements"`
}

type vsProfile struct {
	ProfileID    int    `yaml:"profile_id"`
	NZGDID       int    `yaml:"nzgd_id"`
	ProfileFile  string `yaml:"profile_file"`
	Measurements []struct {
		Depth float64 `yaml:"depth"`
		Vs    float64 `yaml:"vs"`
	} `yaml:"measurements"`
}

// SeedDemo inserts the demonstration dataset in one transaction. Rows whose
// key already exists are skipped, so running it twice is harmless.
func SeedDemo(ctx context.Context, db *gorm.DB) error {
	var d dataset
	if err := yaml.UnmarshalWithOptions(demoYAML, &d, yaml.Strict()); err != nil {
		return fmt.Errorf("failed to parse demo dataset: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedGeography(tx, d); err != nil {
			return err
		}

		seeded := 0
		for _, inv := range d.Investigations {
			var existing schema.InvestigationRecord
			err := tx.First(&existing, "nzgd_id = ?", inv.NZGDID).Error
			if err == nil {
				log.Printf("[seeds] investigation %d exists, skipping", inv.NZGDID)
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("DB error on investigation %d: %w", inv.NZGDID, err)
			}

			if err := seedInvestigation(tx, d, inv); err != nil {
				return fmt.Errorf("investigation %d: %w", inv.NZGDID, err)
			}
			seeded++
		}

		log.Printf("[seeds] seeded %d investigations", seeded)
		return nil
	})
}

func seedGeography(tx *gorm.DB, d dataset) error {
	var (
		regions   []schema.Region
		districts []schema.District
		cities    []schema.City
		suburbs   []schema.Suburb
	)
	for _, g := range d.Regions {
		regions = append(regions, schema.Region{RegionID: g.ID, Name: g.Name})
	}
	for _, g := range d.Districts {
		districts = append(districts, schema.District{DistrictID: g.ID, Name: g.Name})
	}
	for _, g := range d.Cities {
		cities = append(cities, schema.City{CityID: g.ID, Name: g.Name})
	}
	for _, g := range d.Suburbs {
		suburbs = append(suburbs, schema.Suburb{SuburbID: g.ID, Name: g.Name})
	}

	if err := createMissing(tx, regions); err != nil {
		return fmt.Errorf("seed regions: %w", err)
	}
	if err := createMissing(tx, districts); err != nil {
		return fmt.Errorf("seed districts: %w", err)
	}
	if err := createMissing(tx, cities); err != nil {
		return fmt.Errorf("seed cities: %w", err)
	}
	if err := createMissing(tx, suburbs); err != nil {
		return fmt.Errorf("seed suburbs: %w", err)
	}
	return nil
}

// createMissing inserts rows, skipping keys that already exist.
func createMissing[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func seedInvestigation(tx *gorm.DB, d dataset, inv investigation) error {
	investigated, err := parseDate(inv.InvestigationDate)
	if err != nil {
		return err
	}
	published, err := parseDate(inv.PublishedDate)
	if err != nil {
		return err
	}

	rec := schema.InvestigationRecord{
		NZGDID:            inv.NZGDID,
		OriginalReference: inv.OriginalReference,
		InvestigationDate: investigated,
		PublishedDate:     published,
		Latitude:          inv.Latitude,
		Longitude:         inv.Longitude,
		RegionID:          inv.RegionID,
		DistrictID:        inv.DistrictID,
		CityID:            inv.CityID,
		SuburbID:          inv.SuburbID,
	}
	if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
		return err
	}

	for _, r := range d.SPT {
		if r.NZGDID == inv.NZGDID {
			if err := seedSPT(tx, r); err != nil {
				return fmt.Errorf("spt report %d: %w", r.BoreholeID, err)
			}
		}
	}
	for _, r := range d.CPT {
		if r.NZGDID == inv.NZGDID {
			if err := seedCPT(tx, r); err != nil {
				return fmt.Errorf("cpt report %d: %w", r.CPTID, err)
			}
		}
	}
	for _, p := range d.Vs {
		if p.NZGDID == inv.NZGDID {
			if err := seedVs(tx, p); err != nil {
				return fmt.Errorf("velocity profile %d: %w", p.ProfileID, err)
			}
		}
	}
	return nil
}

func seedSPT(tx *gorm.DB, r sptReport) error {
	rep := schema.SPTReport{
		BoreholeID:       r.BoreholeID,
		NZGDID:           r.NZGDID,
		BoreholeFile:     r.BoreholeFile,
		Efficiency:       r.Efficiency,
		BoreholeDiameter: r.Diameter,
	}
	if err := tx.Omit(clause.Associations).Create(&rep).Error; err != nil {
		return err
	}

	for _, m := range r.Measurements {
		row := schema.SPTMeasurement{BoreholeID: r.BoreholeID, Depth: m.Depth, N: m.N}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
	}

	for _, l := range r.Layers {
		layer := schema.SoilLayer{MeasurementID: l.ID, ReportID: r.BoreholeID, TopDepth: l.Top, BottomDepth: l.Bottom}
		if err := tx.Omit(clause.Associations).Create(&layer).Error; err != nil {
			return err
		}
		for _, name := range l.Types {
			t, err := soil.ParseType(name)
			if err != nil {
				return fmt.Errorf("layer %d: %w", l.ID, err)
			}
			var st schema.SoilType
			if err := tx.First(&st, "name = ?", string(t)).Error; err != nil {
				return fmt.Errorf("layer %d: soil type %s: %w", l.ID, t, err)
			}
			link := schema.SoilLayerSoilType{SoilLayerID: l.ID, SoilTypeID: st.ID}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// seedCPT also writes the max-depth summary, which must match the deepest
// stored measurement.
func seedCPT(tx *gorm.DB, r cptReport) error {
	rep := schema.CPTReport{CPTID: r.CPTID, NZGDID: r.NZGDID, CPTFile: r.CPTFile}
	if err := tx.Omit(clause.Associations).Create(&rep).Error; err != nil {
		return err
	}

	if len(r.Measurements) == 0 {
		return nil
	}
	maxDepth := r.Measurements[0].Depth
	for _, m := range r.Measurements {
		row := schema.CPTMeasurement{CPTID: r.CPTID, Depth: m.Depth, Qc: m.Qc, Fs: m.Fs, U2: m.U2}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		if m.Depth > maxDepth {
			maxDepth = m.Depth
		}
	}
	return tx.Omit(clause.Associations).Create(&schema.CPTMaxDepth{CPTID: r.CPTID, MaxDepth: maxDepth}).Error
}

func seedVs(tx *gorm.DB, p vsProfile) error {
	prof := schema.VelocityProfile{ProfileID: p.ProfileID, NZGDID: p.NZGDID, ProfileFile: p.ProfileFile}
	if err := tx.Omit(clause.Associations).Create(&prof).Error; err != nil {
		return err
	}
	for _, m := range p.Measurements {
		row := schema.VsMeasurement{ProfileID: p.ProfileID, Depth: m.Depth, Vs: m.Vs}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func parseDate(s string) (datatypes.Date, error) {
	if s == "" {
		return datatypes.Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return datatypes.Date(t), nil
}
