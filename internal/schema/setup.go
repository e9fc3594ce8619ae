package schema

import (
	"context"
	"fmt"
	"log"

	"github.com/EmpoweredVote/geodata/internal/soil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table of the geotechnical schema. gorm orders them by
// foreign-key dependency during migration.
func Models() []any {
	return []any{
		&Region{},
		&District{},
		&City{},
		&Suburb{},
		&InvestigationRecord{},
		&SPTReport{},
		&SPTMeasurement{},
		&SoilLayer{},
		&SoilType{},
		&SoilLayerSoilType{},
		&CPTReport{},
		&CPTMeasurement{},
		&CPTMaxDepth{},
		&VelocityProfile{},
		&VsMeasurement{},
	}
}

// Provision creates the tables and seeds the soil type labels. All work
// runs on a single pooled connection which is returned to the pool when
// Provision exits, whatever the outcome.
func Provision(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto-migrate geodata tables: %w", err)
		}
		if err := seedSoilTypes(conn); err != nil {
			return err
		}
		log.Printf("[schema] provisioned %d tables", len(Models()))
		return nil
	})
}

func seedSoilTypes(conn *gorm.DB) error {
	rows := make([]SoilType, 0, len(soil.Types))
	for i, t := range soil.Types {
		rows = append(rows, SoilType{ID: i + 1, Name: string(t)})
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed soil types: %w", err)
	}
	return nil
}
