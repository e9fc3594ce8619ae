package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/EmpoweredVote/geodata/internal/schema"
	"gorm.io/gorm"
)

var geographyKeys = map[string]string{
	schema.TableRegions:   "region_id",
	schema.TableDistricts: "district_id",
	schema.TableCities:    "city_id",
	schema.TableSuburbs:   "suburb_id",
}

type geographyKey struct {
	table string
	id    int
}

// geographyCache resolves geography names for one search. Reports in a
// result set usually share a handful of regions and suburbs, so each id is
// fetched at most once per call.
type geographyCache struct {
	db    *gorm.DB
	names map[geographyKey]string
}

func newGeographyCache(db *gorm.DB) *geographyCache {
	return &geographyCache{db: db, names: make(map[geographyKey]string)}
}

func (g *geographyCache) GeographyName(ctx context.Context, table string, id int) (string, bool, error) {
	key := geographyKey{table, id}
	if name, ok := g.names[key]; ok {
		return name, true, nil
	}

	column, ok := geographyKeys[table]
	if !ok {
		return "", false, fmt.Errorf("unknown geography table %q", table)
	}

	var row struct{ Name string }
	err := g.db.WithContext(ctx).Table(table).Select("name").Where(column+" = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	g.names[key] = row.Name
	return row.Name, true, nil
}
