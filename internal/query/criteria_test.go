package query_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/geodata/internal/config"
	"github.com/EmpoweredVote/geodata/internal/query"
)

func TestCriteriaFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	doc := `efficiency:
  min: 60
  max: 80
measurement_depth:
  max: 0
suburb: Riccarton
original_reference: BH_
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var c query.PenetrationTestCriteria
	if err := config.LoadFilters(path, &c); err != nil {
		t.Fatalf("LoadFilters: %v", err)
	}

	if c.Efficiency.Min == nil || *c.Efficiency.Min != 60 || c.Efficiency.Max == nil || *c.Efficiency.Max != 80 {
		t.Errorf("unexpected efficiency: %+v", c.Efficiency)
	}
	if c.MeasurementDepth.Max == nil || *c.MeasurementDepth.Max != 0 || c.MeasurementDepth.Min != nil {
		t.Errorf("unexpected depth: %+v", c.MeasurementDepth)
	}
	if c.Suburb == nil || *c.Suburb != "Riccarton" || c.OriginalReference == nil || *c.OriginalReference != "BH_" {
		t.Errorf("expected inline location fields, got %+v", c.Location)
	}
	if c.BoreholeID != nil || c.Region != nil || c.Diameter.IsSet() {
		t.Errorf("omitted fields must stay unset: %+v", c)
	}
}

func TestRangeIsSet(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name string
		r    query.Range
		want bool
	}{
		{"empty", query.Range{}, false},
		{"zero min", query.Range{Min: &zero}, true},
		{"zero max", query.Range{Max: &zero}, true},
	}
	for _, tt := range tests {
		if got := tt.r.IsSet(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
