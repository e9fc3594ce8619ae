package search_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/EmpoweredVote/geodata/internal/assemble"
	"github.com/EmpoweredVote/geodata/internal/db"
	"github.com/EmpoweredVote/geodata/internal/db/dbtest"
	"github.com/EmpoweredVote/geodata/internal/metrics"
	"github.com/EmpoweredVote/geodata/internal/query"
	"github.com/EmpoweredVote/geodata/internal/schema"
	"github.com/EmpoweredVote/geodata/internal/search"
	"github.com/EmpoweredVote/geodata/internal/soil"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ptr[T any](v T) *T { return &v }

func insert(t *testing.T, gdb *gorm.DB, rows ...any) {
	t.Helper()
	for _, r := range rows {
		if err := gdb.Omit(clause.Associations).Create(r).Error; err != nil {
			t.Fatalf("insert %T: %v", r, err)
		}
	}
}

// seedGeography stores two sites: investigation 1 in Riccarton and
// investigation 2 in Sumner, both in Christchurch.
func seedGeography(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	surveyed := datatypes.Date(time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC))
	insert(t, gdb,
		&schema.Region{RegionID: 1, Name: "Canterbury"},
		&schema.District{DistrictID: 1, Name: "Christchurch City"},
		&schema.City{CityID: 1, Name: "Christchurch"},
		&schema.Suburb{SuburbID: 1, Name: "Riccarton"},
		&schema.Suburb{SuburbID: 2, Name: "Sumner"},
		&schema.InvestigationRecord{NZGDID: 1, OriginalReference: "BH_Riccarton_01", InvestigationDate: surveyed,
			RegionID: 1, DistrictID: 1, CityID: 1, SuburbID: 1},
		&schema.InvestigationRecord{NZGDID: 2, OriginalReference: "bh_sumner_02", InvestigationDate: surveyed,
			RegionID: 1, DistrictID: 1, CityID: 1, SuburbID: 2},
	)
}

func boreholeIDs(reps []*assemble.PenetrationReport) []int {
	ids := make([]int, len(reps))
	for i, r := range reps {
		ids[i] = r.BoreholeID
	}
	sort.Ints(ids)
	return ids
}

func cptIDs(reps []*assemble.ConeReport) []int {
	ids := make([]int, len(reps))
	for i, r := range reps {
		ids[i] = r.CPTID
	}
	sort.Ints(ids)
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearchPenetrationTestsEfficiencyRange(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1, Efficiency: 55},
		&schema.SPTReport{BoreholeID: 2, NZGDID: 1, Efficiency: 72},
		&schema.SPTReport{BoreholeID: 3, NZGDID: 2, Efficiency: 80},
	)
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{
		Efficiency: query.Range{Min: ptr(60.0), Max: ptr(80.0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids := boreholeIDs(got); !equalIDs(ids, []int{2, 3}) {
		t.Errorf("expected boreholes [2 3] (bounds inclusive), got %v", ids)
	}
	for _, r := range got {
		if r.Efficiency < 60 || r.Efficiency > 80 {
			t.Errorf("borehole %d efficiency %v outside range", r.BoreholeID, r.Efficiency)
		}
	}
}

func TestSearchPenetrationTestsAssemblesChildren(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1, BoreholeFile: "BH_1.pdf", Efficiency: 70, BoreholeDiameter: 0.1},
		&schema.SPTMeasurement{ID: 1, BoreholeID: 1, Depth: 4.5, N: 20},
		&schema.SPTMeasurement{ID: 2, BoreholeID: 1, Depth: 1.5, N: 6},
		&schema.SPTMeasurement{ID: 3, BoreholeID: 1, Depth: 3.0, N: 12},
		&schema.SoilLayer{MeasurementID: 1, ReportID: 1, TopDepth: 0, BottomDepth: ptr(2.0)},
		&schema.SoilLayer{MeasurementID: 2, ReportID: 1, TopDepth: 2, BottomDepth: ptr(5.0)},
		&schema.SoilLayerSoilType{SoilLayerID: 1, SoilTypeID: 1},
		&schema.SoilLayerSoilType{SoilLayerID: 2, SoilTypeID: 2},
		&schema.SoilLayerSoilType{SoilLayerID: 2, SoilTypeID: 3},
	)
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one report, got %d", len(got))
	}
	rep := got[0]

	if rep.Investigation.Suburb != "Riccarton" || rep.Investigation.Region != "Canterbury" {
		t.Errorf("unexpected investigation: %+v", rep.Investigation)
	}
	if len(rep.Measurements) != 3 {
		t.Fatalf("expected 3 measurements, got %d", len(rep.Measurements))
	}
	for i := 1; i < len(rep.Measurements); i++ {
		if rep.Measurements[i-1].Depth > rep.Measurements[i].Depth {
			t.Errorf("measurements out of depth order: %+v", rep.Measurements)
		}
	}

	at3 := rep.Soil.Point(3)
	if len(at3) != 2 || at3[0].Type != soil.Silt || at3[1].Type != soil.Clay {
		t.Errorf("expected SILT and CLAY at depth 3, got %+v", at3)
	}
	at1 := rep.Soil.Point(1)
	if len(at1) != 1 || at1[0].Type != soil.Sand {
		t.Errorf("expected SAND at depth 1, got %+v", at1)
	}
}

func TestSearchPenetrationTestsDepthNoDuplicates(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1},
		&schema.SPTReport{BoreholeID: 2, NZGDID: 1},
		&schema.SPTMeasurement{ID: 1, BoreholeID: 1, Depth: 1},
		&schema.SPTMeasurement{ID: 2, BoreholeID: 1, Depth: 2},
		&schema.SPTMeasurement{ID: 3, BoreholeID: 1, Depth: 6},
		&schema.SPTMeasurement{ID: 4, BoreholeID: 2, Depth: 12},
	)
	svc := search.NewService(gdb, nil)

	tests := []struct {
		name  string
		depth query.Range
		want  []int
	}{
		{"lower bound", query.Range{Min: ptr(5.0)}, []int{1, 2}},
		{"upper bound", query.Range{Max: ptr(10.0)}, []int{1}},
		{"window", query.Range{Min: ptr(7.0), Max: ptr(12.0)}, []int{2}},
		{"inverted window", query.Range{Min: ptr(12.0), Max: ptr(7.0)}, []int{}},
		{"zero upper bound", query.Range{Max: ptr(0.0)}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{MeasurementDepth: tt.depth})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := boreholeIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestSearchPenetrationTestsOriginalReferenceIsCaseSensitive(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.InvestigationRecord{NZGDID: 3, OriginalReference: "BHX03", RegionID: 1, DistrictID: 1, CityID: 1, SuburbID: 1},
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1},
		&schema.SPTReport{BoreholeID: 2, NZGDID: 2},
		&schema.SPTReport{BoreholeID: 3, NZGDID: 3},
	)
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{
		Location: query.Location{OriginalReference: ptr("BH_")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "bh_sumner_02" differs in case; "BHX03" would match if '_' were a wildcard.
	if ids := boreholeIDs(got); !equalIDs(ids, []int{1}) {
		t.Errorf("expected only borehole 1, got %v", ids)
	}
}

func TestSearchPenetrationTestsGeography(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1},
		&schema.SPTReport{BoreholeID: 2, NZGDID: 2},
	)
	svc := search.NewService(gdb, nil)

	tests := []struct {
		name string
		loc  query.Location
		want []int
	}{
		{"suburb", query.Location{Suburb: ptr("Sumner")}, []int{2}},
		{"city", query.Location{City: ptr("Christchurch")}, []int{1, 2}},
		{"region and suburb", query.Location{Region: ptr("Canterbury"), Suburb: ptr("Riccarton")}, []int{1}},
		{"unknown region", query.Location{Region: ptr("Otago")}, []int{}},
		{"investigation id", query.Location{NZGDID: ptr(2)}, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{Location: tt.loc})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := boreholeIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestSearchPenetrationTestsGeographyUnicodeForms(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	decomposed := "O\u0304tautahi"
	precomposed := "\u014Ctautahi"
	insert(t, gdb,
		&schema.City{CityID: 2, Name: decomposed},
		&schema.InvestigationRecord{NZGDID: 3, OriginalReference: "BH_Otautahi_03",
			RegionID: 1, DistrictID: 1, CityID: 2, SuburbID: 1},
		&schema.SPTReport{BoreholeID: 3, NZGDID: 3},
	)
	svc := search.NewService(gdb, nil)

	for _, name := range []string{decomposed, precomposed} {
		got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{
			Location: query.Location{City: ptr(name)},
		})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}
		if ids := boreholeIDs(got); !equalIDs(ids, []int{3}) {
			t.Errorf("%q: expected [3], got %v", name, ids)
		}
	}
}

func TestSearchPenetrationTestsIdempotent(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.SPTReport{BoreholeID: 1, NZGDID: 1},
		&schema.SPTReport{BoreholeID: 2, NZGDID: 2},
		&schema.SPTMeasurement{ID: 1, BoreholeID: 1, Depth: 3},
		&schema.SPTMeasurement{ID: 2, BoreholeID: 2, Depth: 4},
	)
	svc := search.NewService(gdb, nil)
	c := query.PenetrationTestCriteria{MeasurementDepth: query.Range{Min: ptr(1.0)}}

	first, err := svc.SearchPenetrationTests(context.Background(), c)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := svc.SearchPenetrationTests(context.Background(), c)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if a, b := boreholeIDs(first), boreholeIDs(second); !equalIDs(a, b) {
		t.Errorf("repeated search changed results: %v then %v", a, b)
	}
}

func TestSearchPenetrationTestsOrphanedRegion(t *testing.T) {
	gdb := dbtest.NewWithoutForeignKeys(t)
	seedGeography(t, gdb)
	insert(t, gdb, &schema.SPTReport{BoreholeID: 1, NZGDID: 1})
	if err := gdb.Delete(&schema.Region{}, 1).Error; err != nil {
		t.Fatalf("delete region: %v", err)
	}
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchPenetrationTests(context.Background(), query.PenetrationTestCriteria{})
	if !errors.Is(err, assemble.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	var ref *assemble.ReferenceError
	if !errors.As(err, &ref) || ref.Table != schema.TableRegions || ref.ID != 1 {
		t.Errorf("expected regions id 1 in error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial results, got %d", len(got))
	}
}

func TestSearchConeTestsSkipsReportsWithoutInvestigation(t *testing.T) {
	gdb := dbtest.NewWithoutForeignKeys(t)
	seedGeography(t, gdb)
	insert(t, gdb, &schema.CPTReport{CPTID: 1, NZGDID: 99})
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchConeTests(context.Background(), query.ConeTestCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected report without investigation to be excluded, got %v", cptIDs(got))
	}
}

func TestSearchConeTestsEmptyFilter(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.CPTReport{CPTID: 1, NZGDID: 1},
		&schema.CPTReport{CPTID: 2, NZGDID: 1},
		&schema.CPTReport{CPTID: 3, NZGDID: 2},
	)
	id := 0
	for cpt := 1; cpt <= 3; cpt++ {
		for _, d := range []float64{0.6, 0.2, 0.4} {
			id++
			insert(t, gdb, &schema.CPTMeasurement{MeasurementID: id, CPTID: cpt, Depth: d * float64(cpt), Qc: d})
		}
		insert(t, gdb, &schema.CPTMaxDepth{CPTID: cpt, MaxDepth: 0.6 * float64(cpt)})
	}
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchConeTests(context.Background(), query.ConeTestCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := cptIDs(got); !equalIDs(ids, []int{1, 2, 3}) {
		t.Fatalf("expected all three soundings, got %v", ids)
	}
	for _, rep := range got {
		if len(rep.Measurements) != 3 {
			t.Errorf("cpt %d: expected 3 measurements, got %d", rep.CPTID, len(rep.Measurements))
		}
		for i := 1; i < len(rep.Measurements); i++ {
			if rep.Measurements[i-1].Depth > rep.Measurements[i].Depth {
				t.Errorf("cpt %d: measurements out of depth order: %+v", rep.CPTID, rep.Measurements)
			}
		}
	}
}

func TestSearchConeTestsMaxDepth(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.CPTReport{CPTID: 1, NZGDID: 1},
		&schema.CPTReport{CPTID: 2, NZGDID: 2},
		&schema.CPTMaxDepth{CPTID: 1, MaxDepth: 8},
		&schema.CPTMaxDepth{CPTID: 2, MaxDepth: 20},
	)
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchConeTests(context.Background(), query.ConeTestCriteria{
		MeasurementDepth: query.Range{Min: ptr(10.0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := cptIDs(got); !equalIDs(ids, []int{2}) {
		t.Errorf("expected cpt 2, got %v", ids)
	}

	got, err = svc.SearchConeTests(context.Background(), query.ConeTestCriteria{
		CPTID:            ptr(1),
		MeasurementDepth: query.Range{Max: ptr(8.0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := cptIDs(got); !equalIDs(ids, []int{1}) {
		t.Errorf("expected cpt 1 (inclusive bound), got %v", ids)
	}
}

func TestSearchVelocityProfiles(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb,
		&schema.VelocityProfile{ProfileID: 1, NZGDID: 1, ProfileFile: "SCPT_1.csv"},
		&schema.VelocityProfile{ProfileID: 2, NZGDID: 2},
		&schema.VsMeasurement{MeasurementID: 1, ProfileID: 1, Depth: 10, Vs: 320},
		&schema.VsMeasurement{MeasurementID: 2, ProfileID: 1, Depth: 2, Vs: 140},
	)
	svc := search.NewService(gdb, nil)

	got, err := svc.SearchVelocityProfiles(context.Background(), query.VelocityProfileCriteria{
		Location: query.Location{Suburb: ptr("Riccarton")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProfileID != 1 {
		t.Fatalf("expected profile 1, got %+v", got)
	}
	prof := got[0]
	if prof.ProfileFile != "SCPT_1.csv" || prof.Investigation.Suburb != "Riccarton" {
		t.Errorf("unexpected profile: %+v", prof)
	}
	if len(prof.Measurements) != 2 || prof.Measurements[0].Vs != 140 || prof.Measurements[1].Vs != 320 {
		t.Errorf("expected depth-sorted series, got %+v", prof.Measurements)
	}
}

func TestSearchRecordsMetrics(t *testing.T) {
	gdb := dbtest.New(t)
	seedGeography(t, gdb)
	insert(t, gdb, &schema.VelocityProfile{ProfileID: 1, NZGDID: 1})
	reg := prometheus.NewRegistry()
	svc := search.NewService(gdb, metrics.New(reg))

	if _, err := svc.SearchVelocityProfiles(context.Background(), query.VelocityProfileCriteria{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "geodata_searches_total" {
			continue
		}
		if v := f.GetMetric()[0].GetCounter().GetValue(); v != 1 {
			t.Errorf("expected one search recorded, got %v", v)
		}
		return
	}
	t.Errorf("geodata_searches_total not gathered")
}

func TestSearchStorageErrorPropagates(t *testing.T) {
	gdb := dbtest.New(t)
	svc := search.NewService(gdb, nil)
	if err := db.Close(gdb); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := svc.SearchConeTests(context.Background(), query.ConeTestCriteria{})
	if err == nil {
		t.Fatal("expected error from closed database")
	}
	if errors.Is(err, assemble.ErrReferenceNotFound) {
		t.Errorf("storage failure reported as missing reference: %v", err)
	}
}
