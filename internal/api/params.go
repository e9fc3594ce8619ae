package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/EmpoweredVote/geodata/internal/query"
)

// params reads optional filters from a query string. The first malformed
// value is kept in err; later reads are skipped.
type params struct {
	q   url.Values
	err error
}

func (p *params) integer(name string) *int {
	raw := p.q.Get(name)
	if raw == "" || p.err != nil {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q: must be an integer", name, raw)
		return nil
	}
	return &v
}

func (p *params) number(name string) *float64 {
	raw := p.q.Get(name)
	if raw == "" || p.err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q: must be a number", name, raw)
		return nil
	}
	return &v
}

func (p *params) text(name string) *string {
	raw := p.q.Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func (p *params) rng(prefix string) query.Range {
	return query.Range{Min: p.number("min_" + prefix), Max: p.number("max_" + prefix)}
}

func (p *params) location() query.Location {
	return query.Location{
		NZGDID:            p.integer("nzgd_id"),
		OriginalReference: p.text("original_reference"),
		Region:            p.text("region"),
		District:          p.text("district"),
		City:              p.text("city"),
		Suburb:            p.text("suburb"),
	}
}

func penetrationCriteria(q url.Values) (query.PenetrationTestCriteria, error) {
	p := &params{q: q}
	c := query.PenetrationTestCriteria{
		BoreholeID:       p.integer("borehole_id"),
		Efficiency:       p.rng("efficiency"),
		Diameter:         p.rng("diameter"),
		MeasurementDepth: p.rng("depth"),
		Location:         p.location(),
	}
	return c, p.err
}

func coneCriteria(q url.Values) (query.ConeTestCriteria, error) {
	p := &params{q: q}
	c := query.ConeTestCriteria{
		CPTID:            p.integer("cpt_id"),
		MeasurementDepth: p.rng("depth"),
		Location:         p.location(),
	}
	return c, p.err
}

func velocityCriteria(q url.Values) (query.VelocityProfileCriteria, error) {
	p := &params{q: q}
	c := query.VelocityProfileCriteria{
		ProfileID: p.integer("profile_id"),
		Location:  p.location(),
	}
	return c, p.err
}
