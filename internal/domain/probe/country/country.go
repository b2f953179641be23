// Package country implements the check items screening cargo origin and port
// countries against the sanctioned-country reference set.
package country

import (
	"strings"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Provider id for the sanctioned-country reference set.
const Provider = "sanctioned_countries_ref"

// RefData is the sanctioned-country reference payload.
type RefData struct {
	Countries []string `json:"countries"`
}

// Contains reports whether name is in the reference set, case-insensitively.
func (d *RefData) Contains(name string) bool {
	for _, c := range d.Countries {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// MatchProbe screens one country-valued parameter against the reference set.
// A match raises Medium; a present non-matching country is NoRisk; a missing
// or blank country parameter degrades to NoData like any other missing
// required parameter.
type MatchProbe struct {
	probe.Base
	param string
}

func newMatchProbe(id, desc, param string) MatchProbe {
	return MatchProbe{
		Base: probe.Base{
			Cfg: probe.Config{
				ID:        id,
				RiskType:  id,
				RiskDesc:  desc,
				Enabled:   true,
				AreaBound: true,
			},
			Params:  []string{param},
			Sources: []string{Provider},
		},
		param: param,
	}
}

func (p MatchProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	name := strings.TrimSpace(params[p.param])
	if name == "" {
		return p.NoData(subjectID)
	}
	v, err := data.Get(Provider)
	if err != nil || v == nil {
		return p.NoData(subjectID)
	}
	ref, ok := v.(*RefData)
	if !ok || ref == nil {
		return p.NoData(subjectID)
	}
	if !ref.Contains(name) {
		return p.Record(subjectID, risk.NoRisk)
	}
	rec := p.Record(subjectID, risk.Medium)
	return rec.WithDetails(risk.DetailRow{"Country": name})
}

// Probes returns the country leaf check items.
func Probes() []probe.Probe {
	return []probe.Probe{
		newMatchProbe("cargo_country", "cargo originates from a sanctioned country", "cargo_country"),
		newMatchProbe("port_country", "port located in a sanctioned country", "port_country"),
	}
}
