// Package uani implements the check item backed by the United Against
// Nuclear Iran tracked-vessel list.
package uani

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Provider id used as dataset key and fetch-cache key.
const Provider = "uani_list_api"

// ListData is the UANI lookup payload for one vessel.
type ListData struct {
	Listed     bool   `json:"listed"`
	VesselName string `json:"vesselName"`
	ListedDate string `json:"listedDate"`
}

// CheckProbe screens a vessel against the UANI list: a listed vessel is High.
type CheckProbe struct {
	probe.Base
}

func NewCheckProbe() CheckProbe {
	return CheckProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "uani_check",
			RiskType: "uani_check",
			RiskDesc: "vessel tracked by UANI",
			Enabled:  true,
		},
		Params:  []string{"vessel_imo"},
		Sources: []string{Provider},
	}}
}

func (p CheckProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	if len(p.MissingParams(params)) > 0 {
		return p.NoData(subjectID)
	}
	v, err := data.Get(Provider)
	if err != nil || v == nil {
		return p.NoData(subjectID)
	}
	d, ok := v.(*ListData)
	if !ok || d == nil {
		return p.NoData(subjectID)
	}
	if !d.Listed {
		return p.Record(subjectID, risk.NoRisk)
	}
	rec := p.Record(subjectID, risk.High)
	return rec.WithDetails(risk.DetailRow{
		"VesselName": d.VesselName,
		"ListedDate": d.ListedDate,
	})
}

// Probes returns the UANI leaf check items.
func Probes() []probe.Probe {
	return []probe.Probe{NewCheckProbe()}
}
