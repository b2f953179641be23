// Package kpler implements the check items backed by the Kpler compliance
// vessel feed.
package kpler

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Provider id used as dataset key and fetch-cache key.
const Provider = "kpler_compliance_api"

// VesselData is the Kpler compliance payload for one vessel.
type VesselData struct {
	RiskLevel              string `json:"complianceRiskLevel"`
	Sanctioned             bool   `json:"isSanctioned"`
	HasSanctionedCargo     bool   `json:"hasSanctionedCargo"`
	HasSanctionedTrades    bool   `json:"hasSanctionedTrades"`
	HasSanctionedCompanies bool   `json:"hasSanctionedCompanies"`
	HasAISGap              bool   `json:"hasAisGap"`
	HasAISSpoof            bool   `json:"hasAisSpoofs"`
	HasDarkSTS             bool   `json:"hasDarkSts"`
	HasPortCalls           bool   `json:"hasPortCalls"`
	HasSTSEvents           bool   `json:"hasStsEvents"`
}

const paramVesselIMO = "vessel_imo"

func payload(b probe.Base, params probe.Params, data probe.Dataset) (*VesselData, bool) {
	if len(b.MissingParams(params)) > 0 {
		return nil, false
	}
	v, err := data.Get(Provider)
	if err != nil || v == nil {
		return nil, false
	}
	p, ok := v.(*VesselData)
	return p, ok && p != nil
}

func base(id, desc string) probe.Base {
	return probe.Base{
		Cfg: probe.Config{
			ID:       id,
			RiskType: id,
			RiskDesc: desc,
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{Provider},
	}
}

// FlagProbe screens one boolean Kpler risk flag: a set flag raises Medium.
type FlagProbe struct {
	probe.Base
	flag func(*VesselData) bool
}

func (p FlagProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	d, ok := payload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	if !p.flag(d) {
		return p.Record(subjectID, risk.NoRisk)
	}
	rec := p.Record(subjectID, risk.Medium)
	return rec.WithDetails(risk.DetailRow{"Flag": p.ID(), "Value": "true"})
}

// SanctionsProbe screens the Kpler sanctioned-vessel flag: High when set.
type SanctionsProbe struct {
	probe.Base
}

func NewSanctionsProbe() SanctionsProbe {
	return SanctionsProbe{Base: base("kpler_sanctions", "vessel sanctioned per Kpler")}
}

func (p SanctionsProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	d, ok := payload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	if !d.Sanctioned {
		return p.Record(subjectID, risk.NoRisk)
	}
	rec := p.Record(subjectID, risk.High)
	return rec.WithDetails(risk.DetailRow{"Sanctioned": "true"})
}

// RiskLevelProbe maps the Kpler overall compliance rating.
type RiskLevelProbe struct {
	probe.Base
}

func NewRiskLevelProbe() RiskLevelProbe {
	return RiskLevelProbe{Base: base("kplerRiskLevel", "Kpler overall compliance rating")}
}

func (p RiskLevelProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	d, ok := payload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	var level risk.Level
	switch d.RiskLevel {
	case "High", "high":
		level = risk.High
	case "Medium", "medium":
		level = risk.Medium
	case "Low", "low":
		level = risk.Low
	case "None", "none":
		level = risk.NoRisk
	default:
		// Empty or unrecognized ratings are a schema mismatch, not a
		// clean result.
		return p.NoData(subjectID)
	}
	rec := p.Record(subjectID, level)
	return rec.WithDetails(risk.DetailRow{"ComplianceRiskLevel": d.RiskLevel})
}

// flagProbeSpecs enumerates the boolean flag check items in catalog order.
var flagProbeSpecs = []struct {
	id   string
	desc string
	get  func(*VesselData) bool
}{
	{"has_sanctioned_cargo_risk", "vessel carried sanctioned cargo", func(d *VesselData) bool { return d.HasSanctionedCargo }},
	{"has_sanctioned_trades_risk", "vessel engaged in sanctioned trades", func(d *VesselData) bool { return d.HasSanctionedTrades }},
	{"has_sanctioned_companies_risk", "vessel linked to sanctioned companies", func(d *VesselData) bool { return d.HasSanctionedCompanies }},
	{"has_ais_gap_risk", "vessel shows AIS reporting gaps", func(d *VesselData) bool { return d.HasAISGap }},
	{"has_ais_spoofs_risk", "vessel shows AIS spoofing", func(d *VesselData) bool { return d.HasAISSpoof }},
	{"has_dark_sts_risk", "vessel performed dark STS transfers", func(d *VesselData) bool { return d.HasDarkSTS }},
	{"has_port_calls_risk", "vessel called at flagged ports", func(d *VesselData) bool { return d.HasPortCalls }},
	{"has_sts_events_risk", "vessel has flagged STS events", func(d *VesselData) bool { return d.HasSTSEvents }},
}

// Probes returns the Kpler leaf check items.
func Probes() []probe.Probe {
	out := []probe.Probe{
		NewSanctionsProbe(),
		NewRiskLevelProbe(),
	}
	for _, spec := range flagProbeSpecs {
		out = append(out, FlagProbe{Base: base(spec.id, spec.desc), flag: spec.get})
	}
	return out
}
