// Package lloyds implements the check items backed by the Lloyd's vessel
// compliance and sanctions feeds.
package lloyds

import (
	"fmt"
	"strings"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Provider ids used as dataset keys and fetch-cache keys.
const (
	ProviderSanctions  = "lloyds_sanctions_api"
	ProviderCompliance = "lloyds_compliance_api"
)

// Sanction is one sanction row from the Lloyd's vessel sanctions feed.
// An empty EndDate marks a sanction still in force.
type Sanction struct {
	Source    string `json:"source"`
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SanctionsData is the payload of the sanctions feed for one vessel.
type SanctionsData struct {
	Sanctions     []Sanction `json:"sanctions"`
	FlagSanctions []Sanction `json:"flagSanctions"`
}

// ComplianceData is the payload of the compliance feed for one vessel.
type ComplianceData struct {
	RiskLevel                     string `json:"riskLevel"`
	HighRiskPortCallingCount      int    `json:"highRiskPortCallingCount"`
	StsWithASanctionedVesselCount int    `json:"stsWithASanctionedVesselCount"`
	AISManipulationCount          int    `json:"aisManipulationCount"`
	FlagName                      string `json:"flagName"`
	FlagStartDate                 string `json:"flagStartDate"`
}

const paramVesselIMO = "vessel_imo"

// classifySanctions applies the current-versus-historical rule: any sanction
// with an open end date is in force.
func classifySanctions(rows []Sanction) risk.Level {
	if len(rows) == 0 {
		return risk.NoRisk
	}
	for _, s := range rows {
		if s.EndDate == "" {
			return risk.High
		}
	}
	return risk.Medium
}

func sanctionRows(rows []Sanction) []risk.DetailRow {
	out := make([]risk.DetailRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, risk.DetailRow{
			"SanctionSource": s.Source,
			"SanctionType":   s.Type,
			"StartDate":      s.StartDate,
			"EndDate":        s.EndDate,
		})
	}
	return out
}

// SanctionsProbe screens a vessel against the Lloyd's sanction list.
type SanctionsProbe struct {
	probe.Base
}

func NewSanctionsProbe() SanctionsProbe {
	return SanctionsProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "lloyds_sanctions",
			RiskType: "lloyds_sanctions",
			RiskDesc: "vessel appears on the Lloyd's sanction list",
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{ProviderSanctions},
	}}
}

func (p SanctionsProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := sanctionsPayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	rec := p.Record(subjectID, classifySanctions(payload.Sanctions))
	return rec.WithDetails(sanctionRows(payload.Sanctions)...)
}

// FlagSanctionsProbe screens the vessel's flag state.
type FlagSanctionsProbe struct {
	probe.Base
}

func NewFlagSanctionsProbe() FlagSanctionsProbe {
	return FlagSanctionsProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "lloyds_flag_sanctions",
			RiskType: "lloyds_flag_sanctions",
			RiskDesc: "vessel flag state is sanctioned",
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{ProviderSanctions},
	}}
}

func (p FlagSanctionsProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := sanctionsPayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	rec := p.Record(subjectID, classifySanctions(payload.FlagSanctions))
	return rec.WithDetails(sanctionRows(payload.FlagSanctions)...)
}

// recentFlagChangeDays is the window within which a flag change raises
// Medium. The boundary is inclusive: a change exactly 365 days before the
// evaluation time is still recent.
const recentFlagChangeDays = 365

// FlagChangeProbe flags a vessel that changed its flag state within the last
// year. The evaluation time comes from the run parameters, never a wall
// clock, so replays classify identically.
type FlagChangeProbe struct {
	probe.Base
}

func NewFlagChangeProbe() FlagChangeProbe {
	return FlagChangeProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:             "lloyds_flag_change",
			RiskType:       "lloyds_flag_change",
			RiskDesc:       "vessel changed flag within the last year",
			Enabled:        true,
			TimeBound:      true,
			TimePeriodDays: recentFlagChangeDays,
		},
		Params:  []string{paramVesselIMO, probe.ParamEvaluatedAt},
		Sources: []string{ProviderCompliance},
	}}
}

func (p FlagChangeProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := compliancePayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	evaluatedAt, err := time.Parse(time.RFC3339, params[probe.ParamEvaluatedAt])
	if err != nil {
		return p.NoData(subjectID)
	}
	changed, ok := parseFlagDate(payload.FlagStartDate)
	if !ok {
		return p.Record(subjectID, risk.NoRisk)
	}
	if evaluatedAt.Sub(changed) > recentFlagChangeDays*24*time.Hour {
		return p.Record(subjectID, risk.NoRisk)
	}
	rec := p.Record(subjectID, risk.Medium)
	return rec.WithDetails(risk.DetailRow{
		"FlagName":      payload.FlagName,
		"FlagStartDate": payload.FlagStartDate,
	})
}

// parseFlagDate accepts the feed's two date shapes: RFC 3339 timestamps and
// bare YYYY-MM-DD dates. An absent or unparseable date reads as no recorded
// change.
func parseFlagDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// RiskLevelProbe maps the Lloyd's overall vessel risk rating.
type RiskLevelProbe struct {
	probe.Base
}

func NewRiskLevelProbe() RiskLevelProbe {
	return RiskLevelProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "lloydsRiskLevel",
			RiskType: "lloydsRiskLevel",
			RiskDesc: "Lloyd's overall vessel risk rating",
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{ProviderCompliance},
	}}
}

func (p RiskLevelProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := compliancePayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	var level risk.Level
	switch payload.RiskLevel {
	case "High", "Severe":
		level = risk.High
	case "Medium", "Elevated":
		level = risk.Medium
	case "Low":
		level = risk.Low
	case "None":
		level = risk.NoRisk
	default:
		// Empty or unrecognized ratings are a schema mismatch, not a
		// clean result.
		return p.NoData(subjectID)
	}
	rec := p.Record(subjectID, level)
	return rec.WithDetails(risk.DetailRow{"RiskLevel": payload.RiskLevel})
}

// ComplianceProbe flags voyage-behavior counters from the compliance feed.
type ComplianceProbe struct {
	probe.Base
}

func NewComplianceProbe() ComplianceProbe {
	return ComplianceProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "lloyds_compliance",
			RiskType: "lloyds_compliance",
			RiskDesc: "high-risk port calls or STS with sanctioned vessels",
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{ProviderCompliance},
	}}
}

func (p ComplianceProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := compliancePayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	level := risk.NoRisk
	if payload.HighRiskPortCallingCount > 0 || payload.StsWithASanctionedVesselCount > 0 {
		level = risk.Medium
	}
	rec := p.Record(subjectID, level)
	if level != risk.NoRisk {
		rec = rec.WithDetails(risk.DetailRow{
			"HighRiskPortCallingCount":      fmt.Sprintf("%d", payload.HighRiskPortCallingCount),
			"StsWithASanctionedVesselCount": fmt.Sprintf("%d", payload.StsWithASanctionedVesselCount),
		})
	}
	return rec
}

// AISManipulationProbe flags AIS manipulation incidents.
type AISManipulationProbe struct {
	probe.Base
}

func NewAISManipulationProbe() AISManipulationProbe {
	return AISManipulationProbe{Base: probe.Base{
		Cfg: probe.Config{
			ID:       "ais_manipulation",
			RiskType: "ais_manipulation",
			RiskDesc: "AIS manipulation incidents reported",
			Enabled:  true,
		},
		Params:  []string{paramVesselIMO},
		Sources: []string{ProviderCompliance},
	}}
}

func (p AISManipulationProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	payload, ok := compliancePayload(p.Base, params, data)
	if !ok {
		return p.NoData(subjectID)
	}
	level := risk.NoRisk
	if payload.AISManipulationCount > 0 {
		level = risk.Medium
	}
	rec := p.Record(subjectID, level)
	if level != risk.NoRisk {
		rec = rec.WithDetails(risk.DetailRow{"AISManipulationCount": fmt.Sprintf("%d", payload.AISManipulationCount)})
	}
	return rec
}

func sanctionsPayload(b probe.Base, params probe.Params, data probe.Dataset) (*SanctionsData, bool) {
	if len(b.MissingParams(params)) > 0 {
		return nil, false
	}
	v, err := data.Get(ProviderSanctions)
	if err != nil || v == nil {
		return nil, false
	}
	payload, ok := v.(*SanctionsData)
	return payload, ok && payload != nil
}

func compliancePayload(b probe.Base, params probe.Params, data probe.Dataset) (*ComplianceData, bool) {
	if len(b.MissingParams(params)) > 0 {
		return nil, false
	}
	v, err := data.Get(ProviderCompliance)
	if err != nil || v == nil {
		return nil, false
	}
	payload, ok := v.(*ComplianceData)
	return payload, ok && payload != nil
}

// Probes returns the Lloyd's leaf check items.
func Probes() []probe.Probe {
	return []probe.Probe{
		NewSanctionsProbe(),
		NewFlagSanctionsProbe(),
		NewFlagChangeProbe(),
		NewRiskLevelProbe(),
		NewComplianceProbe(),
		NewAISManipulationProbe(),
	}
}
