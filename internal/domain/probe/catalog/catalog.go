// Package catalog assembles the full check-item registry: every leaf probe
// and the composite vessel screenings built on top of them.
package catalog

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/country"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/kpler"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/lloyds"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/uani"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/voyage"
)

// Source labels stamped on composite detail rows.
const (
	SourceLloyds = "劳氏"
	SourceKpler  = "Kpler"
	SourceUANI   = "UANI"
	SourceVoyage = "航次"
	SourceRef    = "参考数据"
)

// sourceLabels maps every leaf check id to its provider label.
var sourceLabels = map[string]string{
	"lloyds_sanctions":      SourceLloyds,
	"lloyds_flag_sanctions": SourceLloyds,
	"lloyds_flag_change":    SourceLloyds,
	"lloydsRiskLevel":       SourceLloyds,
	"lloyds_compliance":     SourceLloyds,
	"ais_manipulation":      SourceLloyds,

	"kpler_sanctions":               SourceKpler,
	"kplerRiskLevel":                SourceKpler,
	"has_sanctioned_cargo_risk":     SourceKpler,
	"has_sanctioned_trades_risk":    SourceKpler,
	"has_sanctioned_companies_risk": SourceKpler,
	"has_ais_gap_risk":              SourceKpler,
	"has_ais_spoofs_risk":           SourceKpler,
	"has_dark_sts_risk":             SourceKpler,
	"has_port_calls_risk":           SourceKpler,
	"has_sts_events_risk":           SourceKpler,

	"uani_check": SourceUANI,

	"high_risk_port":     SourceVoyage,
	"possible_dark_port": SourceVoyage,
	"suspicious_ais_gap": SourceVoyage,
	"dark_sts":           SourceVoyage,
	"sanctioned_sts":     SourceVoyage,
	"loitering_behavior": SourceVoyage,

	"cargo_country": SourceRef,
	"port_country":  SourceRef,
}

// compositeSpecs enumerates the composite vessel screenings.
var compositeSpecs = []struct {
	id         string
	desc       string
	components []string
}{
	{"Vessel_risk_level", "overall vessel risk rating", []string{"lloydsRiskLevel", "kplerRiskLevel"}},
	{"Vessel_is_sanction", "vessel sanction screening", []string{"lloyds_sanctions", "kpler_sanctions"}},
	{"Vessel_flag_sanctions", "vessel flag state screening", []string{"lloyds_flag_sanctions", "lloyds_flag_change"}},
	{"Vessel_in_uani", "UANI tracked-vessel screening", []string{"uani_check"}},
	{"Vessel_ais_gap", "AIS gap screening", []string{"has_ais_gap_risk", "suspicious_ais_gap"}},
	{"Vessel_Manipulation", "AIS manipulation screening", []string{"ais_manipulation", "has_ais_spoofs_risk"}},
	{"Vessel_risky_port_call", "risky port call screening", []string{"has_port_calls_risk", "high_risk_port"}},
	{"Vessel_dark_port_call", "dark port call screening", []string{"possible_dark_port"}},
	{"Vessel_cargo_sanction", "sanctioned cargo screening", []string{"has_sanctioned_cargo_risk", "cargo_country"}},
	{"Vessel_trade_sanction", "sanctioned trade screening", []string{"has_sanctioned_trades_risk"}},
	{"Vessel_dark_sts_events", "dark STS screening", []string{"has_dark_sts_risk", "dark_sts"}},
	{"Vessel_sts_transfer", "STS transfer screening", []string{"has_sts_events_risk", "sanctioned_sts"}},
	{"Vessel_stakeholder_is_sanction", "stakeholder sanction screening", []string{"has_sanctioned_companies_risk"}},
	{"cargo_origin_from_sanctioned_country", "cargo origin country screening", []string{"cargo_country"}},
	{"port_origin_from_sanctioned_country", "port country screening", []string{"port_country"}},
	{"Vessel_bunkering_sanctions", "bunkering counterparty screening", []string{"lloyds_sanctions", "kpler_sanctions", "sanctioned_sts"}},
}

// Leaves returns every leaf probe in catalog order.
func Leaves() []probe.Probe {
	var out []probe.Probe
	out = append(out, lloyds.Probes()...)
	out = append(out, kpler.Probes()...)
	out = append(out, uani.Probes()...)
	out = append(out, voyage.Probes()...)
	out = append(out, country.Probes()...)
	return out
}

// Composites returns every composite screening in catalog order.
func Composites() []probe.Aggregate {
	out := make([]probe.Aggregate, 0, len(compositeSpecs))
	for _, spec := range compositeSpecs {
		out = append(out, probe.Composite{
			Cfg: probe.Config{
				ID:       spec.id,
				RiskType: spec.id,
				RiskDesc: spec.desc,
				Enabled:  true,
			},
			Components:   spec.components,
			SourceLabels: sourceLabels,
		})
	}
	return out
}

// NewRegistry builds a registry loaded with the full catalog.
func NewRegistry() (*probe.Registry, error) {
	r := probe.NewRegistry()
	for _, p := range Leaves() {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	for _, a := range Composites() {
		if err := r.RegisterAggregate(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}
