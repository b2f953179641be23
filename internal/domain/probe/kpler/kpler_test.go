package kpler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

var okParams = probe.Params{"vessel_imo": "9339301"}

func dataset(d *VesselData) probe.Dataset {
	return probe.Dataset{Provider: {Value: d}}
}

func TestRiskLevelProbe_Mapping(t *testing.T) {
	cases := []struct {
		in   string
		want risk.Level
	}{
		{"High", risk.High},
		{"medium", risk.Medium},
		{"low", risk.Low},
		{"None", risk.NoRisk},
		{"", risk.NoData},
		{"weird", risk.NoData},
	}
	for _, tc := range cases {
		rec := NewRiskLevelProbe().Evaluate("9339301", okParams, dataset(&VesselData{RiskLevel: tc.in}))
		assert.Equal(t, tc.want, rec.Level, "rating %q", tc.in)
	}
}

func TestSanctionsProbe(t *testing.T) {
	rec := NewSanctionsProbe().Evaluate("9339301", okParams, dataset(&VesselData{Sanctioned: true}))
	assert.Equal(t, risk.High, rec.Level)

	rec = NewSanctionsProbe().Evaluate("9339301", okParams, dataset(&VesselData{}))
	assert.Equal(t, risk.NoRisk, rec.Level)
}

func TestFlagProbe_SetFlagIsMedium(t *testing.T) {
	var darkSTS probe.Probe
	for _, p := range Probes() {
		if p.ID() == "has_dark_sts_risk" {
			darkSTS = p
		}
	}

	rec := darkSTS.Evaluate("9339301", okParams, dataset(&VesselData{HasDarkSTS: true}))
	assert.Equal(t, risk.Medium, rec.Level)

	rec = darkSTS.Evaluate("9339301", okParams, dataset(&VesselData{}))
	assert.Equal(t, risk.NoRisk, rec.Level)
}
