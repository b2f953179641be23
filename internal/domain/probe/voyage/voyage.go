// Package voyage implements the check items derived from per-voyage event
// feeds: port-call behavior, AIS gaps, STS transfers and loitering.
package voyage

import (
	"strings"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Provider id used as dataset key and fetch-cache key.
const Provider = "voyage_events_api"

// Event is one voyage event row. RiskTypes carries the upstream behavior
// labels; EEZ names the exclusive economic zone the event occurred in.
type Event struct {
	VoyageID  string   `json:"voyageId"`
	RiskTypes []string `json:"riskTypes"`
	EEZ       string   `json:"eez"`
	Port      string   `json:"port"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

// EventsData is the voyage feed payload for one vessel and window.
type EventsData struct {
	Events []Event `json:"events"`
}

// SanctionedEEZs lists the exclusive economic zones treated as sanctioned
// waters for loitering classification.
var SanctionedEEZs = map[string]bool{
	"Cuban Exclusive Economic Zone":                       true,
	"Iranian Exclusive Economic Zone":                     true,
	"Syrian Exclusive Economic Zone":                      true,
	"Overlapping claim Ukrainian Exclusive Economic Zone": true,
	"North Korean Exclusive Economic Zone":                true,
	"Venezuelan Exclusive Economic Zone":                  true,
	"Russian Exclusive Economic Zone":                     true,
}

// bucketSpecs enumerates the voyage check items in catalog order. Dark and
// sanctioned STS transfers raise High; the remaining behaviors raise Medium.
var bucketSpecs = []struct {
	id      string
	desc    string
	level   risk.Level
	matches func(Event) bool
}{
	{"high_risk_port", "vessel called at a high risk port", risk.Medium, hasRiskType("High Risk Port Calling")},
	{"possible_dark_port", "possible dark port calling", risk.Medium, hasRiskType("Possible Dark Port Calling")},
	{"suspicious_ais_gap", "suspicious AIS gap", risk.Medium, hasRiskType("Suspicious AIS Gap")},
	{"dark_sts", "dark STS transfer", risk.High, hasRiskType("Dark STS")},
	{"sanctioned_sts", "STS transfer with a sanctioned vessel", risk.High, hasRiskType("STS With a Sanctioned Vessel")},
	{"loitering_behavior", "loitering in sanctioned waters", risk.Medium, isSanctionedLoitering},
}

func hasRiskType(label string) func(Event) bool {
	return func(e Event) bool {
		for _, rt := range e.RiskTypes {
			if strings.EqualFold(rt, label) {
				return true
			}
		}
		return false
	}
}

func isSanctionedLoitering(e Event) bool {
	loitering := false
	for _, rt := range e.RiskTypes {
		if strings.EqualFold(rt, "Loitering") {
			loitering = true
		}
	}
	return loitering && SanctionedEEZs[e.EEZ]
}

// BucketProbe classifies voyage events into one behavior bucket.
type BucketProbe struct {
	probe.Base
	level   risk.Level
	matches func(Event) bool
}

func (p BucketProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	if len(p.MissingParams(params)) > 0 {
		return p.NoData(subjectID)
	}
	v, err := data.Get(Provider)
	if err != nil || v == nil {
		return p.NoData(subjectID)
	}
	d, ok := v.(*EventsData)
	if !ok || d == nil {
		return p.NoData(subjectID)
	}
	var rows []risk.DetailRow
	for _, e := range d.Events {
		if !p.matches(e) {
			continue
		}
		rows = append(rows, risk.DetailRow{
			"VoyageId":  e.VoyageID,
			"RiskTypes": strings.Join(e.RiskTypes, ";"),
			"Eez":       e.EEZ,
			"Port":      e.Port,
			"StartTime": e.StartTime,
			"EndTime":   e.EndTime,
		})
	}
	if len(rows) == 0 {
		return p.Record(subjectID, risk.NoRisk)
	}
	return p.Record(subjectID, p.level).WithDetails(rows...)
}

// Probes returns the voyage leaf check items.
func Probes() []probe.Probe {
	out := make([]probe.Probe, 0, len(bucketSpecs))
	for _, spec := range bucketSpecs {
		out = append(out, BucketProbe{
			Base: probe.Base{
				Cfg: probe.Config{
					ID:        spec.id,
					RiskType:  spec.id,
					RiskDesc:  spec.desc,
					Enabled:   true,
					TimeBound: true,
				},
				Params:  []string{"vessel_imo", "start_date", "end_date"},
				Sources: []string{Provider},
			},
			level:   spec.level,
			matches: spec.matches,
		})
	}
	return out
}
