// Package probe defines the check-item contract: leaf probes evaluating one
// provider signal, aggregates combining leaf outcomes, and the registry the
// orchestrator resolves check ids against.
package probe

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Params carries the caller-supplied inputs of a screening run (vessel imo,
// window dates, stakeholder names).
type Params map[string]string

// ParamEvaluatedAt is the well-known parameter carrying the caller-supplied
// evaluation timestamp in RFC 3339 form. The orchestrator stamps it on every
// run so time-based probes stay pure functions of their inputs.
const ParamEvaluatedAt = "evaluated_at"

// Payload is the outcome of one provider fetch handed to a probe. Exactly one
// of Value and Err is meaningful.
type Payload struct {
	Value interface{}
	Err   error
}

// Dataset maps provider ids to fetched payloads. The orchestrator populates
// it from the session cache before evaluation; probes never fetch.
type Dataset map[string]Payload

// Get returns the payload for a provider id. A missing entry reads as a nil
// value with a nil error, which probes treat the same as absent data.
func (d Dataset) Get(providerID string) (interface{}, error) {
	p, ok := d[providerID]
	if !ok {
		return nil, nil
	}
	return p.Value, p.Err
}

// Config mirrors one row of the screening control table.
type Config struct {
	ID             string   `json:"check_item_id"`
	BusinessModule string   `json:"business_module"`
	CheckModule    string   `json:"compliance_check_module"`
	CheckType      string   `json:"compliance_check_type"`
	EntityNameCN   string   `json:"check_entity_cn"`
	EntityNameEN   string   `json:"check_entity_en"`
	EntityType     string   `json:"entity_type"`
	RiskDesc       string   `json:"risk_desc"`
	RiskType       string   `json:"risk_type"`
	Enabled        bool     `json:"used_flag"`
	TimeBound      bool     `json:"time_flag"`
	TimePeriodDays int      `json:"time_period"`
	AreaBound      bool     `json:"area_flag"`
	Areas          []string `json:"area,omitempty"`
	RiskFlag       bool     `json:"risk_flag"`
	RiskFlagType   string   `json:"risk_flag_type"`
}

// Probe is one leaf check item. Evaluate is pure: it reads the supplied
// params and dataset, performs no I/O, and always returns a record. Missing
// required parameters and provider failures both degrade to a NoData record;
// a probe never aborts a screening run.
type Probe interface {
	ID() string
	RiskType() string
	Description() string
	RequiredParams() []string
	DataSources() []string
	Evaluate(subjectID string, params Params, data Dataset) risk.Record
}

// Base carries the config-driven parts of a probe implementation. Concrete
// probes embed Base and implement Evaluate.
type Base struct {
	Cfg     Config
	Params  []string
	Sources []string
}

func (b Base) ID() string               { return b.Cfg.ID }
func (b Base) RiskType() string         { return b.Cfg.RiskType }
func (b Base) Description() string      { return b.Cfg.RiskDesc }
func (b Base) RequiredParams() []string { return b.Params }
func (b Base) DataSources() []string    { return b.Sources }

// MissingParams returns the required parameters absent or empty in params.
func (b Base) MissingParams(params Params) []string {
	var missing []string
	for _, k := range b.Params {
		if params[k] == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// NoData builds the degraded outcome for this probe.
func (b Base) NoData(subjectID string) risk.Record {
	return risk.NoDataRecord(b.Cfg.RiskType, b.Cfg.RiskDesc, risk.SingleSubject(subjectID))
}

// Record builds an outcome for this probe at the given level.
func (b Base) Record(subjectID string, level risk.Level) risk.Record {
	return risk.NewRecord(b.Cfg.RiskType, b.Cfg.RiskDesc, level, risk.SingleSubject(subjectID))
}
