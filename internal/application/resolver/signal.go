// Package resolver computes per-entity sanction verdicts from bulk signal
// rows produced by upstream ingestion. One run reads a full snapshot of rows,
// reduces them per entity into four severity buckets and a final verdict, and
// returns the result in memory for a sink to persist.
package resolver

import (
	"context"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Signal types carried on upstream rows. The first three arrive
// pre-classified; the last two are derived during the run.
const (
	SignalSanctionsList = "is_san"
	SignalOwnership     = "is_sco"
	SignalOtherList     = "is_ool"
	SignalRecentEvent   = "is_one_year"
	SignalCountryMatch  = "is_sanctioned_countries"
)

// signalOrder fixes the bucket and flag evaluation order.
var signalOrder = []string{
	SignalSanctionsList,
	SignalOwnership,
	SignalOtherList,
	SignalRecentEvent,
	SignalCountryMatch,
}

// SignalRow is one raw fact about an entity as delivered by upstream
// ingestion. Multi-valued fields (dates, countries) arrive joined with ";".
// Rows are value types; identical rows are duplicates.
type SignalRow struct {
	EntityID          string `json:"entity_id"`
	EntityDate        string `json:"entity_dt"`
	ActiveStatus      string `json:"activestatus"`
	NameCN            string `json:"entityname1"`
	NameEN            string `json:"entityname4"`
	RegisteredCountry string `json:"country_nm1"`
	DomicileCountry   string `json:"country_nm2"`
	DateValue         string `json:"datevalue1"`
	SanctionsName     string `json:"sanctions_nm"`
	Description2      string `json:"description2_value_cn"`
	Description3      string `json:"description3_value_cn"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`

	// Pre-classified signal flags, wire labels. Empty means the signal is
	// absent from this row.
	SanctionFlag  string `json:"is_san"`
	OwnershipFlag string `json:"is_sco"`
	OtherListFlag string `json:"is_ool"`
}

// RiskItem is one signal type's entry inside a verdict bucket.
type RiskItem struct {
	RiskType     string           `json:"risk_type"`
	RiskValue    risk.Level       `json:"risk_value"`
	RiskDesc     string           `json:"risk_desc"`
	RiskDescInfo string           `json:"risk_desc_info"`
	Info         string           `json:"info"`
	Tab          []risk.DetailRow `json:"tab"`
}

// AssociatedParty is one related entity from the relationship side table. It
// is reported alongside the verdict but never affects severity.
type AssociatedParty struct {
	PartyID    string `json:"party_id"`
	PartyName  string `json:"party_name"`
	PartyLevel string `json:"party_level"`
	SourceType string `json:"source_type"`
	Relation   string `json:"relation"`
}

// EntityVerdict is the resolved outcome for one entity: the final level, the
// four detail buckets, the per-signal marker flags, and the associated-party
// side table.
type EntityVerdict struct {
	EntityID          string            `json:"entity_id"`
	EntityDate        string            `json:"entity_dt"`
	ActiveStatus      string            `json:"activestatus"`
	NameCN            string            `json:"entityname1"`
	NameEN            string            `json:"entityname4"`
	RegisteredCountry string            `json:"country_nm1"`
	DomicileCountry   string            `json:"country_nm2"`
	DateValue         string            `json:"datevalue1"`
	SanctionsLevel    risk.Level        `json:"sanctions_lev"`
	High              []RiskItem        `json:"sanctions_list"`
	Medium            []RiskItem        `json:"mid_sanctions_list"`
	None              []RiskItem        `json:"no_sanctions_list"`
	Undetermined      []RiskItem        `json:"unknown_risk_list"`
	AssociatedParties []AssociatedParty `json:"other_list"`

	// Marker flags, set when the signal type landed in the high or medium
	// bucket; empty otherwise.
	SanctionMarker  string `json:"is_san,omitempty"`
	OwnershipMarker string `json:"is_sco,omitempty"`
	OtherListMarker string `json:"is_ool,omitempty"`
	RecentMarker    string `json:"is_one_year,omitempty"`
	CountryMarker   string `json:"is_sanctioned_countries,omitempty"`
}

// Description is the text block attached to one (signal type, level) pair.
type Description struct {
	RiskDesc     string
	RiskDescInfo string
	Info         string
}

// DescriptionTable is a read-only (signal type, level) description snapshot.
type DescriptionTable map[string]map[risk.Level]Description

// Get returns the description for a signal type and level, falling back to a
// generated default when the table has no entry.
func (t DescriptionTable) Get(riskType string, level risk.Level) Description {
	if byLevel, ok := t[riskType]; ok {
		if d, ok := byLevel[level]; ok {
			return d
		}
	}
	return Description{
		RiskDesc:     riskType,
		RiskDescInfo: "风险描述: " + riskType,
		Info:         "风险判定为: " + level.Label(),
	}
}

// Put registers a description, allocating the level map on first use.
func (t DescriptionTable) Put(riskType string, level risk.Level, d Description) {
	byLevel, ok := t[riskType]
	if !ok {
		byLevel = map[risk.Level]Description{}
		t[riskType] = byLevel
	}
	byLevel[level] = d
}

// SignalSource provides the bulk snapshot of signal rows and per-name lookup
// for counterparty screening.
type SignalSource interface {
	FetchSignalRows(ctx context.Context) ([]SignalRow, error)
	FetchSignalRowsByName(ctx context.Context, name string) ([]SignalRow, error)
}

// PartySource provides the associated-party side table for a batch of
// entity ids.
type PartySource interface {
	FetchAssociatedParties(ctx context.Context, entityIDs []string) (map[string][]AssociatedParty, error)
}

// DescriptionSource loads the description snapshot at the start of a run.
type DescriptionSource interface {
	LoadDescriptions(ctx context.Context) (DescriptionTable, error)
}

// CountrySource loads the sanctioned-country reference snapshot.
type CountrySource interface {
	SanctionedCountries(ctx context.Context) ([]string, error)
}

// VerdictSink persists resolved verdicts. The resolver itself only returns
// in-memory structures; Run hands them to the sink when one is configured.
type VerdictSink interface {
	SaveVerdicts(ctx context.Context, verdicts []EntityVerdict) error
}
