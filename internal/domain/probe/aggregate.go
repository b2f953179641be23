package probe

import (
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// Aggregate composes the outcomes of leaf probes. It never fetches or
// evaluates on its own: the orchestrator evaluates the components and hands
// their records to Combine in component order.
type Aggregate interface {
	ID() string
	RiskType() string
	Description() string
	ComponentIDs() []string
	Combine(records []risk.Record) risk.Record
}

// Composite is the standard Aggregate: the combined level is the fold of
// risk.Merge over component levels, and the detail rows are the component
// rows concatenated in component order, each stamped with the component's
// source label.
type Composite struct {
	Cfg        Config
	Components []string

	// SourceLabels maps a component id to the label stamped on its detail
	// rows. A component without an entry is stamped with its own id.
	SourceLabels map[string]string
}

func (c Composite) ID() string             { return c.Cfg.ID }
func (c Composite) RiskType() string       { return c.Cfg.RiskType }
func (c Composite) Description() string    { return c.Cfg.RiskDesc }
func (c Composite) ComponentIDs() []string { return c.Components }

// Combine folds the component records. The input slice is expected to be in
// component order; the i-th record is attributed to Components[i] when
// stamping source labels. Records beyond the component list keep their own
// risk type as label.
func (c Composite) Combine(records []risk.Record) risk.Record {
	level := risk.Undetermined
	var details []risk.DetailRow
	for i, rec := range records {
		level = risk.Merge(level, rec.Level)
		label := rec.RiskType
		if i < len(c.Components) {
			label = c.Components[i]
		}
		if mapped, ok := c.SourceLabels[label]; ok {
			label = mapped
		}
		for _, row := range rec.Details {
			details = append(details, row.Tagged(label))
		}
	}
	out := risk.NewRecord(c.Cfg.RiskType, c.Cfg.RiskDesc, level, subjectOf(records))
	out.Details = details
	return out
}

// subjectOf picks the combined subject: the shared single id when all
// components agree, otherwise the union of role maps.
func subjectOf(records []risk.Record) risk.SubjectRef {
	if len(records) == 0 {
		return risk.SubjectRef{}
	}
	first := records[0].Subject
	same := true
	roles := map[string]string{}
	for _, rec := range records {
		if rec.Subject.ID != first.ID {
			same = false
		}
		for role, id := range rec.Subject.Roles {
			roles[role] = id
		}
	}
	if same && len(roles) == 0 {
		return first
	}
	if first.ID != "" {
		roles["subject"] = first.ID
	}
	return risk.RoleSubjects(roles)
}
