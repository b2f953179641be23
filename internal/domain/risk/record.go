package risk

// DetailRow is one ordered row of provider detail attached to a record.
// Keys and values are opaque to the framework; insertion order is preserved
// by the enclosing slice.
type DetailRow map[string]string

// SourceKey is the discriminator column an aggregate stamps onto every detail
// row so downstream consumers can tell which provider contributed it.
const SourceKey = "source"

// Tagged returns a copy of the row with the source discriminator set. The
// receiver is not modified.
func (r DetailRow) Tagged(source string) DetailRow {
	out := make(DetailRow, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[SourceKey] = source
	return out
}

// SubjectRef identifies what a record is about: a single subject id, or a
// role→id map when one record covers several parties (stakeholder and
// STS/bunkering screenings).
type SubjectRef struct {
	ID    string            `json:"id,omitempty"`
	Roles map[string]string `json:"roles,omitempty"`
}

// SingleSubject builds a SubjectRef for one subject id.
func SingleSubject(id string) SubjectRef {
	return SubjectRef{ID: id}
}

// RoleSubjects builds a SubjectRef over a role→id map.
func RoleSubjects(roles map[string]string) SubjectRef {
	return SubjectRef{Roles: roles}
}

// Record is the outcome of one check item evaluation. Records are plain
// values: copying one never shares mutable state with the original apart from
// the detail rows themselves, which evaluations treat as write-once.
type Record struct {
	RiskType    string      `json:"risk_type"`
	Description string      `json:"risk_desc"`
	Level       Level       `json:"risk_level"`
	Details     []DetailRow `json:"tab,omitempty"`
	Subject     SubjectRef  `json:"subject"`
}

// NewRecord builds a record with the given classification and no detail rows.
func NewRecord(riskType, description string, level Level, subject SubjectRef) Record {
	return Record{
		RiskType:    riskType,
		Description: description,
		Level:       level,
		Subject:     subject,
	}
}

// NoDataRecord builds the placeholder outcome used when required input is
// missing or a provider failed. It never carries detail rows.
func NoDataRecord(riskType, description string, subject SubjectRef) Record {
	return NewRecord(riskType, description, NoData, subject)
}

// WithDetails returns a copy of the record with the given detail rows
// appended, preserving existing row order.
func (r Record) WithDetails(rows ...DetailRow) Record {
	out := r
	out.Details = make([]DetailRow, 0, len(r.Details)+len(rows))
	out.Details = append(out.Details, r.Details...)
	out.Details = append(out.Details, rows...)
	return out
}
