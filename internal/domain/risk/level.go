// Package risk defines the risk level lattice and the result record type
// shared by every check item, aggregate and the bulk entity resolver.
package risk

// Level is the outcome severity of a single check or a combined screening.
//
// The determinate levels form a total order:
//
//	NoData < NoRisk < Low < Medium < High
//
// Undetermined sits outside the order. It marks signals whose inputs could
// not be interpreted (unparseable dates, absent countries) and defers to any
// determinate level when merged.
//
// Undetermined is also the zero value, so a Level read from an uninitialized
// field merges as the identity rather than a phantom risk. Records carrying a
// meaningful level are always built through NewRecord or NoDataRecord.
type Level int

const (
	Undetermined Level = iota
	NoData
	NoRisk
	Low
	Medium
	High
)

// Wire labels used by the upstream data contract. The bulk resolver reads and
// writes provider rows carrying these values.
const (
	labelHigh         = "高风险"
	labelMedium       = "中风险"
	labelLow          = "低风险"
	labelNoRisk       = "无风险"
	labelNoData       = "无数据"
	labelUndetermined = "无法判断"
)

var levelNames = map[Level]string{
	Undetermined: "UNDETERMINED",
	NoData:       "NO_DATA",
	NoRisk:       "NO_RISK",
	Low:          "LOW",
	Medium:       "MEDIUM",
	High:         "HIGH",
}

var levelLabels = map[Level]string{
	Undetermined: labelUndetermined,
	NoData:       labelNoData,
	NoRisk:       labelNoRisk,
	Low:          labelLow,
	Medium:       labelMedium,
	High:         labelHigh,
}

// String returns the canonical ASCII name of the level.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "UNDETERMINED"
}

// Label returns the wire label of the level as used by the upstream rows.
func (l Level) Label() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return labelUndetermined
}

// Determinate reports whether the level participates in the total order.
func (l Level) Determinate() bool {
	return l != Undetermined
}

// ParseLevel maps a wire label or canonical name to a Level. Unknown input
// maps to Undetermined.
func ParseLevel(s string) Level {
	switch s {
	case labelHigh, "HIGH":
		return High
	case labelMedium, "MEDIUM":
		return Medium
	case labelLow, "LOW":
		return Low
	case labelNoRisk, "NO_RISK":
		return NoRisk
	case labelNoData, "NO_DATA":
		return NoData
	default:
		return Undetermined
	}
}

// Merge combines two levels and returns the more severe one.
//
// Undetermined defers: Merge(Undetermined, x) = x for determinate x, and
// Merge(Undetermined, Undetermined) = Undetermined. Over determinate levels
// Merge is max under the total order. Merge is commutative, associative,
// idempotent and monotone.
func Merge(a, b Level) Level {
	if a == Undetermined {
		return b
	}
	if b == Undetermined {
		return a
	}
	if a >= b {
		return a
	}
	return b
}

// MergeAll folds Merge over levels. An empty slice yields Undetermined, the
// identity of Merge.
func MergeAll(levels ...Level) Level {
	out := Undetermined
	for _, l := range levels {
		out = Merge(out, l)
	}
	return out
}

// MarshalJSON encodes the level as its canonical name.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON accepts either the canonical name or the wire label.
func (l *Level) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*l = ParseLevel(s)
	return nil
}

// Compare orders two determinate levels: -1 when a is less severe than b,
// 0 when equal, +1 when more severe. Undetermined compares below everything
// except itself.
func Compare(a, b Level) int {
	switch {
	case a == b:
		return 0
	case a == Undetermined:
		return -1
	case b == Undetermined:
		return 1
	case a < b:
		return -1
	default:
		return 1
	}
}
