package risk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allLevels = []Level{Undetermined, NoData, NoRisk, Low, Medium, High}

func TestLevel_Order(t *testing.T) {
	ordered := []Level{NoData, NoRisk, Low, Medium, High}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, Compare(ordered[i], ordered[i+1]),
			"%s should be less severe than %s", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(ordered[i+1], ordered[i]))
	}
}

func TestMerge_MaxOverDeterminate(t *testing.T) {
	assert.Equal(t, High, Merge(High, NoRisk))
	assert.Equal(t, High, Merge(NoRisk, High))
	assert.Equal(t, Medium, Merge(Medium, Low))
	assert.Equal(t, NoRisk, Merge(NoData, NoRisk))
	assert.Equal(t, NoData, Merge(NoData, NoData))
}

func TestMerge_UndeterminedDefers(t *testing.T) {
	for _, l := range allLevels {
		assert.Equal(t, l, Merge(Undetermined, l), l.String())
		assert.Equal(t, l, Merge(l, Undetermined), l.String())
	}
}

func TestMerge_Commutative(t *testing.T) {
	for _, a := range allLevels {
		for _, b := range allLevels {
			assert.Equal(t, Merge(a, b), Merge(b, a), "%s / %s", a, b)
		}
	}
}

func TestMerge_Associative(t *testing.T) {
	for _, a := range allLevels {
		for _, b := range allLevels {
			for _, c := range allLevels {
				assert.Equal(t,
					Merge(Merge(a, b), c),
					Merge(a, Merge(b, c)),
					"%s / %s / %s", a, b, c)
			}
		}
	}
}

func TestMerge_IdempotentAndMonotone(t *testing.T) {
	for _, a := range allLevels {
		assert.Equal(t, a, Merge(a, a))
		for _, b := range allLevels {
			merged := Merge(a, b)
			assert.True(t, Compare(merged, a) >= 0, "merge may not lower %s", a)
			assert.True(t, Compare(merged, b) >= 0, "merge may not lower %s", b)
		}
	}
}

func TestMergeAll(t *testing.T) {
	assert.Equal(t, Undetermined, MergeAll())
	assert.Equal(t, High, MergeAll(NoRisk, High, NoData))
	assert.Equal(t, Medium, MergeAll(Undetermined, Medium, Undetermined))
	assert.Equal(t, Undetermined, MergeAll(Undetermined, Undetermined))
}

func TestParseLevel_WireLabels(t *testing.T) {
	assert.Equal(t, High, ParseLevel("高风险"))
	assert.Equal(t, Medium, ParseLevel("中风险"))
	assert.Equal(t, NoRisk, ParseLevel("无风险"))
	assert.Equal(t, Undetermined, ParseLevel("无法判断"))
	assert.Equal(t, Undetermined, ParseLevel("garbage"))
	assert.Equal(t, High, ParseLevel("HIGH"))
}

func TestLevel_LabelRoundTrip(t *testing.T) {
	for _, l := range allLevels {
		assert.Equal(t, l, ParseLevel(l.Label()), l.String())
		assert.Equal(t, l, ParseLevel(l.String()), l.String())
	}
}

func TestLevel_JSON(t *testing.T) {
	b, err := json.Marshal(High)
	assert.NoError(t, err)
	assert.Equal(t, `"HIGH"`, string(b))

	var l Level
	assert.NoError(t, json.Unmarshal([]byte(`"中风险"`), &l))
	assert.Equal(t, Medium, l)
}
