package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type staticProbe struct {
	Base
	level risk.Level
}

func (p staticProbe) Evaluate(subjectID string, params Params, data Dataset) risk.Record {
	if len(p.MissingParams(params)) > 0 {
		return p.NoData(subjectID)
	}
	return p.Record(subjectID, p.level)
}

func newStaticProbe(id string, level risk.Level, requiredParams ...string) staticProbe {
	return staticProbe{
		Base: Base{
			Cfg:    Config{ID: id, RiskType: id, RiskDesc: id + " desc", Enabled: true},
			Params: requiredParams,
		},
		level: level,
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStaticProbe("uani_check", risk.High)))
	require.NoError(t, r.RegisterAggregate(Composite{
		Cfg:        Config{ID: "vessel_in_uani", RiskType: "vessel_in_uani"},
		Components: []string{"uani_check"},
	}))

	p, err := r.Probe("uani_check")
	require.NoError(t, err)
	assert.Equal(t, "uani_check", p.ID())

	a, err := r.Aggregate("vessel_in_uani")
	require.NoError(t, err)
	assert.Equal(t, []string{"uani_check"}, a.ComponentIDs())

	assert.True(t, r.Contains("uani_check"))
	assert.True(t, r.IsAggregate("vessel_in_uani"))
	assert.False(t, r.IsAggregate("uani_check"))
	assert.Equal(t, []string{"uani_check", "vessel_in_uani"}, r.IDs())
}

func TestRegistry_DuplicateIsConfigurationError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newStaticProbe("uani_check", risk.High)))

	err := r.Register(newStaticProbe("uani_check", risk.NoRisk))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCheckDuplicate))

	// An aggregate may not shadow a leaf id either.
	err = r.RegisterAggregate(Composite{Cfg: Config{ID: "uani_check"}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeCheckDuplicate))
}

func TestRegistry_UnknownIDIsConfigurationError(t *testing.T) {
	r := NewRegistry()

	_, err := r.Probe("nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCheckUnknown))
	assert.True(t, errors.IsConfiguration(err))

	_, err = r.Aggregate("nope")
	assert.True(t, errors.IsCode(err, errors.ErrCodeCheckUnknown))
}

func TestBase_MissingParamsDegradesToNoData(t *testing.T) {
	p := newStaticProbe("lloyds_sanctions", risk.High, "vessel_imo", "start_date")

	rec := p.Evaluate("9339301", Params{"vessel_imo": "9339301"}, nil)
	assert.Equal(t, risk.NoData, rec.Level)

	rec = p.Evaluate("9339301", Params{"vessel_imo": "9339301", "start_date": "2025-01-01"}, nil)
	assert.Equal(t, risk.High, rec.Level)
}

func TestDataset_MissingProviderReadsAsAbsent(t *testing.T) {
	d := Dataset{"lloyds": {Value: map[string]interface{}{"ok": true}}}

	v, err := d.Get("lloyds")
	require.NoError(t, err)
	assert.NotNil(t, v)

	v, err = d.Get("kpler")
	require.NoError(t, err)
	assert.Nil(t, v)
}
