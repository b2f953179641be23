package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailRow_Tagged(t *testing.T) {
	row := DetailRow{"VesselImo": "9339301", "SanctionSource": "OFAC"}
	tagged := row.Tagged("劳氏")

	assert.Equal(t, "劳氏", tagged[SourceKey])
	assert.Equal(t, "9339301", tagged["VesselImo"])
	_, ok := row[SourceKey]
	assert.False(t, ok, "Tagged must not mutate the original row")
}

func TestRecord_WithDetails_PreservesOrder(t *testing.T) {
	rec := NewRecord("lloyds_sanctions", "vessel on sanction list", High, SingleSubject("9339301"))
	rec = rec.WithDetails(DetailRow{"row": "1"}, DetailRow{"row": "2"})
	rec = rec.WithDetails(DetailRow{"row": "3"})

	assert.Len(t, rec.Details, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, rec.Details[i]["row"])
	}
}

func TestRecord_WithDetails_CopiesSlice(t *testing.T) {
	base := NewRecord("uani_check", "tracked by UANI", Medium, SingleSubject("9339301"))
	a := base.WithDetails(DetailRow{"row": "a"})
	b := base.WithDetails(DetailRow{"row": "b"})

	assert.Empty(t, base.Details)
	assert.Equal(t, "a", a.Details[0]["row"])
	assert.Equal(t, "b", b.Details[0]["row"])
}

func TestNoDataRecord(t *testing.T) {
	rec := NoDataRecord("kpler_sanctions", "kpler unavailable", SingleSubject("9339301"))
	assert.Equal(t, NoData, rec.Level)
	assert.Empty(t, rec.Details)
}

func TestSubjectRef_Roles(t *testing.T) {
	ref := RoleSubjects(map[string]string{"owner": "ACME SHIPPING", "charterer": "GLOBAL TRADE"})
	assert.Empty(t, ref.ID)
	assert.Equal(t, "ACME SHIPPING", ref.Roles["owner"])
}
