package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/testutil"
)

func TestDescriptionRepo_LoadDescriptions(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewDescriptionRepo(conn, testutil.NewMockLogger())

	mock.ExpectQuery("FROM sanctions_des_info").
		WillReturnRows(sqlmock.NewRows([]string{"risk_type", "risk_desc", "risk_level", "risk_desc_info", "info"}).
			AddRow("is_san", "涉制裁名单", "高风险", "命中制裁名单", "建议终止交易").
			AddRow("is_san", "涉制裁名单", "中风险", "历史制裁记录", "建议加强尽调"))

	table, err := repo.LoadDescriptions(context.Background())
	require.NoError(t, err)

	d := table.Get("is_san", risk.High)
	assert.Equal(t, "建议终止交易", d.Info)
	d = table.Get("is_san", risk.Medium)
	assert.Equal(t, "建议加强尽调", d.Info)
	// Missing entries fall back to a generated default.
	d = table.Get("is_ool", risk.Medium)
	assert.Equal(t, "风险判定为: 中风险", d.Info)
}

func TestCountryRepo_SanctionedCountries(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewCountryRepo(conn, testutil.NewMockLogger())

	mock.ExpectQuery("FROM country_port").
		WillReturnRows(sqlmock.NewRows([]string{"countryname"}).
			AddRow("伊朗").
			AddRow("俄罗斯"))

	countries, err := repo.SanctionedCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"伊朗", "俄罗斯"}, countries)
}

func TestAssociatedPartyRepo_FetchAssociatedParties(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewAssociatedPartyRepo(conn, testutil.NewMockLogger())

	mock.ExpectQuery("FROM associated_party").
		WithArgs("e1", "e2").
		WillReturnRows(sqlmock.NewRows([]string{
			"entity_id", "party_id", "party_name", "party_level", "source_type", "relation",
		}).
			AddRow("e1", "p1", "关联公司", "高风险", "ENTITY", "母公司").
			AddRow("e1", "p2", nil, nil, "PERSON", nil))

	parties, err := repo.FetchAssociatedParties(context.Background(), []string{"e2", "e1", "e1", ""})
	require.NoError(t, err)
	require.Len(t, parties["e1"], 2)
	assert.Equal(t, "关联公司", parties["e1"][0].PartyName)
	assert.Equal(t, "", parties["e1"][1].PartyName)
}
