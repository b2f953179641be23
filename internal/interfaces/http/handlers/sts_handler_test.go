package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type fakeSTSService struct {
	lastReq screening.STSRequest
	result  *screening.STSResult
	err     error
}

func (f *fakeSTSService) Screen(_ context.Context, req screening.STSRequest) (*screening.STSResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestSTSHandler_Screen(t *testing.T) {
	svc := &fakeSTSService{
		result: &screening.STSResult{
			RequestID: "sts-1",
			VesselIMO: "9876543",
			Verdict:   risk.High,
			Parties: []screening.PartyRisk{
				{Role: "charterers", Name: "Acme Shipping", Level: risk.High},
			},
		},
	}
	h := NewSTSHandler(svc, nil)

	body := `{"vessel_imo":"9876543","parties":{"charterers":["Acme Shipping"]},"evaluated_at":"2025-09-18T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sts/screenings", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Screen(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got screening.STSResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, risk.High, got.Verdict)
	assert.Len(t, got.Parties, 1)
	assert.Equal(t, []string{"Acme Shipping"}, svc.lastReq.Parties["charterers"])
}

func TestSTSHandler_Screen_DefaultsEvaluatedAt(t *testing.T) {
	svc := &fakeSTSService{result: &screening.STSResult{RequestID: "sts-2"}}
	h := NewSTSHandler(svc, nil)

	body := `{"vessel_imo":"123","parties":{"agent":["Someone"]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sts/screenings", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Screen(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.lastReq.EvaluatedAt.IsZero())
}

func TestSTSHandler_Screen_ValidationError(t *testing.T) {
	svc := &fakeSTSService{err: errors.Validation("at least one party is required")}
	h := NewSTSHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sts/screenings", strings.NewReader(`{"vessel_imo":"123"}`))
	w := httptest.NewRecorder()
	h.Screen(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "at least one party is required")
}

func TestSTSHandler_Screen_BadBody(t *testing.T) {
	h := NewSTSHandler(&fakeSTSService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sts/screenings", strings.NewReader("[]"))
	w := httptest.NewRecorder()
	h.Screen(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
