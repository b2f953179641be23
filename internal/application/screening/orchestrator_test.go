package screening

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

func TestExecute_OutcomesFollowRequestOrder(t *testing.T) {
	fetchA := &stubFetcher{id: "prov_a", payload: "HIGH"}
	fetchB := &stubFetcher{id: "prov_b", payload: "NO_RISK"}
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{
			newTestProbe("check_a", "prov_a", levelFromPayload),
			newTestProbe("check_b", "prov_b", levelFromPayload),
		}
		o.fetchers = append(o.fetchers, fetchA, fetchB)
	})

	result, err := orch.Execute(context.Background(), baseRequest("check_b", "check_a"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := []string{result.Outcomes[0].CheckID, result.Outcomes[1].CheckID}
	if !reflect.DeepEqual(got, []string{"check_b", "check_a"}) {
		t.Fatalf("outcome order = %v", got)
	}
	if result.Verdict != risk.High {
		t.Errorf("verdict = %s, want HIGH", result.Verdict)
	}
}

func TestExecute_UnknownCheckFailsBeforeAnyFetch(t *testing.T) {
	fetch := &stubFetcher{id: "prov_a", payload: "HIGH"}
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{newTestProbe("check_a", "prov_a", levelFromPayload)}
		o.fetchers = append(o.fetchers, fetch)
	})

	_, err := orch.Execute(context.Background(), baseRequest("check_a", "check_missing"))
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.IsCode(err, errors.ErrCodeCheckUnknown) {
		t.Errorf("error code = %s", errors.GetCode(err))
	}
	if n := atomic.LoadInt64(&fetch.calls); n != 0 {
		t.Errorf("fetches before failure = %d, want 0", n)
	}
}

func TestExecute_ProviderFailureDegradesOnlyThatCheck(t *testing.T) {
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{
			newTestProbe("check_a", "prov_a", levelFromPayload),
			newTestProbe("check_b", "prov_b", levelFromPayload),
		}
		o.fetchers = append(o.fetchers, failingFetcher("prov_a"), &stubFetcher{id: "prov_b", payload: "MEDIUM"})
	})

	result, err := orch.Execute(context.Background(), baseRequest("check_a", "check_b"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Outcomes[0].Record.Level != risk.NoData {
		t.Errorf("failed provider check = %s, want NO_DATA", result.Outcomes[0].Record.Level)
	}
	if result.Outcomes[1].Record.Level != risk.Medium {
		t.Errorf("healthy provider check = %s, want MEDIUM", result.Outcomes[1].Record.Level)
	}
	if result.Verdict != risk.Medium {
		t.Errorf("verdict = %s, want MEDIUM", result.Verdict)
	}
}

func TestExecute_SharedProviderFetchedOnce(t *testing.T) {
	fetch := &stubFetcher{id: "prov_a", payload: "LOW"}
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{
			newTestProbe("check_a", "prov_a", levelFromPayload),
			newTestProbe("check_b", "prov_a", levelFromPayload),
			newTestProbe("check_c", "prov_a", levelFromPayload),
		}
		o.fetchers = append(o.fetchers, fetch)
	})

	result, err := orch.Execute(context.Background(), baseRequest("check_a", "check_b", "check_c"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n := atomic.LoadInt64(&fetch.calls); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
	if result.Fetches != 1 {
		t.Errorf("result.Fetches = %d, want 1", result.Fetches)
	}
}

func TestExecute_AggregateCombinesWithSourceTags(t *testing.T) {
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{
			newTestProbe("leaf_high", "prov_a", levelFromPayload),
			newTestProbe("leaf_clear", "prov_b", levelFromPayload),
		}
		o.aggregates = []probe.Aggregate{probe.Composite{
			Cfg:          probe.Config{ID: "vessel_combined", RiskType: "vessel_combined", RiskDesc: "combined"},
			Components:   []string{"leaf_high", "leaf_clear"},
			SourceLabels: map[string]string{"leaf_high": "劳氏", "leaf_clear": "Kpler"},
		}}
		o.fetchers = append(o.fetchers,
			&stubFetcher{id: "prov_a", payload: "HIGH"},
			&stubFetcher{id: "prov_b", payload: "NO_RISK"},
		)
	})

	result, err := orch.Execute(context.Background(), baseRequest("vessel_combined"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rec := result.Outcomes[0].Record
	if rec.Level != risk.High {
		t.Fatalf("aggregate level = %s, want HIGH", rec.Level)
	}
	if len(rec.Details) != 1 {
		t.Fatalf("detail rows = %d, want 1", len(rec.Details))
	}
	if rec.Details[0][risk.SourceKey] != "劳氏" {
		t.Errorf("source tag = %q", rec.Details[0][risk.SourceKey])
	}
}

func TestExecute_AggregateAllComponentsFailed(t *testing.T) {
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{
			newTestProbe("leaf_a", "prov_a", levelFromPayload),
			newTestProbe("leaf_b", "prov_b", levelFromPayload),
		}
		o.aggregates = []probe.Aggregate{probe.Composite{
			Cfg:        probe.Config{ID: "combined", RiskType: "combined", RiskDesc: "combined"},
			Components: []string{"leaf_a", "leaf_b"},
		}}
		o.fetchers = append(o.fetchers, failingFetcher("prov_a"), failingFetcher("prov_b"))
	})

	result, err := orch.Execute(context.Background(), baseRequest("combined"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rec := result.Outcomes[0].Record
	if rec.Level != risk.NoData {
		t.Errorf("aggregate level = %s, want NO_DATA", rec.Level)
	}
	if len(rec.Details) != 0 {
		t.Errorf("detail rows = %d, want 0", len(rec.Details))
	}
}

func TestExecute_Idempotent(t *testing.T) {
	build := func() *Orchestrator {
		return newTestOrchestrator(func(o *testOrchestratorOpts) {
			o.probes = []probe.Probe{newTestProbe("check_a", "prov_a", levelFromPayload)}
			o.fetchers = append(o.fetchers, &stubFetcher{id: "prov_a", payload: "MEDIUM"})
		})
	}

	req := baseRequest("check_a")
	first, err := build().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := build().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !reflect.DeepEqual(first.Outcomes, second.Outcomes) {
		t.Error("repeated runs with identical inputs must yield identical outcomes")
	}
	if first.Verdict != second.Verdict {
		t.Errorf("verdicts differ: %s vs %s", first.Verdict, second.Verdict)
	}
}

func TestExecute_ValidatesRequest(t *testing.T) {
	orch := newTestOrchestrator()

	cases := []struct {
		name string
		mut  func(*Request)
	}{
		{"missing subject", func(r *Request) { r.SubjectID = "" }},
		{"no checks", func(r *Request) { r.CheckIDs = nil }},
		{"zero evaluation time", func(r *Request) { r.EvaluatedAt = timeZero() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest("check_a")
			tc.mut(&req)
			_, err := orch.Execute(context.Background(), req)
			if !errors.IsValidation(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

// paramEchoProbe records the params it was evaluated with.
type paramEchoProbe struct {
	probe.Base
	mu   sync.Mutex
	seen probe.Params
}

func (p *paramEchoProbe) Evaluate(subjectID string, params probe.Params, _ probe.Dataset) risk.Record {
	p.mu.Lock()
	p.seen = params
	p.mu.Unlock()
	return p.Record(subjectID, risk.NoRisk)
}

func TestExecute_StampsEvaluationTimeParam(t *testing.T) {
	echo := &paramEchoProbe{Base: probe.Base{
		Cfg: probe.Config{ID: "echo", RiskType: "echo", RiskDesc: "echo", Enabled: true},
	}}
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{echo}
	})

	req := baseRequest("echo")
	if _, err := orch.Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := req.EvaluatedAt.UTC().Format(time.RFC3339)
	if got := echo.seen[probe.ParamEvaluatedAt]; got != want {
		t.Errorf("evaluated_at param = %q, want %q", got, want)
	}
	if _, ok := req.Params[probe.ParamEvaluatedAt]; ok {
		t.Error("caller params must not be mutated")
	}
}
