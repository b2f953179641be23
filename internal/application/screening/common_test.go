package screening

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/provider"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// testProbe is a leaf whose outcome is driven by the payload of one provider.
type testProbe struct {
	probe.Base
	classify func(v interface{}, err error) (risk.Level, []risk.DetailRow)
}

func (p testProbe) Evaluate(subjectID string, params probe.Params, data probe.Dataset) risk.Record {
	if len(p.MissingParams(params)) > 0 {
		return p.NoData(subjectID)
	}
	v, err := data.Get(p.Sources[0])
	level, rows := p.classify(v, err)
	if level == risk.NoData {
		return p.NoData(subjectID)
	}
	return p.Record(subjectID, level).WithDetails(rows...)
}

func newTestProbe(id, providerID string, classify func(interface{}, error) (risk.Level, []risk.DetailRow)) testProbe {
	return testProbe{
		Base: probe.Base{
			Cfg:     probe.Config{ID: id, RiskType: id, RiskDesc: id + " desc", Enabled: true},
			Params:  []string{"vessel_imo"},
			Sources: []string{providerID},
		},
		classify: classify,
	}
}

// levelFromPayload treats the payload as a risk level name; fetch errors and
// absent payloads degrade to no data.
func levelFromPayload(v interface{}, err error) (risk.Level, []risk.DetailRow) {
	if err != nil || v == nil {
		return risk.NoData, nil
	}
	level := risk.ParseLevel(v.(string))
	if level == risk.NoRisk {
		return level, nil
	}
	return level, []risk.DetailRow{{"payload": v.(string)}}
}

// stubFetcher returns a fixed payload and counts calls.
type stubFetcher struct {
	id      string
	payload string
	err     error
	calls   int64
}

func (f *stubFetcher) ProviderID() string { return f.id }

func (f *stubFetcher) Fetch(_ context.Context, _ provider.Key) (interface{}, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func failingFetcher(id string) *stubFetcher {
	return &stubFetcher{id: id, err: errors.Provider(id + " down")}
}

// memLogRepo is the in-memory LogRepository used across service tests.
type memLogRepo struct {
	mu      sync.Mutex
	entries []*LogEntry
	saveErr error
}

func (r *memLogRepo) Save(_ context.Context, entry *LogEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memLogRepo) LatestVerdict(_ context.Context, subjectID string) (risk.Level, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].SubjectID == subjectID {
			return r.entries[i].Verdict, true, nil
		}
	}
	return risk.Undetermined, false, nil
}

func (r *memLogRepo) FindByRequestID(_ context.Context, requestID string) (*LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.RequestID == requestID {
			return e, nil
		}
	}
	return nil, errors.New(errors.ErrCodeScreeningNotFound, "screening record not found")
}

func (r *memLogRepo) last() *LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []CompletedEvent
	err    error
}

func (p *memPublisher) PublishScreeningCompleted(_ context.Context, ev CompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// testOrchestratorOpts assembles an orchestrator over configurable probes,
// aggregates and fetchers.
type testOrchestratorOpts struct {
	probes     []probe.Probe
	aggregates []probe.Aggregate
	fetchers   []provider.Fetcher
}

func newTestOrchestrator(opts ...func(*testOrchestratorOpts)) *Orchestrator {
	o := &testOrchestratorOpts{}
	for _, opt := range opts {
		opt(o)
	}
	registry := probe.NewRegistry()
	for _, p := range o.probes {
		if err := registry.Register(p); err != nil {
			panic(err)
		}
	}
	for _, a := range o.aggregates {
		if err := registry.RegisterAggregate(a); err != nil {
			panic(err)
		}
	}
	return NewOrchestrator(registry, o.fetchers, logging.NewNopLogger())
}

func timeZero() time.Time { return time.Time{} }

func baseRequest(checkIDs ...string) Request {
	return Request{
		RequestID:   "req-1",
		SubjectID:   "9339301",
		CheckIDs:    checkIDs,
		Params:      probe.Params{"vessel_imo": "9339301"},
		WindowStart: "2025-01-01",
		WindowEnd:   "2025-12-31",
		EvaluatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}
