package screening

import (
	"context"
	"testing"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

func newTestService(repo *memLogRepo, pub EventPublisher, payload string) *Service {
	orch := newTestOrchestrator(func(o *testOrchestratorOpts) {
		o.probes = []probe.Probe{newTestProbe("check_a", "prov_a", levelFromPayload)}
		o.fetchers = append(o.fetchers, &stubFetcher{id: "prov_a", payload: payload})
	})
	return NewService(orch, repo, pub, logging.NewNopLogger())
}

func TestScreen_PersistsAndPublishes(t *testing.T) {
	repo := &memLogRepo{}
	pub := &memPublisher{}
	svc := newTestService(repo, pub, "HIGH")

	result, err := svc.Screen(context.Background(), baseRequest("check_a"))
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}

	entry := repo.last()
	if entry == nil {
		t.Fatal("no log entry persisted")
	}
	if entry.Verdict != risk.High || entry.RequestID != result.RequestID {
		t.Errorf("entry = %+v", entry)
	}
	if entry.PrevVerdict != nil {
		t.Error("first screening must not record a verdict change")
	}
	if len(pub.events) != 1 || pub.events[0].Verdict != risk.High || pub.events[0].Changed {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestScreen_TracksVerdictChange(t *testing.T) {
	repo := &memLogRepo{}
	pub := &memPublisher{}

	if _, err := newTestService(repo, pub, "NO_RISK").Screen(context.Background(), baseRequest("check_a")); err != nil {
		t.Fatalf("first Screen: %v", err)
	}
	if _, err := newTestService(repo, pub, "HIGH").Screen(context.Background(), baseRequest("check_a")); err != nil {
		t.Fatalf("second Screen: %v", err)
	}

	entry := repo.last()
	if entry.PrevVerdict == nil || *entry.PrevVerdict != risk.NoRisk {
		t.Fatalf("prev verdict = %v, want NO_RISK", entry.PrevVerdict)
	}
	if entry.VerdictChangedAt == nil || entry.ChangeReason == "" {
		t.Errorf("change metadata missing: %+v", entry)
	}
	if !pub.events[1].Changed {
		t.Error("second event should flag the verdict change")
	}
}

func TestScreen_GeneratesRequestID(t *testing.T) {
	svc := newTestService(&memLogRepo{}, nil, "NO_RISK")
	req := baseRequest("check_a")
	req.RequestID = ""

	result, err := svc.Screen(context.Background(), req)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if result.RequestID == "" {
		t.Error("request id should be generated when absent")
	}
}

func TestScreen_PublishFailureIsTolerated(t *testing.T) {
	repo := &memLogRepo{}
	pub := &memPublisher{err: errors.New(errors.ErrCodeMessageQueueError, "broker down")}
	svc := newTestService(repo, pub, "MEDIUM")

	if _, err := svc.Screen(context.Background(), baseRequest("check_a")); err != nil {
		t.Fatalf("Screen should not fail on publish error: %v", err)
	}
	if repo.last() == nil {
		t.Error("log entry must be persisted regardless of publisher state")
	}
}

func TestScreen_SaveFailureFails(t *testing.T) {
	repo := &memLogRepo{saveErr: errors.New(errors.ErrCodeDatabaseError, "insert failed")}
	svc := newTestService(repo, nil, "MEDIUM")

	_, err := svc.Screen(context.Background(), baseRequest("check_a"))
	if !errors.IsCode(err, errors.ErrCodeDatabaseError) {
		t.Errorf("error = %v, want database error", err)
	}
}

func TestLookup(t *testing.T) {
	repo := &memLogRepo{}
	svc := newTestService(repo, nil, "NO_RISK")

	result, err := svc.Screen(context.Background(), baseRequest("check_a"))
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}

	entry, err := svc.Lookup(context.Background(), result.RequestID)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.RequestID != result.RequestID {
		t.Errorf("entry = %+v", entry)
	}

	if _, err := svc.Lookup(context.Background(), ""); !errors.IsValidation(err) {
		t.Errorf("empty request id: err = %v", err)
	}
	if _, err := svc.Lookup(context.Background(), "nope"); !errors.IsNotFound(err) {
		t.Errorf("unknown request id: err = %v", err)
	}
}
