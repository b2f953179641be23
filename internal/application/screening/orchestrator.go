// Package screening contains the application services that run check items
// against a subject: the orchestrator driving leaf evaluation through the
// session fetch cache, the persistence-aware screening service, and the
// STS/bunkering multi-role screening.
package screening

import (
	"context"
	"sync"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/provider"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Request describes one screening run. EvaluatedAt is supplied by the caller
// and is the only clock the run ever consults.
type Request struct {
	RequestID   string       `json:"request_id"`
	SubjectID   string       `json:"subject_id"`
	CheckIDs    []string     `json:"check_ids"`
	Params      probe.Params `json:"params"`
	WindowStart string       `json:"window_start"`
	WindowEnd   string       `json:"window_end"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
}

// CheckOutcome pairs a requested check id with its record.
type CheckOutcome struct {
	CheckID string      `json:"check_id"`
	Record  risk.Record `json:"record"`
}

// Result is the outcome of one screening run. Outcomes follow the request's
// check order exactly.
type Result struct {
	RequestID   string         `json:"request_id"`
	SubjectID   string         `json:"subject_id"`
	Verdict     risk.Level     `json:"verdict"`
	Outcomes    []CheckOutcome `json:"outcomes"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
	Fetches     int            `json:"fetches"`
	CacheHits   int            `json:"cache_hits"`
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// Orchestrator resolves check ids against the registry, fetches the provider
// payloads each run needs through a fresh session cache, evaluates leaves,
// and combines aggregates.
type Orchestrator struct {
	registry    *probe.Registry
	fetchers    []provider.Fetcher
	logger      logging.Logger
	maxInFlight int
}

// OrchestratorOption mutates construction defaults.
type OrchestratorOption func(*Orchestrator)

// WithMaxInFlight bounds concurrent provider fetches and leaf evaluations.
func WithMaxInFlight(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// NewOrchestrator builds an orchestrator over a loaded registry and the
// provider fetchers available to it.
func NewOrchestrator(registry *probe.Registry, fetchers []provider.Fetcher, logger logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &Orchestrator{
		registry:    registry,
		fetchers:    fetchers,
		logger:      logger.Named("orchestrator"),
		maxInFlight: 8,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs one screening request.
//
// An unknown check id fails the whole request with a configuration error
// before any fetch starts. Once running, individual probe or provider
// failures degrade that check to a no-data outcome and the run continues.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	plan, err := o.plan(req.CheckIDs)
	if err != nil {
		return nil, err
	}

	req.Params = withEvaluatedAt(req.Params, req.EvaluatedAt)

	session := provider.NewSession(o.fetchers, o.logger)
	dataset := o.fetchDataset(ctx, session, req, plan.providerIDs)

	leafRecords := o.evaluateLeaves(req, plan.leafOrder, dataset)

	outcomes := make([]CheckOutcome, 0, len(req.CheckIDs))
	verdict := risk.Undetermined
	for _, id := range req.CheckIDs {
		var rec risk.Record
		if agg, ok := plan.aggregates[id]; ok {
			components := make([]risk.Record, 0, len(agg.ComponentIDs()))
			for _, cid := range agg.ComponentIDs() {
				components = append(components, leafRecords[cid])
			}
			rec = agg.Combine(components)
		} else {
			rec = leafRecords[id]
		}
		verdict = risk.Merge(verdict, rec.Level)
		outcomes = append(outcomes, CheckOutcome{CheckID: id, Record: rec})
	}

	fetches, hits := session.Stats()
	o.logger.Info("screening run complete",
		logging.String("request_id", req.RequestID),
		logging.String("subject_id", req.SubjectID),
		logging.String("verdict", verdict.String()),
		logging.Int("checks", len(outcomes)),
		logging.Int("fetches", fetches),
		logging.Int("cache_hits", hits),
	)

	return &Result{
		RequestID:   req.RequestID,
		SubjectID:   req.SubjectID,
		Verdict:     verdict,
		Outcomes:    outcomes,
		EvaluatedAt: req.EvaluatedAt,
		Fetches:     fetches,
		CacheHits:   hits,
	}, nil
}

// withEvaluatedAt copies the caller's params and stamps the evaluation
// timestamp so time-based probes never consult a wall clock. The copy keeps
// the caller's map untouched.
func withEvaluatedAt(params probe.Params, at time.Time) probe.Params {
	out := make(probe.Params, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[probe.ParamEvaluatedAt] = at.UTC().Format(time.RFC3339)
	return out
}

func validateRequest(req Request) error {
	switch {
	case req.SubjectID == "":
		return errors.Validation("subject_id is required")
	case len(req.CheckIDs) == 0:
		return errors.Validation("check_ids must not be empty")
	case req.EvaluatedAt.IsZero():
		return errors.Validation("evaluated_at is required")
	}
	return nil
}

// executionPlan is the resolved shape of one request: the leaves to evaluate
// in first-seen order, the aggregates keyed by id, and the union of provider
// ids the leaves read.
type executionPlan struct {
	leafOrder   []probe.Probe
	aggregates  map[string]probe.Aggregate
	providerIDs []string
}

func (o *Orchestrator) plan(checkIDs []string) (*executionPlan, error) {
	plan := &executionPlan{aggregates: make(map[string]probe.Aggregate)}
	seenLeaf := map[string]bool{}
	seenProvider := map[string]bool{}

	addLeaf := func(id string) error {
		if seenLeaf[id] {
			return nil
		}
		p, err := o.registry.Probe(id)
		if err != nil {
			return err
		}
		seenLeaf[id] = true
		plan.leafOrder = append(plan.leafOrder, p)
		for _, pid := range p.DataSources() {
			if !seenProvider[pid] {
				seenProvider[pid] = true
				plan.providerIDs = append(plan.providerIDs, pid)
			}
		}
		return nil
	}

	for _, id := range checkIDs {
		if o.registry.IsAggregate(id) {
			agg, err := o.registry.Aggregate(id)
			if err != nil {
				return nil, err
			}
			plan.aggregates[id] = agg
			for _, cid := range agg.ComponentIDs() {
				if err := addLeaf(cid); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := addLeaf(id); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// fetchDataset pulls every needed provider payload through the session cache
// with bounded concurrency. Failures land in the dataset as payload errors;
// probes degrade on them.
func (o *Orchestrator) fetchDataset(ctx context.Context, session *provider.Session, req Request, providerIDs []string) probe.Dataset {
	dataset := make(probe.Dataset, len(providerIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.maxInFlight)

	for _, pid := range providerIDs {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			key := provider.Key{
				SubjectID:   req.SubjectID,
				ProviderID:  pid,
				WindowStart: req.WindowStart,
				WindowEnd:   req.WindowEnd,
			}
			value, err := session.GetOrFetch(ctx, key)
			mu.Lock()
			dataset[pid] = probe.Payload{Value: value, Err: err}
			mu.Unlock()
		}(pid)
	}
	wg.Wait()
	return dataset
}

// evaluateLeaves runs the leaf probes concurrently. Evaluation is pure, so
// the only shared state is the result map.
func (o *Orchestrator) evaluateLeaves(req Request, leaves []probe.Probe, dataset probe.Dataset) map[string]risk.Record {
	records := make(map[string]risk.Record, len(leaves))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.maxInFlight)

	for _, p := range leaves {
		wg.Add(1)
		go func(p probe.Probe) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec := p.Evaluate(req.SubjectID, req.Params, dataset)
			if rec.Level == risk.NoData {
				o.logger.Warn("check degraded to no data",
					logging.String("request_id", req.RequestID),
					logging.String("check_id", p.ID()),
				)
			}
			mu.Lock()
			records[p.ID()] = rec
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return records
}
