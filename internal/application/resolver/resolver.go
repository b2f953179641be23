package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// Snapshot is the read-only input of one reduction: the raw rows plus the
// reference data loaded at the start of the run. The reduction never
// refreshes it mid-run.
type Snapshot struct {
	Rows         []SignalRow
	Descriptions DescriptionTable
	Sanctioned   []string
	Parties      map[string][]AssociatedParty
}

// Resolver runs bulk verdict computations over the configured sources.
type Resolver struct {
	signals   SignalSource
	parties   PartySource
	descs     DescriptionSource
	countries CountrySource
	sink      VerdictSink
	logger    logging.Logger
}

// NewResolver wires the resolver. sink may be nil when the caller consumes
// the returned verdicts directly.
func NewResolver(signals SignalSource, parties PartySource, descs DescriptionSource, countries CountrySource, sink VerdictSink, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		signals:   signals,
		parties:   parties,
		descs:     descs,
		countries: countries,
		sink:      sink,
		logger:    logger.Named("resolver"),
	}
}

// Run executes one full bulk resolution: fetch the snapshot, reduce it, and
// hand the verdicts to the sink. now anchors the recent-event lookback.
func (r *Resolver) Run(ctx context.Context, now time.Time) ([]EntityVerdict, error) {
	started := time.Now()

	snap, err := r.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	entityIDs := uniqueEntityIDs(snap.Rows)
	if r.parties != nil && len(entityIDs) > 0 {
		snap.Parties, err = r.parties.FetchAssociatedParties(ctx, entityIDs)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "fetch associated parties")
		}
	}

	verdicts := Reduce(snap, now)

	if r.sink != nil {
		if err := r.sink.SaveVerdicts(ctx, verdicts); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "persist verdicts")
		}
	}

	r.logger.Info("bulk resolution finished",
		logging.Int("rows", len(snap.Rows)),
		logging.Int("entities", len(verdicts)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return verdicts, nil
}

// ScreenParty resolves a single named counterparty to a sanction level plus
// the detail rows behind it. Unknown names yield NO_DATA.
func (r *Resolver) ScreenParty(ctx context.Context, name string, evaluatedAt time.Time) (risk.Level, []risk.DetailRow, error) {
	rows, err := r.signals.FetchSignalRowsByName(ctx, name)
	if err != nil {
		return risk.Undetermined, nil, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "fetch signal rows for party")
	}
	if len(rows) == 0 {
		return risk.NoData, nil, nil
	}

	snap, err := r.loadReferences(ctx)
	if err != nil {
		return risk.Undetermined, nil, err
	}
	snap.Rows = rows

	verdicts := Reduce(snap, evaluatedAt)
	if len(verdicts) == 0 {
		return risk.NoData, nil, nil
	}
	v := verdicts[0]

	var details []risk.DetailRow
	for _, items := range [][]RiskItem{v.High, v.Medium, v.Undetermined} {
		for _, item := range items {
			if len(item.Tab) == 0 {
				details = append(details, risk.DetailRow{
					"risk_type":  item.RiskType,
					"risk_value": item.RiskValue.Label(),
					"risk_desc":  item.RiskDesc,
				})
				continue
			}
			for _, row := range item.Tab {
				tagged := risk.DetailRow{"risk_type": item.RiskType, "risk_value": item.RiskValue.Label()}
				for k, val := range row {
					tagged[k] = val
				}
				details = append(details, tagged)
			}
		}
	}
	return v.SanctionsLevel, details, nil
}

func (r *Resolver) loadSnapshot(ctx context.Context) (Snapshot, error) {
	snap, err := r.loadReferences(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Rows, err = r.signals.FetchSignalRows(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "fetch signal rows")
	}
	return snap, nil
}

func (r *Resolver) loadReferences(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Descriptions: DescriptionTable{}}
	var err error
	if r.descs != nil {
		snap.Descriptions, err = r.descs.LoadDescriptions(ctx)
		if err != nil {
			return Snapshot{}, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "load descriptions")
		}
	}
	if r.countries != nil {
		snap.Sanctioned, err = r.countries.SanctionedCountries(ctx)
		if err != nil {
			return Snapshot{}, errors.Wrap(err, errors.ErrCodeResolverBatchFailed, "load sanctioned countries")
		}
	}
	return snap, nil
}

// Reduce computes every entity verdict from a snapshot. It is pure: the same
// snapshot and anchor time always produce the same output, in first-seen
// entity order.
func Reduce(snap Snapshot, now time.Time) []EntityVerdict {
	rows := dedupRows(snap.Rows)
	sanctioned := map[string]struct{}{}
	for _, c := range snap.Sanctioned {
		sanctioned[c] = struct{}{}
	}
	descs := snap.Descriptions
	if descs == nil {
		descs = DescriptionTable{}
	}

	var order []string
	byEntity := map[string][]SignalRow{}
	for _, row := range rows {
		if _, seen := byEntity[row.EntityID]; !seen {
			order = append(order, row.EntityID)
		}
		byEntity[row.EntityID] = append(byEntity[row.EntityID], row)
	}

	verdicts := make([]EntityVerdict, 0, len(order))
	for _, id := range order {
		verdicts = append(verdicts, reduceEntity(id, byEntity[id], descs, sanctioned, snap.Parties[id], now))
	}
	return verdicts
}

// dedupRows drops exact duplicate rows, keeping first occurrence order.
func dedupRows(rows []SignalRow) []SignalRow {
	seen := map[SignalRow]struct{}{}
	out := make([]SignalRow, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}

func uniqueEntityIDs(rows []SignalRow) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range rows {
		if _, ok := seen[row.EntityID]; ok {
			continue
		}
		seen[row.EntityID] = struct{}{}
		out = append(out, row.EntityID)
	}
	return out
}

// signalState accumulates one signal type's observations across an entity's
// rows before bucket assembly.
type signalState struct {
	levels map[risk.Level]bool
	tabs   map[risk.Level][]risk.DetailRow
}

func newSignalState() *signalState {
	return &signalState{
		levels: map[risk.Level]bool{},
		tabs:   map[risk.Level][]risk.DetailRow{},
	}
}

// observe records a level sighting plus the tab rows the sighting carries.
func (s *signalState) observe(level risk.Level, tab []risk.DetailRow) {
	s.levels[level] = true
	s.tabs[level] = append(s.tabs[level], tab...)
}

func reduceEntity(id string, rows []SignalRow, descs DescriptionTable, sanctioned map[string]struct{}, parties []AssociatedParty, now time.Time) EntityVerdict {
	states := map[string]*signalState{}
	for _, t := range signalOrder {
		states[t] = newSignalState()
	}

	// Ownership descriptions are deduplicated per level across the whole
	// entity before tab assembly.
	scoDescs := map[risk.Level]map[string]struct{}{
		risk.High:   {},
		risk.Medium: {},
		risk.NoRisk: {},
	}

	for _, row := range rows {
		classified := []struct {
			signal string
			flag   string
		}{
			{SignalSanctionsList, row.SanctionFlag},
			{SignalOwnership, row.OwnershipFlag},
			{SignalOtherList, row.OtherListFlag},
		}
		for _, c := range classified {
			if c.flag == "" {
				continue
			}
			level := risk.ParseLevel(c.flag)
			switch c.signal {
			case SignalOwnership:
				if set, ok := scoDescs[level]; ok {
					if d := trimDesc(row.Description3); d != "" {
						set[d] = struct{}{}
					}
				}
				states[c.signal].observe(level, nil)
			default:
				states[c.signal].observe(level, sanctionTab(row, level))
			}
		}
	}

	// Ownership tab rows assemble from the entity-wide description sets; the
	// undetermined view unions every level for transparency.
	scoState := states[SignalOwnership]
	scoState.tabs[risk.High] = descRows(scoDescs[risk.High])
	scoState.tabs[risk.Medium] = descRows(scoDescs[risk.Medium])
	scoState.tabs[risk.Undetermined] = descRows(union(scoDescs[risk.High], scoDescs[risk.Medium], scoDescs[risk.NoRisk]))

	recencyLevel, recentDates := evalRecency(rows, now)
	recencyState := states[SignalRecentEvent]
	switch recencyLevel {
	case risk.Medium:
		recencyState.observe(risk.Medium, dateRows(recentDates))
	case risk.NoRisk:
		recencyState.observe(risk.NoRisk, nil)
	default:
		recencyState.observe(risk.Undetermined, rawDateRows(rows))
	}

	countryLevel, matchedCountries := evalCountryMatch(rows, sanctioned)
	countryState := states[SignalCountryMatch]
	switch countryLevel {
	case risk.Medium:
		countryState.observe(risk.Medium, countryRows(matchedCountries))
	case risk.NoRisk:
		countryState.observe(risk.NoRisk, nil)
	default:
		countryState.observe(risk.Undetermined, nil)
	}

	v := EntityVerdict{EntityID: id, AssociatedParties: parties}
	last := rows[len(rows)-1]
	v.EntityDate = last.EntityDate
	v.ActiveStatus = last.ActiveStatus
	v.NameCN = last.NameCN
	v.NameEN = last.NameEN
	v.RegisteredCountry = last.RegisteredCountry
	v.DomicileCountry = last.DomicileCountry
	v.DateValue = last.DateValue

	for _, t := range signalOrder {
		st := states[t]
		if st.levels[risk.High] {
			if item, ok := bucketItem(t, risk.High, st, descs); ok {
				v.High = append(v.High, item)
			}
		}
		if st.levels[risk.Medium] {
			if item, ok := bucketItem(t, risk.Medium, st, descs); ok {
				v.Medium = append(v.Medium, item)
			}
		}
		if st.levels[risk.Undetermined] {
			if item, ok := bucketItem(t, risk.Undetermined, st, descs); ok {
				v.Undetermined = append(v.Undetermined, item)
			}
		}
		// A clear reading surfaces only when nothing else was seen for the
		// signal type.
		if st.levels[risk.NoRisk] && !st.levels[risk.High] && !st.levels[risk.Medium] && !st.levels[risk.Undetermined] {
			item := RiskItem{RiskType: t, RiskValue: risk.NoRisk, Tab: []risk.DetailRow{}}
			fillDescription(&item, descs)
			v.None = append(v.None, item)
		}
	}

	switch {
	case len(v.High) > 0:
		v.SanctionsLevel = risk.High
	case len(v.Medium) > 0:
		v.SanctionsLevel = risk.Medium
	default:
		v.SanctionsLevel = risk.NoRisk
	}

	markers := map[string]*string{
		SignalSanctionsList: &v.SanctionMarker,
		SignalOwnership:     &v.OwnershipMarker,
		SignalOtherList:     &v.OtherListMarker,
		SignalRecentEvent:   &v.RecentMarker,
		SignalCountryMatch:  &v.CountryMarker,
	}
	markerValues := map[string]string{
		SignalSanctionsList: "SAN",
		SignalOwnership:     "SCO",
		SignalOtherList:     "OOL",
		SignalRecentEvent:   SignalRecentEvent,
		SignalCountryMatch:  SignalCountryMatch,
	}
	for _, item := range append(append([]RiskItem{}, v.High...), v.Medium...) {
		if dst, ok := markers[item.RiskType]; ok {
			*dst = markerValues[item.RiskType]
		}
	}

	return v
}

// bucketItem builds the bucket entry for one (signal type, level). List-hit
// signals without a single usable sanctions row produce no entry at all.
func bucketItem(riskType string, level risk.Level, st *signalState, descs DescriptionTable) (RiskItem, bool) {
	tab := st.tabs[level]
	if (riskType == SignalSanctionsList || riskType == SignalOtherList) && len(tab) == 0 {
		return RiskItem{}, false
	}
	if tab == nil {
		tab = []risk.DetailRow{}
	}
	item := RiskItem{RiskType: riskType, RiskValue: level, Tab: tab}
	fillDescription(&item, descs)
	return item, true
}

func fillDescription(item *RiskItem, descs DescriptionTable) {
	d := descs.Get(item.RiskType, item.RiskValue)
	item.RiskDesc = d.RiskDesc
	item.RiskDescInfo = d.RiskDescInfo
	item.Info = d.Info
}

// sanctionTab builds the detail row a list-hit signal contributes at high,
// medium or undetermined severity. Rows whose sanctions name is absent carry
// no usable evidence and contribute nothing.
func sanctionTab(row SignalRow, level risk.Level) []risk.DetailRow {
	if level != risk.High && level != risk.Medium && level != risk.Undetermined {
		return nil
	}
	name := trimDesc(row.SanctionsName)
	if name == "" || name == "null" {
		return nil
	}
	return []risk.DetailRow{{
		"start_time":            row.StartTime,
		"end_time":              row.EndTime,
		"sanctions_nm":          row.SanctionsName,
		"description2_value_cn": row.Description2,
	}}
}

func descRows(set map[string]struct{}) []risk.DetailRow {
	var out []risk.DetailRow
	for _, d := range sortedKeys(set) {
		out = append(out, risk.DetailRow{"description3_value_cn": d})
	}
	return out
}

func dateRows(dates []string) []risk.DetailRow {
	var out []risk.DetailRow
	for _, d := range dates {
		out = append(out, risk.DetailRow{"datevalue1": d})
	}
	return out
}

// rawDateRows surfaces the unparseable date values behind an undetermined
// recency reading.
func rawDateRows(rows []SignalRow) []risk.DetailRow {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for _, raw := range splitMulti(row.DateValue) {
			seen[raw] = struct{}{}
		}
	}
	return dateRows(sortedKeys(seen))
}

func countryRows(countries []string) []risk.DetailRow {
	var out []risk.DetailRow
	for _, c := range countries {
		out = append(out, risk.DetailRow{"country_nm1": c})
	}
	return out
}

func union(sets ...map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for _, s := range sets {
		for k := range s {
			out[k] = struct{}{}
		}
	}
	return out
}

func trimDesc(s string) string {
	return strings.TrimSpace(s)
}
