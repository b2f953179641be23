package screening

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// Roles screened in an STS/bunkering request, in output order.
var stsRoles = []string{
	"charterers",
	"vessel_owner",
	"vessel_manager",
	"vessel_operator",
	"vessel_broker",
	"agent",
	"consignee",
	"consignor",
}

// STSRequest is an STS or bunkering counterparty screening. Each role maps to
// one or more party names; empty roles are skipped.
type STSRequest struct {
	RequestID   string              `json:"request_id"`
	VesselIMO   string              `json:"vessel_imo"`
	Parties     map[string][]string `json:"parties"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}

// PartyRisk is the per-party outcome inside a role.
type PartyRisk struct {
	Role    string           `json:"role"`
	Name    string           `json:"name"`
	Level   risk.Level       `json:"risk_level"`
	Details []risk.DetailRow `json:"tab,omitempty"`
}

// STSResult is the combined outcome of a multi-role screening.
type STSResult struct {
	RequestID   string      `json:"request_id"`
	VesselIMO   string      `json:"vessel_imo"`
	Verdict     risk.Level  `json:"verdict"`
	Parties     []PartyRisk `json:"parties"`
	Record      risk.Record `json:"record"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// PartyScreener resolves one party name to a sanction risk outcome. The bulk
// entity resolver implements it.
type PartyScreener interface {
	ScreenParty(ctx context.Context, name string, evaluatedAt time.Time) (risk.Level, []risk.DetailRow, error)
}

// STSService runs STS/bunkering screenings over a PartyScreener.
type STSService struct {
	screener PartyScreener
	repo     LogRepository
	logger   logging.Logger
}

// NewSTSService wires the STS screening service.
func NewSTSService(screener PartyScreener, repo LogRepository, logger logging.Logger) *STSService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &STSService{screener: screener, repo: repo, logger: logger.Named("sts")}
}

// Screen resolves every named party, merges the role outcomes into one
// record, and persists the run.
func (s *STSService) Screen(ctx context.Context, req STSRequest) (*STSResult, error) {
	if req.EvaluatedAt.IsZero() {
		return nil, errors.Validation("evaluated_at is required")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if countParties(req.Parties) == 0 {
		return nil, errors.Validation("at least one party is required")
	}

	verdict := risk.Undetermined
	var parties []PartyRisk
	roleSubjects := map[string]string{}
	var rows []risk.DetailRow

	for _, role := range stsRoles {
		for _, name := range req.Parties[role] {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			level, details, err := s.screener.ScreenParty(ctx, name, req.EvaluatedAt)
			if err != nil {
				// A failed party lookup degrades that party only.
				s.logger.Warn("party screening degraded",
					logging.String("request_id", req.RequestID),
					logging.String("role", role),
					logging.Err(err),
				)
				level, details = risk.NoData, nil
			}
			verdict = risk.Merge(verdict, level)
			parties = append(parties, PartyRisk{Role: role, Name: name, Level: level, Details: details})
			if existing := roleSubjects[role]; existing != "" {
				roleSubjects[role] = existing + ";" + name
			} else {
				roleSubjects[role] = name
			}
			for _, row := range details {
				rows = append(rows, row.Tagged(role))
			}
		}
	}

	rec := risk.NewRecord("sts_bunkering_sanctions", "STS/bunkering counterparty screening", verdict,
		risk.RoleSubjects(roleSubjects))
	rec.Details = rows

	result := &STSResult{
		RequestID:   req.RequestID,
		VesselIMO:   req.VesselIMO,
		Verdict:     verdict,
		Parties:     parties,
		Record:      rec,
		EvaluatedAt: req.EvaluatedAt,
	}

	if s.repo != nil {
		entry := &LogEntry{
			ID:          uuid.New().String(),
			RequestID:   req.RequestID,
			SubjectID:   req.VesselIMO,
			Verdict:     verdict,
			Outcomes:    []CheckOutcome{{CheckID: "sts_bunkering_sanctions", Record: rec}},
			EvaluatedAt: req.EvaluatedAt,
		}
		if err := s.repo.Save(ctx, entry); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "save sts screening log")
		}
	}
	return result, nil
}

func countParties(parties map[string][]string) int {
	n := 0
	for _, names := range parties {
		for _, name := range names {
			if strings.TrimSpace(name) != "" {
				n++
			}
		}
	}
	return n
}
