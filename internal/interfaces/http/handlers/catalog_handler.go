package handlers

import (
	"context"
	"net/http"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

// ProbeConfigSource lists check item configuration rows.
type ProbeConfigSource interface {
	ListEnabled(ctx context.Context) ([]probe.Config, error)
	ListAll(ctx context.Context) ([]probe.Config, error)
}

// CatalogHandler serves the check item control table.
type CatalogHandler struct {
	configs ProbeConfigSource
	logger  logging.Logger
}

func NewCatalogHandler(configs ProbeConfigSource, logger logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CatalogHandler{configs: configs, logger: logger.Named("catalog_handler")}
}

// CheckListResponse wraps the config rows with a count.
type CheckListResponse struct {
	Total  int            `json:"total"`
	Checks []probe.Config `json:"checks"`
}

// List returns the enabled check item configs. Pass ?include_disabled=true
// for the full control table.
// GET /api/v1/checks
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		configs []probe.Config
		err     error
	)
	if r.URL.Query().Get("include_disabled") == "true" {
		configs, err = h.configs.ListAll(r.Context())
	} else {
		configs, err = h.configs.ListEnabled(r.Context())
	}
	if err != nil {
		h.logger.Error("check config listing failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	if configs == nil {
		configs = []probe.Config{}
	}
	writeJSON(w, http.StatusOK, CheckListResponse{Total: len(configs), Checks: configs})
}
